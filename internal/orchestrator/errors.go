package orchestrator

import "errors"

var (
	// ErrUnknownFeature is returned when a requested feature has no entry
	// in the dependency table.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrUnsatisfiedDependency is returned when a requested feature needs an
	// upstream feature that was not requested.
	ErrUnsatisfiedDependency = errors.New("unsatisfied dependency")

	// ErrMissingStage is returned when a built-in feature is requested from
	// a registry that has no stage for it.
	ErrMissingStage = errors.New("missing stage")

	// ErrMissingIndicator marks a required input column that was absent and
	// computed internally. It is reported as a warning, never returned.
	ErrMissingIndicator = errors.New("missing indicator")

	// ErrUnknownDependency is returned when a registered stage declares a
	// dependency that is not registered.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrDependencyCycle is returned when registered stages depend on each
	// other in a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrMissingOutput is returned when a stage reads an upstream output that
	// was not produced or has an unexpected type.
	ErrMissingOutput = errors.New("missing upstream output")
)
