package normalization

import "errors"

var (
	// ErrInvalidBar is returned for a bar with non-finite or inconsistent OHLC values.
	ErrInvalidBar = errors.New("invalid bar")

	// ErrMissingColumn is returned when a required CSV column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrDuplicateTimestamp is returned when two bars share an open time.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
)
