package structure

// Hold carries the last value seen in a left fold over bars.
// Get returns nil until the first Set.
type Hold[T any] struct {
	cur *T
}

// Set replaces the held value.
func (h *Hold[T]) Set(v T) {
	h.cur = &v
}

// Get returns the held value, nil if nothing was set yet.
func (h *Hold[T]) Get() *T {
	return h.cur
}

// Reset clears the held value.
func (h *Hold[T]) Reset() {
	h.cur = nil
}

// holdIndex returns, for every bar, the index of the last bar <= i where
// fired is true, nil before the first one.
func holdIndex(fired []bool) []*int {
	out := make([]*int, len(fired))
	var h Hold[int]
	for i, f := range fired {
		if f {
			h.Set(i)
		}
		out[i] = h.Get()
	}
	return out
}

// barsSince returns i - held[i], nil where held[i] is nil.
func barsSince(held []*int) []*int {
	out := make([]*int, len(held))
	for i, h := range held {
		if h != nil {
			out[i] = ptr(i - *h)
		}
	}
	return out
}

// rollingMax returns the max of values[i-n+1..i], nil until the window is full.
func rollingMax(values []float64, n int) []*float64 {
	return rolling(values, n, func(acc, v float64) float64 {
		if v > acc {
			return v
		}
		return acc
	})
}

// rollingMin returns the min of values[i-n+1..i], nil until the window is full.
func rollingMin(values []float64, n int) []*float64 {
	return rolling(values, n, func(acc, v float64) float64 {
		if v < acc {
			return v
		}
		return acc
	})
}

// rollingMean returns the mean of values[i-n+1..i], nil until the window is full.
func rollingMean(values []float64, n int) []*float64 {
	out := make([]*float64, len(values))
	if n <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = ptr(sum / float64(n))
		}
	}
	return out
}

func rolling(values []float64, n int, pick func(acc, v float64) float64) []*float64 {
	out := make([]*float64, len(values))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		acc := values[i-n+1]
		for j := i - n + 2; j <= i; j++ {
			acc = pick(acc, values[j])
		}
		out[i] = ptr(acc)
	}
	return out
}

// shift returns values moved k bars later: out[i] = values[i-k].
func shift[T any](values []*T, k int) []*T {
	out := make([]*T, len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i-k]
	}
	return out
}

// ratio returns num/den, nil when either side is undefined or den <= 0.
func ratio(num float64, den *float64) *float64 {
	if den == nil || *den <= 0 {
		return nil
	}
	return ptr(num / *den)
}

func ptr[T any](v T) *T {
	return &v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
