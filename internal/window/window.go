// Package window provides a fixed-capacity sliding window over float64
// observations. While the window is filling, values land in successive
// slots; once full, a push shifts everything left by one and appends at
// the end, dropping the oldest observation.
package window

// Window holds the most recent observations up to a fixed capacity.
type Window struct {
	data  []float64
	count int
}

// New creates a window with the given capacity. Capacity must be positive.
func New(capacity int) *Window {
	if capacity <= 0 {
		panic("window: capacity must be positive")
	}
	return &Window{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest observation once full.
func (w *Window) Push(v float64) {
	if w.count < len(w.data) {
		w.data[w.count] = v
		w.count++
		return
	}
	copy(w.data, w.data[1:])
	w.data[len(w.data)-1] = v
}

// Values returns the populated observations, oldest first. The returned
// slice is a copy; callers may keep it.
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	copy(out, w.data[:w.count])
	return out
}

// Mean returns the arithmetic mean over the populated slots only, so a
// partially filled window is never biased by unwritten entries. An empty
// window has mean 0.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.data[:w.count] {
		sum += v
	}
	return sum / float64(w.count)
}

// Last returns the most recently pushed value, or 0 if empty.
func (w *Window) Last() float64 {
	if w.count == 0 {
		return 0
	}
	return w.data[w.count-1]
}

func (w *Window) Len() int   { return w.count }
func (w *Window) Cap() int   { return len(w.data) }
func (w *Window) Full() bool { return w.count == len(w.data) }
