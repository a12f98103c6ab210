// Package window computes the five-slot wraparound view used to browse a
// collection one record at a time.
package window

// Radius is how many items are shown on each side of the selected one.
const Radius = 2

// Size is the number of entries in a Window.
const Size = 2*Radius + 1

// Entry is one slot of a Window.
type Entry[T any] struct {
	// Offset from the selected item, -Radius..Radius.
	Offset int
	// Index into the source slice.
	Index int
	Item  T
}

// Window is an ordered view around a selected item, from offset -Radius
// to +Radius.
type Window[T any] []Entry[T]

// Compute returns the window around selected. Indices wrap, so moving
// left of 0 lands on the last item. selected may be out of range and is
// wrapped the same way. An empty items gives an empty window.
//
// When len(items) < Size the same index appears more than once; use
// Unique for a view without repeats.
func Compute[T any](selected int, items []T) Window[T] {
	n := len(items)
	if n == 0 {
		return nil
	}

	w := make(Window[T], 0, Size)
	for offset := -Radius; offset <= Radius; offset++ {
		idx := Mod(selected+offset, n)
		w = append(w, Entry[T]{Offset: offset, Index: idx, Item: items[idx]})
	}
	return w
}

// Center returns the selected entry.
func (w Window[T]) Center() (Entry[T], bool) {
	for _, e := range w {
		if e.Offset == 0 {
			return e, true
		}
	}
	var zero Entry[T]
	return zero, false
}

// Indices returns the index of every entry, in order.
func (w Window[T]) Indices() []int {
	out := make([]int, len(w))
	for i, e := range w {
		out[i] = e.Index
	}
	return out
}

// Unique returns the window with every index appearing once, keeping
// the entry nearest the centre. On a tie the left entry wins. Order is
// preserved, so the result has min(Size, n) entries.
func (w Window[T]) Unique() Window[T] {
	best := make(map[int]int, len(w))
	for i, e := range w {
		j, seen := best[e.Index]
		if !seen || abs(e.Offset) < abs(w[j].Offset) {
			best[e.Index] = i
		}
	}

	out := make(Window[T], 0, len(best))
	for i, e := range w {
		if best[e.Index] == i {
			out = append(out, e)
		}
	}
	return out
}

// Step moves index by delta with wraparound. It returns 0 when n is 0.
func Step(index, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return Mod(index+delta, n)
}

// Clamp limits index to [0, n). It returns 0 when n is 0.
func Clamp(index, n int) int {
	switch {
	case n <= 0 || index < 0:
		return 0
	case index >= n:
		return n - 1
	default:
		return index
	}
}

// Mod is the non-negative remainder of a divided by n. n must be positive.
func Mod(a, n int) int {
	return ((a % n) + n) % n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
