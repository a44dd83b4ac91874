// Package buffer holds small generic containers shared across dama.
package buffer

// Ring keeps the newest items up to a fixed capacity, overwriting the oldest.
// It is not safe for concurrent use.
type Ring[T any] struct {
	items []T
	// next is the slot the following Add writes to.
	next int
	full bool
}

// NewRing returns a ring holding at most size items; sizes below one hold one.
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{items: make([]T, max(size, 1))}
}

func (r *Ring[T]) Add(item T) {
	r.items[r.next] = item
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.items)
	}
	return r.next
}

func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// List copies the items oldest first.
func (r *Ring[T]) List() []T {
	if r.Len() == 0 {
		return nil
	}
	out := make([]T, 0, r.Len())
	r.Each(func(item T) bool {
		out = append(out, item)
		return true
	})
	return out
}

// Each visits items oldest first until visit returns false.
func (r *Ring[T]) Each(visit func(T) bool) {
	for i := 0; i < r.Len(); i++ {
		if !visit(r.items[r.slot(i)]) {
			return
		}
	}
}

// NewestFirst visits items newest first until visit returns false.
func (r *Ring[T]) NewestFirst(visit func(T) bool) {
	for i := r.Len() - 1; i >= 0; i-- {
		if !visit(r.items[r.slot(i)]) {
			return
		}
	}
}

// slot maps the i-th oldest item to its index in items.
func (r *Ring[T]) slot(i int) int {
	if !r.full {
		return i
	}
	return (r.next + i) % len(r.items)
}
