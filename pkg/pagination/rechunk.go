package pagination

import "iter"

// Rechunk regroups seq into slices of size items. A non-empty remainder is
// yielded last; an empty seq yields nothing. Every yielded slice is freshly
// allocated, so consumers may keep it.
func Rechunk[T any](seq iter.Seq[T], size int) iter.Seq[[]T] {
	if size < 1 {
		panic("pagination: chunk size must be >= 1")
	}

	return func(yield func([]T) bool) {
		buf := make([]T, 0, size)
		for item := range seq {
			buf = append(buf, item)
			if len(buf) == size {
				if !yield(buf) {
					return
				}
				buf = make([]T, 0, size)
			}
		}
		if len(buf) > 0 {
			yield(buf)
		}
	}
}
