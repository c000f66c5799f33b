//go:build debug

package channel

// New ignores size in debug builds so every publish rendezvous with the
// writer, which makes ordering problems reproducible.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
