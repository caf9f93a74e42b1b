package shared

// FirstWhere returns a pointer to the first element of items satisfying pred.
func FirstWhere[T any](items []T, pred func(T) bool) (*T, bool) {
	for i := range items {
		if pred(items[i]) {
			return &items[i], true
		}
	}
	return nil, false
}

// Where returns the elements of items satisfying pred, preserving order.
func Where[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// AnyWhere reports whether any element of items satisfies pred.
func AnyWhere[T any](items []T, pred func(T) bool) bool {
	_, ok := FirstWhere(items, pred)
	return ok
}
