package store

// subscribers is a registry of change callbacks. Callers hold the owning
// store's lock.
type subscribers[T any] struct {
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) int {
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	s.next++
	s.fns[s.next] = fn
	return s.next
}

func (s *subscribers[T]) remove(id int) {
	delete(s.fns, id)
}

func (s *subscribers[T]) list() []func(T) {
	out := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		out = append(out, fn)
	}
	return out
}
