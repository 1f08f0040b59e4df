package observe

// Signal is an ordered subscriber registry for values of type T.
// Emit dispatches synchronously, in subscription order, on the calling
// goroutine. Signals are not safe for concurrent use; in lumen every
// Signal is confined to the event loop.
type Signal[T any] struct {
	order []int
	subs  map[int]func(T)
	next  int
}

// Subscribe registers fn and returns a cancel function that removes it.
// Cancelling twice is a no-op. Cancelling during dispatch is allowed;
// the removed subscriber is skipped for the remainder of that emit.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	s.order = append(s.order, id)
	return func() {
		if _, ok := s.subs[id]; !ok {
			return
		}
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Emit calls every current subscriber with v.
func (s *Signal[T]) Emit(v T) {
	// Snapshot the order so subscribing or cancelling from inside a
	// callback does not disturb this dispatch.
	ids := make([]int, len(s.order))
	copy(ids, s.order)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn(v)
		}
	}
}

// Len returns the number of active subscribers.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}
