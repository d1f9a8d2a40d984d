package realtime

// ring is a fixed capacity FIFO buffer; pushing onto a full ring evicts the oldest event.
type ring struct {
	buf   []Event
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Event, capacity)}
}

func (r *ring) capacity() int {
	return len(r.buf)
}

func (r *ring) push(e Event) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

// last copies the newest n events, oldest first.
func (r *ring) last(n int) []Event {
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]Event, n)
	offset := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+offset+i)%len(r.buf)]
	}
	return out
}
