package transport

// queuedTransmit stores a serialized message for replay after reconnection.
type queuedTransmit struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO that stores outbound messages while the
// broker is unreachable. Not safe for concurrent use; the caller must
// synchronize.
type outbox struct {
	buf      []queuedTransmit
	capacity int
	head     int // next write position
	count    int
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		buf:      make([]queuedTransmit, capacity),
		capacity: capacity,
	}
}

// push appends msg, overwriting the oldest entry when full. Reports whether
// an entry was dropped.
func (o *outbox) push(msg queuedTransmit) bool {
	dropped := o.count == o.capacity
	o.buf[o.head] = msg
	o.head = (o.head + 1) % o.capacity
	if !dropped {
		o.count++
	}
	return dropped
}

// drainAll returns the queued messages oldest-first and empties the outbox.
func (o *outbox) drainAll() []queuedTransmit {
	if o.count == 0 {
		return nil
	}

	result := make([]queuedTransmit, o.count)
	// Oldest item is at (head - count) mod capacity
	start := (o.head - o.count + o.capacity) % o.capacity
	for i := 0; i < o.count; i++ {
		result[i] = o.buf[(start+i)%o.capacity]
	}

	o.count = 0
	o.head = 0
	return result
}

func (o *outbox) len() int {
	return o.count
}
