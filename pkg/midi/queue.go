package midi

// Queue holds the events of one processing block in offset order.
// Capacity is fixed at construction; it never allocates afterwards and
// takes no locks, so it must be filled and drained on the audio thread.
type Queue struct {
	events  []Event
	head    int
	dropped int
}

func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{events: make([]Event, 0, capacity)}
}

// Add inserts an event after any already queued event with the same or an
// earlier offset. It reports false, and counts a drop, when the queue is full.
func (q *Queue) Add(event Event) bool {
	if len(q.events) == cap(q.events) {
		if q.head == 0 {
			q.dropped++
			return false
		}
		n := copy(q.events, q.events[q.head:])
		clear(q.events[n:])
		q.events = q.events[:n]
		q.head = 0
	}

	i := len(q.events)
	q.events = append(q.events, event)
	for i > q.head && q.events[i-1].SampleOffset() > event.SampleOffset() {
		q.events[i] = q.events[i-1]
		i--
	}
	q.events[i] = event
	return true
}

// Next pops the earliest event if its offset is at or before offset.
func (q *Queue) Next(offset int32) (Event, bool) {
	if q.head == len(q.events) {
		return nil, false
	}
	e := q.events[q.head]
	if e.SampleOffset() > offset {
		return nil, false
	}
	q.events[q.head] = nil
	q.head++
	return e, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events) - q.head
}

// Dropped returns how many events were rejected because the queue was full.
func (q *Queue) Dropped() int {
	return q.dropped
}

// Clear discards pending events.
func (q *Queue) Clear() {
	clear(q.events)
	q.events = q.events[:0]
	q.head = 0
}
