package notify

import "sync"

// mailbox is an unbounded FIFO between the notifier loop and one observer.
// push never blocks; a pump goroutine moves queued changes to out.
type mailbox struct {
	mu     sync.Mutex
	queue  []Change
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
	out    chan Change
}

func newMailbox() *mailbox {
	m := &mailbox{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Change),
	}
	go m.pump()
	return m
}

func (m *mailbox) push(c Change) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) close() {
	m.once.Do(func() { close(m.done) })
}

func (m *mailbox) pump() {
	defer close(m.out)
	for {
		select {
		case <-m.done:
			return
		case <-m.signal:
		}

		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			c := m.queue[0]
			m.queue[0] = Change{}
			m.queue = m.queue[1:]
			m.mu.Unlock()

			select {
			case m.out <- c:
			case <-m.done:
				return
			}
		}
	}
}
