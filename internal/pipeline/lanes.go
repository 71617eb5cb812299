package pipeline

import "sync"

// lanes serializes tasks per session while letting different sessions
// run concurrently. One session's tasks execute in submission order on
// a single goroutine, so a slow collaborator call for one caller never
// stalls another caller's turn.
type lanes struct {
	mu      sync.Mutex
	pending map[string][]func()
	wg      sync.WaitGroup
}

func newLanes() *lanes {
	return &lanes{pending: make(map[string][]func())}
}

// Do queues fn on the session's lane. An idle lane gets a fresh drain
// goroutine; an active one picks the task up in order.
func (l *lanes) Do(sessionID string, fn func()) {
	l.mu.Lock()
	q, active := l.pending[sessionID]
	l.pending[sessionID] = append(q, fn)
	l.mu.Unlock()
	if active {
		return
	}
	l.wg.Add(1)
	go l.drain(sessionID)
}

func (l *lanes) drain(sessionID string) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		q := l.pending[sessionID]
		if len(q) == 0 {
			// Deleting the key marks the lane idle; the next Do spawns
			// a new drainer.
			delete(l.pending, sessionID)
			l.mu.Unlock()
			return
		}
		fn := q[0]
		l.pending[sessionID] = q[1:]
		l.mu.Unlock()
		fn()
	}
}

// Wait blocks until every lane has drained.
func (l *lanes) Wait() {
	l.wg.Wait()
}
