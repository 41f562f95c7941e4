package campaigns

import "sync"

// Request is an operator request recorded on a Token.
type Request int

const (
	RequestNone Request = iota
	RequestPause
	RequestStop
)

func (r Request) String() string {
	switch r {
	case RequestPause:
		return "pause"
	case RequestStop:
		return "stop"
	}
	return "none"
}

// Token carries pause/stop requests to a running sweep. The runner only
// observes it at yield points; an in-flight provider call is never aborted.
// Stop overrides pause.
type Token struct {
	mu   sync.Mutex
	req  Request
	done chan struct{}
}

func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Pause records a pause request. It reports false if any request is already set.
func (t *Token) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.req != RequestNone {
		return false
	}
	t.req = RequestPause
	close(t.done)
	return true
}

func (t *Token) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.req == RequestNone {
		close(t.done)
	}
	t.req = RequestStop
}

func (t *Token) Requested() Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.req
}

// Done is closed once any request is recorded. Delays select on it.
func (t *Token) Done() <-chan struct{} { return t.done }
