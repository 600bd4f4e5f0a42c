package draw

import "context"

type event struct {
	fn   func() error
	errc chan error
}

// Loop runs events one at a time on a single goroutine, so a Bridge can be
// driven from concurrent callers such as HTTP handlers.
type Loop struct {
	events chan event
}

// NewLoop returns a Loop. Nothing is processed until Run is called.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan event),
	}
}

// Run processes submitted events until ctx is cancelled. Each event runs to
// completion before the next one starts.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case e := <-l.events:
			e.errc <- e.fn()
			close(e.errc)
		case <-ctx.Done():
			return nil
		}
	}
}

// Do submits fn to the loop and waits for it to finish, returning its error.
// If ctx is cancelled before the loop accepts fn, fn is not run.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case l.events <- event{fn: fn, errc: errc}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}
