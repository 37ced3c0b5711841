package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/session"
	"screen-translator/src/singleinstance"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []session.RunOptions
	res   session.Result
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, opts session.RunOptions) (session.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, opts)
	r.mu.Unlock()
	return r.res, r.err
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeConn struct {
	req    singleinstance.Request
	mu     sync.Mutex
	status string
	body   string
	closed chan struct{}
}

func newFakeConn(req singleinstance.Request) *fakeConn {
	return &fakeConn{req: req, closed: make(chan struct{})}
}

func (c *fakeConn) Request() singleinstance.Request { return c.req }

func (c *fakeConn) record(status, body string) error {
	c.mu.Lock()
	c.status, c.body = status, body
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) RespondSuccess(text string) error     { return c.record("ok", text) }
func (c *fakeConn) RespondCancelled(reason string) error { return c.record("cancelled", reason) }
func (c *fakeConn) RespondError(msg string) error        { return c.record("error", msg) }
func (c *fakeConn) Close() error                         { close(c.closed); return nil }

func (c *fakeConn) response() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.body
}

type fakeServer struct {
	conns chan singleinstance.Conn
}

func (s *fakeServer) Start(ctx context.Context) error { return nil }
func (s *fakeServer) Port() int                       { return 1 }
func (s *fakeServer) Close() error                    { return nil }
func (s *fakeServer) Next(ctx context.Context) (singleinstance.Conn, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type statusLog struct {
	mu   sync.Mutex
	msgs []string
}

func (s *statusLog) set(msg string) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *statusLog) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return ""
	}
	return s.msgs[len(s.msgs)-1]
}

func startLoop(t *testing.T, l *Loop) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	return func() {
		stop()
		<-done
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTriggerRunsPipeline(t *testing.T) {
	runner := &fakeRunner{res: session.Result{Outcome: session.Completed, Translated: "CIAO"}}
	status := &statusLog{}
	l := New(runner, nil, status.set)
	l.SetDefaultTooltip("idle")
	stop := startLoop(t, l)
	defer stop()

	l.Trigger("hotkey")
	waitFor(t, func() bool { return runner.callCount() == 1 && status.last() == "idle" })
	if runner.calls[0] != (session.RunOptions{}) {
		t.Fatalf("hotkey run options = %+v, want defaults", runner.calls[0])
	}
}

func TestFailureShowsKindInTooltip(t *testing.T) {
	runner := &fakeRunner{
		res: session.Result{Outcome: session.Failed},
		err: apperr.New(apperr.KindTranslation, apperr.SubStatus, "403"),
	}
	status := &statusLog{}
	l := New(runner, nil, status.set)
	stop := startLoop(t, l)
	defer stop()

	l.Trigger("tray")
	waitFor(t, func() bool {
		return status.last() == "Screen Translator: last run failed (TranslationError)"
	})
}

func TestDelegatedStdoutRequest(t *testing.T) {
	runner := &fakeRunner{res: session.Result{Outcome: session.Completed, Translated: "HOLA"}}
	srv := &fakeServer{conns: make(chan singleinstance.Conn, 1)}
	l := New(runner, srv, nil)
	stop := startLoop(t, l)
	defer stop()

	conn := newFakeConn(singleinstance.Request{OutputToStdout: true, Language: "es"})
	srv.conns <- conn
	<-conn.closed

	if status, body := conn.response(); status != "ok" || body != "HOLA" {
		t.Fatalf("response = %s %q", status, body)
	}
	opts := runner.calls[0]
	if opts.Language != "es" {
		t.Fatalf("language override = %q", opts.Language)
	}
	if _, ok := opts.Publisher.(session.DiscardPublisher); !ok {
		t.Fatalf("stdout request publisher = %T, want DiscardPublisher", opts.Publisher)
	}
}

func TestDelegatedClipboardRequest(t *testing.T) {
	runner := &fakeRunner{res: session.Result{Outcome: session.Completed, Translated: "CIAO"}}
	srv := &fakeServer{conns: make(chan singleinstance.Conn, 1)}
	l := New(runner, srv, nil)
	stop := startLoop(t, l)
	defer stop()

	conn := newFakeConn(singleinstance.Request{})
	srv.conns <- conn
	<-conn.closed

	if status, body := conn.response(); status != "ok" || body != "" {
		t.Fatalf("response = %s %q, want ok with empty body", status, body)
	}
	if runner.calls[0].Publisher != nil {
		t.Fatal("clipboard request should use the default publisher")
	}
}

func TestDelegatedOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		res        session.Result
		err        error
		wantStatus string
		wantBody   string
	}{
		{"cancelled", session.Result{Outcome: session.Cancelled}, nil, "cancelled", "cancelled"},
		{"nothing selected", session.Result{Outcome: session.NothingSelected}, nil, "cancelled", "nothing selected"},
		{"failed", session.Result{Outcome: session.Failed}, errors.New("boom"), "error", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{res: tt.res, err: tt.err}
			srv := &fakeServer{conns: make(chan singleinstance.Conn, 1)}
			l := New(runner, srv, nil)
			stop := startLoop(t, l)
			defer stop()

			conn := newFakeConn(singleinstance.Request{})
			srv.conns <- conn
			<-conn.closed
			if status, body := conn.response(); status != tt.wantStatus || body != tt.wantBody {
				t.Fatalf("response = %s %q, want %s %q", status, body, tt.wantStatus, tt.wantBody)
			}
		})
	}
}

func TestTriggerQueueDropsOverflow(t *testing.T) {
	l := New(&fakeRunner{}, nil, nil)
	for i := 0; i < cap(l.triggers)+3; i++ {
		l.Trigger("hotkey")
	}
	if got := len(l.triggers); got != cap(l.triggers) {
		t.Fatalf("queued %d triggers, want %d", got, cap(l.triggers))
	}
}
