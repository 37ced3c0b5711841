// Package eventloop turns hotkey presses, tray clicks and delegated run-once
// requests into pipeline runs and reports their outcome back to the tray and
// to delegating clients.
package eventloop

import (
	"context"
	"fmt"
	"log"
	"sync"

	"screen-translator/src/apperr"
	"screen-translator/src/session"
	"screen-translator/src/singleinstance"
)

// Runner executes one pipeline run. *session.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, opts session.RunOptions) (session.Result, error)
}

// Loop is the single-threaded coordinator. Runs execute on their own
// goroutines; the runner itself supersedes an in-flight run when a new one
// starts.
type Loop struct {
	runner         Runner
	srv            singleinstance.Server
	status         func(string)
	defaultTooltip string

	triggers  chan trigger
	completed chan completion
	inFlight  int
	wg        sync.WaitGroup
}

type trigger struct {
	source string
	conn   singleinstance.Conn
}

type completion struct {
	trigger
	res session.Result
	err error
}

// New creates a loop. srv may be nil when no delegation endpoint is wanted;
// status receives tray tooltip updates and may be nil.
func New(runner Runner, srv singleinstance.Server, status func(string)) *Loop {
	if status == nil {
		status = func(string) {}
	}
	return &Loop{
		runner:         runner,
		srv:            srv,
		status:         status,
		defaultTooltip: "Screen Translator",
		triggers:       make(chan trigger, 4),
		completed:      make(chan completion, 4),
	}
}

// SetDefaultTooltip sets the idle tooltip text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// Trigger requests a run from the hotkey or tray. Extra triggers beyond the
// queue are dropped; the queued ones supersede each other anyway.
func (l *Loop) Trigger(source string) {
	select {
	case l.triggers <- trigger{source: source}:
	default:
		log.Printf("EVENTLOOP: dropping %s trigger, queue full", source)
	}
}

// Run processes triggers until ctx is cancelled, then waits for in-flight
// runs to unwind.
func (l *Loop) Run(ctx context.Context) error {
	conns := make(chan singleinstance.Conn)
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start resident endpoint: %w", err)
		}
		log.Printf("EVENTLOOP: resident listening on 127.0.0.1:%d", l.srv.Port())
		go func() {
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					return
				}
				select {
				case conns <- conn:
				case <-ctx.Done():
					l.answer(completion{trigger: trigger{conn: conn}, res: session.Result{Outcome: session.Superseded}})
					return
				}
			}
		}()
	}
	l.status(l.defaultTooltip)

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return ctx.Err()
		case t := <-l.triggers:
			l.start(ctx, t)
		case conn := <-conns:
			l.start(ctx, trigger{source: "delegated", conn: conn})
		case c := <-l.completed:
			l.finish(c)
		}
	}
}

func (l *Loop) start(ctx context.Context, t trigger) {
	log.Printf("EVENTLOOP: starting run from %s", t.source)
	opts := session.RunOptions{}
	if t.conn != nil {
		req := t.conn.Request()
		opts.Language = req.Language
		if req.OutputToStdout {
			opts.Publisher = session.DiscardPublisher{}
		}
	}

	l.inFlight++
	l.status("Screen Translator: processing...")
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res, err := l.runner.Run(ctx, opts)
		c := completion{trigger: t, res: res, err: err}
		select {
		case l.completed <- c:
		case <-ctx.Done():
			l.answer(c)
		}
	}()
}

func (l *Loop) finish(c completion) {
	l.inFlight--
	l.answer(c)

	switch {
	case c.err != nil:
		l.status(fmt.Sprintf("Screen Translator: last run failed (%s)", apperr.KindOf(c.err)))
	case l.inFlight == 0:
		l.status(l.defaultTooltip)
	}
}

// answer responds to a delegating client, if the run came from one.
func (l *Loop) answer(c completion) {
	if c.conn == nil {
		return
	}
	defer c.conn.Close()

	var err error
	switch {
	case c.err != nil:
		err = c.conn.RespondError(c.err.Error())
	case c.res.Outcome == session.Completed:
		text := ""
		if c.conn.Request().OutputToStdout {
			text = c.res.Translated
		}
		err = c.conn.RespondSuccess(text)
	default:
		err = c.conn.RespondCancelled(c.res.Outcome.String())
	}
	if err != nil {
		log.Printf("EVENTLOOP: failed to answer delegated request: %v", err)
	}
}
