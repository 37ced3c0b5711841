package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu       sync.Mutex
	lis      net.Listener
	incoming chan *tcpConn
	port     int
	closed   chan struct{}
	once     sync.Once
}

func newTCPServer() *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), closed: make(chan struct{})}
}

func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, _ := portRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		tc, ok := s.handshake(c)
		if !ok {
			continue
		}
		select {
		case s.incoming <- tc:
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-s.closed:
			_ = c.Close()
			return
		}
	}
}

// handshake reads the first line. PING is answered inline; a translate
// request is returned for the caller to queue.
func (s *tcpServer) handshake(c net.Conn) (*tcpConn, bool) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	line, err := br.ReadString('\n')
	if err != nil {
		_ = c.Close()
		return nil, false
	}
	if line == pingRequest {
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	}

	req, err := decodeRequest(line)
	if err != nil {
		log.Printf("singleinstance: rejecting %s: %v", remote, err)
		_, _ = bw.WriteString(statusError + err.Error())
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	}
	// The run waits on a human selecting a region; no deadline from here on.
	_ = c.SetDeadline(time.Time{})
	log.Printf("singleinstance: request from %s stdout=%v lang=%q", remote, req.OutputToStdout, req.Language)
	return &tcpConn{c: c, r: req, w: bw}, true
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		if s.lis != nil {
			_ = s.lis.Close()
		}
		s.mu.Unlock()
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) respond(status, body string) error {
	if _, err := tc.w.WriteString(status + body); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondSuccess(text string) error { return tc.respond(statusOK, text) }

func (tc *tcpConn) RespondCancelled(reason string) error { return tc.respond(statusCancel, reason) }

func (tc *tcpConn) RespondError(msg string) error { return tc.respond(statusError, msg) }

func (tc *tcpConn) Close() error { return tc.c.Close() }
