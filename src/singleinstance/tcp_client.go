package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

type tcpClient struct{}

func newTCPClient() *tcpClient { return &tcpClient{} }

func (c *tcpClient) TryRunOnce(ctx context.Context, req Request) (Response, error) {
	port, ok := DetectResidentPort(ctx)
	if !ok {
		return Response{}, nil
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Response{}, nil
	}
	defer conn.Close()

	// Unblock the read below if the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(encodeRequest(req)); err != nil {
		return Response{Delegated: true}, err
	}
	if err := w.Flush(); err != nil {
		return Response{Delegated: true}, err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return Response{Delegated: true}, err
	}
	body, _ := io.ReadAll(br)
	switch status {
	case statusOK:
		return Response{Delegated: true, Text: string(body)}, nil
	case statusCancel:
		return Response{Delegated: true, Cancelled: true, Reason: string(body)}, nil
	case statusError:
		return Response{Delegated: true}, errors.New(string(body))
	}
	return Response{Delegated: true}, errors.New("unexpected response from resident: " + status)
}
