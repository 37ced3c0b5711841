package singleinstance

import (
	"fmt"
	"strings"

	"screen-translator/src/config"
)

// Line protocol, one request per connection:
//
//	client: PING\n                        server: PONG\n
//	client: TRANSLATE <MODE> [lang]\n     server: OK\n<text> | CANCELLED\n<reason> | ERROR\n<msg>
//
// MODE is STDOUT or CLIPBOARD. The server closes the connection after the
// response body.
const (
	residentHost = "127.0.0.1"

	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	verbTranslate  = "TRANSLATE"
	modeStdout     = "STDOUT"
	modeClipboard  = "CLIPBOARD"
	statusOK       = "OK\n"
	statusCancel   = "CANCELLED\n"
	statusError    = "ERROR\n"
	maxRequestLine = 256
)

func encodeRequest(req Request) string {
	mode := modeClipboard
	if req.OutputToStdout {
		mode = modeStdout
	}
	if req.Language != "" {
		return fmt.Sprintf("%s %s %s\n", verbTranslate, mode, req.Language)
	}
	return fmt.Sprintf("%s %s\n", verbTranslate, mode)
}

func decodeRequest(line string) (Request, error) {
	if len(line) > maxRequestLine {
		return Request{}, fmt.Errorf("request line too long (%d bytes)", len(line))
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 || fields[0] != verbTranslate {
		return Request{}, fmt.Errorf("malformed request %q", strings.TrimSpace(line))
	}
	var req Request
	switch fields[1] {
	case modeStdout:
		req.OutputToStdout = true
	case modeClipboard:
	default:
		return Request{}, fmt.Errorf("unknown output mode %q", fields[1])
	}
	if len(fields) == 3 {
		if req.Language = config.NormalizeLanguage(fields[2]); req.Language == "" {
			return Request{}, fmt.Errorf("invalid language %q", fields[2])
		}
	}
	return req, nil
}
