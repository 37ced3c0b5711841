package clipboard

import (
	"sync"

	"golang.design/x/clipboard"

	"screen-translator/src/apperr"
)

var (
	writeMu sync.Mutex
	initErr error = apperr.New(apperr.KindClipboard, apperr.SubUnavailable, "clipboard not initialized")
)

// Init connects to the system clipboard. Writes fail until it succeeds.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		initErr = apperr.Wrap(err, apperr.KindClipboard, apperr.SubUnavailable, "clipboard unavailable")
		return initErr
	}
	initErr = nil
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if initErr != nil {
		return initErr
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// System is the process clipboard as a value that can be injected.
type System struct{}

func (System) Write(text string) error { return Write(text) }
