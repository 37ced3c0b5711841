// Package tray runs the notification-area menu: Translate, the target
// language picker and Exit.
package tray

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"

	"screen-translator/src/prefs"
)

// Config wires the menu to the rest of the app. Callbacks run on systray's
// click goroutine and must not block for long.
type Config struct {
	Title   string
	Tooltip string

	Languages []string
	// Current returns the language to show as checked.
	Current func() string

	OnTranslate func()
	// OnLanguage applies a picked language. An error is logged; the check
	// mark and icon then follow whatever Current reports, so a language that
	// was switched in memory but failed to persist still shows as selected.
	OnLanguage func(code string) error
	// OnExit runs after the tray has been torn down.
	OnExit func()
}

var ready atomic.Bool

// Run shows the tray icon and blocks until Quit is called. On Windows it must
// run on the thread that owns the message loop, normally the main goroutine.
func Run(cfg Config) {
	systray.Run(func() { onReady(cfg) }, func() {
		ready.Store(false)
		if cfg.OnExit != nil {
			cfg.OnExit()
		}
	})
}

// Quit removes the tray icon and makes Run return.
func Quit() { systray.Quit() }

// UpdateTooltip changes the tooltip once the tray is up; earlier calls are
// dropped.
func UpdateTooltip(text string) {
	if !ready.Load() {
		return
	}
	systray.SetTooltip(text)
}

func onReady(cfg Config) {
	current := ""
	if cfg.Current != nil {
		current = cfg.Current()
	}
	systray.SetIcon(Icon(current))
	systray.SetTitle(cfg.Title)
	systray.SetTooltip(cfg.Tooltip)

	mTranslate := systray.AddMenuItem("Translate", "Select a screen region to translate")
	mLanguage := systray.AddMenuItem("Select Language", "Target language for translations")
	picker := newLanguagePicker(cfg.Languages, cfg.Current, cfg.OnLanguage)
	picker.shown = current
	picker.onChange = func(code string) { systray.SetIcon(Icon(code)) }
	for _, code := range cfg.Languages {
		item := mLanguage.AddSubMenuItemCheckbox(prefs.DisplayName(code), code, false)
		picker.add(code, item)
		go func(code string, item *systray.MenuItem) {
			for range item.ClickedCh {
				picker.pick(code)
			}
		}(code, item)
	}
	picker.sync()
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Quit the translator")
	ready.Store(true)

	go func() {
		for {
			select {
			case <-mTranslate.ClickedCh:
				log.Printf("TRAY: translate clicked")
				if cfg.OnTranslate != nil {
					cfg.OnTranslate()
				}
			case <-mExit.ClickedCh:
				log.Printf("TRAY: exit clicked")
				systray.Quit()
				return
			}
		}
	}()
}

// checkable is the part of a menu item the picker drives.
type checkable interface {
	Check()
	Uncheck()
}

// languagePicker keeps exactly one language item checked.
type languagePicker struct {
	mu      sync.Mutex
	current func() string
	apply   func(string) error
	codes   []string
	items   map[string]checkable

	// onChange runs when the language in effect differs from shown.
	onChange func(code string)
	shown    string
}

func newLanguagePicker(codes []string, current func() string, apply func(string) error) *languagePicker {
	return &languagePicker{current: current, apply: apply, items: make(map[string]checkable, len(codes))}
}

func (p *languagePicker) add(code string, item checkable) {
	p.mu.Lock()
	p.codes = append(p.codes, code)
	p.items[code] = item
	p.mu.Unlock()
}

func (p *languagePicker) pick(code string) {
	if p.apply != nil {
		if err := p.apply(code); err != nil {
			log.Printf("TRAY: failed to select language %s: %v", code, err)
			p.sync()
			return
		}
	}
	log.Printf("TRAY: language set to %s", code)
	p.sync()
}

// sync checks the item matching the current language and unchecks the rest.
func (p *languagePicker) sync() {
	cur := ""
	if p.current != nil {
		cur = p.current()
	}
	p.mu.Lock()
	for _, code := range p.codes {
		if code == cur {
			p.items[code].Check()
		} else {
			p.items[code].Uncheck()
		}
	}
	changed := cur != p.shown
	p.shown = cur
	onChange := p.onChange
	p.mu.Unlock()

	if changed && onChange != nil {
		onChange(cur)
	}
}
