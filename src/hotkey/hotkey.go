// Package hotkey fires a callback when a configured key combination is held
// down, using a global keyboard hook.
package hotkey

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Combo is a parsed hotkey such as "Ctrl+Alt+T". Each key lists the virtual
// key codes that satisfy it (both sides for modifiers).
type Combo struct {
	Spec string
	Keys []Key
}

type Key struct {
	Name     string
	Rawcodes []uint16
}

// Parse normalizes spec and resolves every key. Unknown key names are an
// error so a typo in HOTKEY is reported at startup.
func Parse(spec string) (Combo, error) {
	names := parseHotkey(spec)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("empty hotkey")
	}
	c := Combo{Spec: spec}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return Combo{}, fmt.Errorf("unknown key %q in hotkey %q", name, spec)
		}
		c.Keys = append(c.Keys, Key{Name: name, Rawcodes: codes})
	}
	return c, nil
}

// Listen starts the global hook and calls fn every time the whole combo is
// pressed. It returns once the hook is running; the hook stops when ctx ends.
func Listen(ctx context.Context, spec string, fn func()) error {
	combo, err := Parse(spec)
	if err != nil {
		return err
	}

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("global keyboard hook unavailable")
	}
	log.Printf("HOTKEY: listening for %s", combo.Spec)

	m := newMatcher(combo)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("HOTKEY: panic in hook loop: %v", r)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				gohook.End()
				log.Printf("HOTKEY: hook stopped")
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("HOTKEY: event channel closed")
					return
				}
				switch ev.Kind {
				case gohook.KeyDown, gohook.KeyHold:
					if m.keyDown(ev.Rawcode) {
						log.Printf("HOTKEY: %s pressed", combo.Spec)
						if fn != nil {
							fn()
						}
					}
				case gohook.KeyUp:
					m.keyUp(ev.Rawcode)
				}
			}
		}
	}()
	return nil
}

// matcher tracks which combo keys are currently held.
type matcher struct {
	mu      sync.Mutex
	combo   Combo
	pressed []bool
	fired   bool
}

func newMatcher(c Combo) *matcher {
	return &matcher{combo: c, pressed: make([]bool, len(c.Keys))}
}

// keyDown returns true when raw completes the combo. Auto-repeat while the
// combo stays held does not fire again.
func (m *matcher) keyDown(raw uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(raw, true)
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	if m.fired {
		return false
	}
	m.fired = true
	return true
}

func (m *matcher) keyUp(raw uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set(raw, false) {
		m.fired = false
	}
}

func (m *matcher) set(raw uint16, down bool) bool {
	hit := false
	for i, k := range m.combo.Keys {
		for _, code := range k.Rawcodes {
			if code == raw {
				m.pressed[i] = down
				hit = true
			}
		}
	}
	return hit
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names.
func parseHotkey(spec string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(spec), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

var namedKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":       {32},
	"enter":       {13},
	"return":      {13},
	"esc":         {27},
	"escape":      {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"del":         {46},
	"insert":      {45},
	"ins":         {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33},
	"pgup":        {33},
	"pagedown":    {34},
	"pgdn":        {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44},
	"prtsc":       {44},
}

// keyNameToRawcodes maps a key name to its Windows virtual key codes.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	if codes, ok := namedKeys[name]; ok {
		return codes
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16('A' + c - 'a')}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)}
		}
	}
	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}
	return nil
}
