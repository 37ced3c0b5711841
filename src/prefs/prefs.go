// Package prefs holds the user's target-language choice and persists it
// across restarts.
package prefs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const lastLanguageKey = "LAST_SELECTED_LANGUAGE"

// SupportedLanguages are the targets offered in the language menu.
var SupportedLanguages = []string{"it", "es", "fr", "de", "en"}

// DisplayName returns the language's own name for code, e.g. "Italiano".
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.Self.Name(tag)
	if name == "" {
		return code
	}
	return cases.Title(tag).String(name)
}

// Store persists key/value state in a dotenv-format file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store { return &Store{path: path} }

// LoadLanguage returns the persisted language, or "" when none was saved.
func (s *Store) LoadLanguage() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(values[lastLanguageKey]), nil
}

// SaveLanguage persists code, keeping any other keys already in the file.
func (s *Store) SaveLanguage(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[lastLanguageKey] = code

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := godotenv.Write(values, s.path); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return values, nil
}

// Language is the current target language. It may be changed at any time
// from the tray while runs read it.
type Language struct {
	mu      sync.RWMutex
	current string
	store   *Store
}

// NewLanguage starts from the persisted choice if there is one, else from
// fallback. store may be nil.
func NewLanguage(store *Store, fallback string) *Language {
	l := &Language{current: fallback, store: store}
	if store == nil {
		return l
	}
	saved, err := store.LoadLanguage()
	if err != nil {
		log.Printf("PREFS: %v", err)
		return l
	}
	if saved != "" {
		l.current = saved
	}
	return l
}

// Current returns the language code in effect.
func (l *Language) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Set switches the target language and persists it. The in-memory value is
// updated even if persisting fails.
func (l *Language) Set(code string) error {
	l.mu.Lock()
	l.current = code
	l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	return l.store.SaveLanguage(code)
}
