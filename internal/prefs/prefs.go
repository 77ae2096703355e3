package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

const defaultLanguage = "en"

type data struct {
	Language string `json:"language"`
}

// Store persists the selected display language across restarts. It is
// loaded explicitly at startup and injected where needed; there is no
// package-level instance.
type Store struct {
	mu   sync.Mutex
	path string
	data data
}

// Load reads preferences from path, falling back to defaults when the
// file does not exist yet.
func Load(path string) (*Store, error) {
	s := &Store{path: path, data: data{Language: defaultLanguage}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, err
	}
	if s.data.Language == "" {
		s.data.Language = defaultLanguage
	}
	return s, nil
}

func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Language
}

func (s *Store) SetLanguage(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Language = lang
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}
