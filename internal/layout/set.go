package layout

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Set is a registry of layouts keyed by case-insensitive name.
// It is safe for concurrent use.
type Set struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{layouts: make(map[string]*Layout)}
}

// LoadAll loads every file in paths into a new set.
func LoadAll(paths []string) (*Set, error) {
	s := NewSet()
	for _, p := range paths {
		l, err := Load(p)
		if err != nil {
			return nil, err
		}
		if err := s.Add(l); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return s, nil
}

// Add registers l. Names must be unique within the set.
func (s *Set) Add(l *Layout) error {
	key := strings.ToLower(l.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layouts[key]; exists {
		return fmt.Errorf("layout %q already registered", l.Name)
	}
	s.layouts[key] = l
	return nil
}

// Get returns the layout registered under name.
func (s *Set) Get(name string) (*Layout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layouts[strings.ToLower(name)]
	return l, ok
}

// Names returns the registered layout names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.layouts))
	for _, l := range s.layouts {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered layouts.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layouts)
}
