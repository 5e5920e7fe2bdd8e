package store

import (
	"reflect"

	"github.com/roach88/gpos/internal/model"
)

// Setting returns the value stored under key.
func (s *Store) Setting(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.Settings[key]
	return v, ok
}

// Settings returns a copy of all settings.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings.Clone()
}

// TaxRate returns the current tax rate setting (see model.Settings.TaxRate).
func (s *Store) TaxRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings.TaxRate()
}

// SetSetting stores value under key. Integer values are stored as float64
// so they keep their type across a save and load. Setting a key to its
// current value does not dirty the store.
func (s *Store) SetSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value)
}

// SetSettings stores every entry of values.
func (s *Store) SetSettings(values model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.setLocked(k, v)
	}
}

func (s *Store) setLocked(key string, value any) {
	value = normalizeSetting(value)
	if old, ok := s.state.Settings[key]; ok && reflect.DeepEqual(old, value) {
		return
	}
	if s.state.Settings == nil {
		s.state.Settings = model.Settings{}
	}
	s.state.Settings[key] = value
	s.markDirtyLocked()
}

func normalizeSetting(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
