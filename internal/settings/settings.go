// Package settings owns the user-facing settings document of the shell:
// its value type, the protocol mapping codec and the on-disk store.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Known keys of the settings document. They are protocol identifiers.
const (
	KeyMenuBarVisible = "menuBarVisible"
	KeyHideScrollBar  = "hideScrollBar"
)

var (
	// ErrConfigCorrupt reports a settings file that exists but cannot be parsed.
	ErrConfigCorrupt = errors.New("settings file is corrupt")
	// ErrInvalidSettings reports an update payload missing a known key or carrying a wrong type.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrNotReady reports access to the store before Load completed.
	ErrNotReady = errors.New("settings not loaded")
)

// Settings is the flat settings mapping. Keys other than the two known ones
// are kept verbatim so newer shells can add options without older ones
// dropping them.
type Settings struct {
	// MenuBarVisible selects the native window chrome instead of the in-page title bar.
	MenuBarVisible bool
	// HideScrollBar suppresses scroll affordances.
	HideScrollBar bool

	extra map[string]json.RawMessage
}

// Defaults returns the canonical settings written when no file exists.
func Defaults() Settings {
	return Settings{MenuBarVisible: true, HideScrollBar: false}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	cp := s
	if s.extra != nil {
		cp.extra = make(map[string]json.RawMessage, len(s.extra))
		for k, v := range s.extra {
			cp.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return cp
}

// Equal reports whether both mappings hold the same keys and values.
func (s Settings) Equal(o Settings) bool {
	if s.MenuBarVisible != o.MenuBarVisible || s.HideScrollBar != o.HideScrollBar {
		return false
	}
	if len(s.extra) != len(o.extra) {
		return false
	}
	for k, v := range s.extra {
		ov, ok := o.extra[k]
		if !ok || !jsonEqual(v, ov) {
			return false
		}
	}
	return true
}

// Extra returns the sorted names of the preserved unknown keys.
func (s Settings) Extra() []string {
	out := make([]string, 0, len(s.extra))
	for k := range s.extra {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map renders the settings as a generic mapping, unknown keys included.
func (s Settings) Map() map[string]any {
	m := make(map[string]any, len(s.extra)+2)
	for k, raw := range s.extra {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			m[k] = v
		}
	}
	m[KeyMenuBarVisible] = s.MenuBarVisible
	m[KeyHideScrollBar] = s.HideScrollBar
	return m
}

// Decode validates a protocol mapping. Both known keys must be present and
// boolean; anything else is carried along untouched.
func Decode(m map[string]any) (Settings, error) {
	var s Settings
	var err error
	if s.MenuBarVisible, err = boolKey(m, KeyMenuBarVisible); err != nil {
		return Settings{}, err
	}
	if s.HideScrollBar, err = boolKey(m, KeyHideScrollBar); err != nil {
		return Settings{}, err
	}
	for k, v := range m {
		if k == KeyMenuBarVisible || k == KeyHideScrollBar {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: key %q: %v", ErrInvalidSettings, k, err)
		}
		if s.extra == nil {
			s.extra = make(map[string]json.RawMessage)
		}
		s.extra[k] = raw
	}
	return s, nil
}

func boolKey(m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok {
		return false, fmt.Errorf("%w: missing key %q", ErrInvalidSettings, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: key %q must be a boolean, got %T", ErrInvalidSettings, key, v)
	}
	return b, nil
}

// MarshalJSON writes the document with keys in sorted order.
func (s Settings) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(s.extra)+2)
	for k, v := range s.extra {
		doc[k] = v
	}
	doc[KeyMenuBarVisible] = boolRaw(s.MenuBarVisible)
	doc[KeyHideScrollBar] = boolRaw(s.HideScrollBar)
	return json.Marshal(doc)
}

// UnmarshalJSON parses a stored document. Known keys that are absent keep the
// receiver's current value; known keys of the wrong type are an error.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("settings document must be an object")
	}
	var extra map[string]json.RawMessage
	for k, raw := range doc {
		switch k {
		case KeyMenuBarVisible:
			v, err := rawBool(k, raw)
			if err != nil {
				return err
			}
			s.MenuBarVisible = v
		case KeyHideScrollBar:
			v, err := rawBool(k, raw)
			if err != nil {
				return err
			}
			s.HideScrollBar = v
		default:
			if extra == nil {
				extra = make(map[string]json.RawMessage)
			}
			extra[k] = raw
		}
	}
	s.extra = extra
	return nil
}

// rawBool accepts only the literals true and false. json.Unmarshal would
// leave the field untouched for null.
func rawBool(key string, raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("key %q must be true or false, got %s", key, raw)
	}
}

func boolRaw(b bool) json.RawMessage {
	if b {
		return json.RawMessage("true")
	}
	return json.RawMessage("false")
}

func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	ca, _ := json.Marshal(va)
	cb, _ := json.Marshal(vb)
	return bytes.Equal(ca, cb)
}
