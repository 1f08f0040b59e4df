package keyfile

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lumenshell/lumen/internal/logging"
)

// Check is a validation constraint applied by the typed getters. A value
// that fails any check is treated the same as a missing or malformed
// one: the getter logs a warning and reports no value, and the caller
// keeps its previous or default value.
type Check int

const (
	// NonNegative rejects values < 0.
	NonNegative Check = iota + 1
	// Positive rejects values <= 0.
	Positive
	// NonZero rejects exactly 0 (negative values pass).
	NonZero
	// FileExists rejects strings that do not name an existing file.
	// A "file://" prefix is stripped before the check.
	FileExists
)

func checkInt(v int, c Check) (ok bool, reason string) {
	switch c {
	case NonNegative:
		if v < 0 {
			return false, fmt.Sprintf("value %d must not be negative", v)
		}
	case Positive:
		if v <= 0 {
			return false, fmt.Sprintf("value %d must be positive", v)
		}
	case NonZero:
		if v == 0 {
			return false, "value must not be zero"
		}
	}
	return true, ""
}

// Int returns the integer value of section/key, or ok=false when the key
// is missing, not an integer, or fails a check.
func (s *Store) Int(section, key string, checks ...Check) (int, bool) {
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logging.FieldWarning(section, key, fmt.Sprintf("%q is not an integer", raw))
		return 0, false
	}
	for _, c := range checks {
		if ok, reason := checkInt(v, c); !ok {
			logging.FieldWarning(section, key, reason)
			return 0, false
		}
	}
	return v, true
}

// Bool returns the boolean value of section/key ("true"/"false", plus
// the usual strconv spellings), or ok=false on a missing or malformed
// key.
func (s *Store) Bool(section, key string) (bool, bool) {
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return false, false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		logging.FieldWarning(section, key, fmt.Sprintf("%q is not a boolean", raw))
		return false, false
	}
	return v, true
}

// Float returns the float value of section/key, or ok=false on a missing
// or malformed key.
func (s *Store) Float(section, key string) (float64, bool) {
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logging.FieldWarning(section, key, fmt.Sprintf("%q is not a number", raw))
		return 0, false
	}
	return v, true
}

// String returns the string value of section/key, or ok=false when the
// key is missing or fails a check (FileExists is the only check that
// applies to strings).
func (s *Store) String(section, key string, checks ...Check) (string, bool) {
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return "", false
	}
	for _, c := range checks {
		if c != FileExists {
			continue
		}
		path := strings.TrimPrefix(raw, "file://")
		if _, err := os.Stat(path); err != nil {
			logging.FieldWarning(section, key, fmt.Sprintf("file %q does not exist", path))
			return "", false
		}
	}
	return raw, true
}

// StringList returns the list value of section/key split on the list
// separator, with empty elements dropped. ok=false only when the key
// itself is missing.
func (s *Store) StringList(section, key string) ([]string, bool) {
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return nil, false
	}
	parts := strings.Split(raw, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// legalNicknames renders the sorted nickname set of an enum table for
// warning messages.
func legalNicknames[T comparable](table map[string]T) string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Enum returns the enum value whose nickname is stored at section/key.
// An unknown nickname is a validation failure whose warning lists every
// legal nickname.
func Enum[T comparable](s *Store, section, key string, table map[string]T) (T, bool) {
	var zero T
	raw, found := s.raw(section, key)
	if !found {
		logging.FieldWarning(section, key, "key not found")
		return zero, false
	}
	nick := strings.TrimSpace(raw)
	v, ok := table[nick]
	if !ok {
		logging.FieldWarning(section, key,
			fmt.Sprintf("unknown value %q, legal values are: %s", nick, legalNicknames(table)))
		return zero, false
	}
	return v, true
}

// EnumList returns the list of enum values stored at section/key.
// The getter is all-or-nothing: a single unknown nickname, or (when
// distinct is set) a duplicate element, invalidates the whole call.
func EnumList[T comparable](s *Store, section, key string, table map[string]T, distinct bool) ([]T, bool) {
	raw, ok := s.StringList(section, key)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, nick := range raw {
		v, found := table[nick]
		if !found {
			logging.FieldWarning(section, key,
				fmt.Sprintf("unknown value %q, legal values are: %s", nick, legalNicknames(table)))
			return nil, false
		}
		if distinct && seen[nick] {
			logging.FieldWarning(section, key, fmt.Sprintf("duplicate value %q", nick))
			return nil, false
		}
		seen[nick] = true
		out = append(out, v)
	}
	return out, true
}
