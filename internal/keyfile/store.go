package keyfile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ListSeparator separates elements of list-valued keys (e.g. "a;b;c").
const ListSeparator = ";"

// Store is an ordered, section-structured key-value store backed by an
// INI keyfile. Section and key order is preserved across load and
// serialize, and every key can carry a human-readable comment.
type Store struct {
	file *ini.File
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		// The list separator is ';', which must not start an inline
		// comment.
		IgnoreInlineComment: true,
	}
}

// New creates an empty store.
func New() *Store {
	return &Store{file: ini.Empty(loadOptions())}
}

// Parse parses keyfile data. A syntax error makes the whole store
// unusable; callers treat that as a hard parse failure and keep their
// previous configuration.
func Parse(data []byte) (*Store, error) {
	f, err := ini.LoadSources(loadOptions(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse keyfile: %w", err)
	}
	return &Store{file: f}, nil
}

// ParseFile reads and parses the keyfile at path.
func ParseFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}
	return Parse(data)
}

// Bytes serializes the store, comments included.
func (s *Store) Bytes() []byte {
	var buf bytes.Buffer
	// WriteTo on an in-memory file cannot fail.
	_, _ = s.file.WriteTo(&buf)
	return buf.Bytes()
}

// WriteFile atomically writes the serialized store to path, creating
// parent directories as needed. A temporary file plus rename prevents a
// crash from leaving a torn keyfile behind.
func (s *Store) WriteFile(path string) error {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, s.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write temporary keyfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save keyfile: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// Sections returns every named section in file order.
func (s *Store) Sections() []string {
	names := s.file.SectionStrings()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == ini.DefaultSection {
			continue
		}
		out = append(out, n)
	}
	return out
}

// HasSection reports whether the named section exists.
func (s *Store) HasSection(section string) bool {
	_, err := s.file.GetSection(section)
	return err == nil
}

// HasKey reports whether the key exists in the section.
func (s *Store) HasKey(section, key string) bool {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return false
	}
	return sec.HasKey(key)
}

func (s *Store) raw(section, key string) (string, bool) {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return "", false
	}
	if !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// SetString writes a string value with an accompanying comment.
func (s *Store) SetString(section, key, value, comment string) {
	k := s.file.Section(section).Key(key)
	k.SetValue(value)
	k.Comment = comment
}

// SetInt writes an integer value with an accompanying comment.
func (s *Store) SetInt(section, key string, value int, comment string) {
	s.SetString(section, key, strconv.Itoa(value), comment)
}

// SetBool writes a boolean value with an accompanying comment.
func (s *Store) SetBool(section, key string, value bool, comment string) {
	s.SetString(section, key, strconv.FormatBool(value), comment)
}

// SetFloat writes a float value with an accompanying comment.
func (s *Store) SetFloat(section, key string, value float64, comment string) {
	s.SetString(section, key, strconv.FormatFloat(value, 'g', -1, 64), comment)
}

// SetList writes a list value ("a;b;c") with an accompanying comment.
func (s *Store) SetList(section, key string, values []string, comment string) {
	s.SetString(section, key, strings.Join(values, ListSeparator), comment)
}

// SetSectionComment attaches a comment to the section header itself.
func (s *Store) SetSectionComment(section, comment string) {
	s.file.Section(section).Comment = comment
}
