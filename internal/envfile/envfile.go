// Package envfile reads and writes the stack's .env file, the key/value
// record consumed by docker compose variable substitution.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Mode is the permission every written record ends up with.
const Mode fs.FileMode = 0o600

// Record is an ordered set of KEY=value pairs.
type Record struct {
	keys []string
	vals map[string]string
}

// New returns an empty record.
func New() Record {
	return Record{vals: map[string]string{}}
}

// Get returns the value stored for key.
func (r Record) Get(key string) string {
	return r.vals[key]
}

// Lookup reports whether key is present.
func (r Record) Lookup(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Set stores value under key, keeping the position of an existing key.
func (r *Record) Set(key, value string) {
	if r.vals == nil {
		r.vals = map[string]string{}
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Record) Len() int {
	return len(r.keys)
}

// Map returns a copy of the record as a plain map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.vals))
	for k, v := range r.vals {
		m[k] = v
	}
	return m
}

// Exists reports whether a record file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CheckValue reports why v would not come back unchanged from Read or from
// compose's dotenv parser.
func CheckValue(v string) error {
	switch {
	case strings.ContainsAny(v, "\n\r"):
		return errors.New("value must not contain line breaks")
	case strings.TrimSpace(v) != v:
		return errors.New("value must not start or end with whitespace")
	case v != "" && (isQuote(v[0]) || isQuote(v[len(v)-1])):
		return errors.New("value must not start or end with a quote")
	case strings.Contains(v, " #") || strings.Contains(v, "\t#"):
		return errors.New("value must not contain whitespace followed by #")
	}
	return nil
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

// unquote strips one pair of matching surrounding quotes.
func unquote(v string) string {
	if len(v) >= 2 && isQuote(v[0]) && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// Read parses the file at path. Blank lines and comments are skipped, one
// pair of surrounding quotes is stripped from values.
func Read(path string) (Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer file.Close()

	rec := New()
	s := bufio.NewScanner(file)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := unquote(strings.TrimSpace(parts[1]))
		rec.Set(k, v)
	}
	if err := s.Err(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Write persists rec to path, one KEY=value per line. Lines of an existing
// file keep their position and comments; new keys are appended. The file
// is left readable by its owner only.
func Write(path string, rec Record) error {
	for _, k := range rec.keys {
		if err := CheckValue(rec.vals[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}

	var lines []string
	written := map[string]bool{}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		for _, line := range strings.Split(strings.TrimRight(string(existing), "\n"), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				lines = append(lines, line)
				continue
			}
			parts := strings.SplitN(trimmed, "=", 2)
			if len(parts) != 2 {
				lines = append(lines, line)
				continue
			}
			key := strings.TrimSpace(parts[0])
			if newVal, ok := rec.vals[key]; ok {
				lines = append(lines, key+"="+newVal)
				written[key] = true
			} else {
				lines = append(lines, line)
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}

	for _, k := range rec.keys {
		if !written[k] {
			lines = append(lines, k+"="+rec.vals[k])
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), Mode); err != nil {
		return err
	}
	// WriteFile only applies the mode on create.
	return os.Chmod(path, Mode)
}
