package configure

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// PatchINI sets values in a PHP ini file. Existing "key = value" lines are
// rewritten in place, missing keys are appended in sorted order, and all
// other lines are kept. The file is created when absent.
func PatchINI(path string, values map[string]string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	seen := make(map[string]bool, len(values))
	var lines []string
	s := bufio.NewScanner(bytes.NewReader(content))
	for s.Scan() {
		line := s.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "[") {
			lines = append(lines, line)
			continue
		}
		key, _, ok := strings.Cut(trimmed, "=")
		key = strings.TrimSpace(key)
		v, known := values[key]
		if !ok || !known {
			lines = append(lines, line)
			continue
		}
		if seen[key] {
			// drop duplicates so the last assignment cannot override ours
			continue
		}
		lines = append(lines, key+" = "+v)
		seen[key] = true
	}
	if err := s.Err(); err != nil {
		return err
	}

	var missing []string
	for k := range values {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	for _, k := range missing {
		lines = append(lines, k+" = "+values[k])
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), mode)
}
