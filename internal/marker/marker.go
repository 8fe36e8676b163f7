// Package marker replaces the region of a document delimited by two
// literal marker strings and handles the file I/O around it.
package marker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Find locates the first start marker and the first end marker after it.
// It returns the byte offsets of the whole span, markers included, and
// false when either marker is missing.
func Find(content, start, end string) (int, int, bool) {
	if start == "" || end == "" {
		return 0, 0, false
	}
	i := strings.Index(content, start)
	if i < 0 {
		return 0, 0, false
	}
	rest := i + len(start)
	j := strings.Index(content[rest:], end)
	if j < 0 {
		return 0, 0, false
	}
	return i, rest + j + len(end), true
}

// Splice replaces the first start..end span of content with the start
// marker, a newline, fragment, a newline and the end marker. Content
// outside the span is kept byte for byte. Without a complete marker pair
// content is returned unchanged and replaced is false.
func Splice(content, fragment, start, end string) (out string, replaced bool) {
	i, j, ok := Find(content, start, end)
	if !ok {
		return content, false
	}

	var b strings.Builder
	b.Grow(len(content) - (j - i) + len(start) + len(fragment) + len(end) + 2)
	b.WriteString(content[:i])
	b.WriteString(start)
	b.WriteString("\n")
	b.WriteString(fragment)
	b.WriteString("\n")
	b.WriteString(end)
	b.WriteString(content[j:])
	return b.String(), true
}

// ReadFile reads the whole target document. A missing file is reported
// with an error wrapping fs.ErrNotExist.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("target file %s: %w", path, fs.ErrNotExist)
		}
		return "", err
	}
	return string(data), nil
}

// WriteFileAtomic writes data to path via a temp file in the same
// directory and a rename. An existing file keeps its permissions; a new
// one gets 0644.
func WriteFileAtomic(path string, data []byte) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	perm := fs.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".calmark-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
