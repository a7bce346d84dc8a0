// Package artifact writes generated images and models to the output directory.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/multierr"
)

const (
	stemTimeLayout = "20060102_150405"
	stemPromptLen  = 20
)

// Writer stores artifacts under a base directory.
type Writer struct {
	dir string
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores data as name inside the output directory and returns the
// full path. An existing file with the same name is overwritten.
func (w *Writer) Write(name string, data []byte) (path string, err error) {
	path = filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return path, nil
}

// Stem derives the shared file name prefix for one run's artifacts:
// the timestamp to the second followed by the first 20 characters of the
// prompt with anything other than letters and digits replaced by '_'.
// Two runs with the same prompt prefix in the same second share a stem.
func Stem(t time.Time, prompt string) string {
	var b strings.Builder
	b.WriteString(t.Format(stemTimeLayout))
	b.WriteByte('_')

	n := 0
	for _, r := range prompt {
		if n == stemPromptLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}

// ImageName is the image file name for a stem.
func ImageName(stem string) string { return stem + ".png" }

// ModelName is the 3D model file name for a stem.
func ModelName(stem string) string { return stem + ".glb" }
