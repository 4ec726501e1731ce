package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/cognicore/captionsort/pkg/captionsort/caption"
)

// CaptionExt is the extension of caption files.
const CaptionExt = ".txt"

// Options controls how captions are discovered and parsed.
type Options struct {
	// DecodeEntities unescapes HTML entities such as "&amp;" in every tag.
	DecodeEntities bool
	// Exclude lists files or directories to skip, e.g. the groups directory
	// when it lives inside the dataset.
	Exclude []string
	Logger  *zap.Logger
}

// Load walks root recursively and returns one entry per caption file, in
// lexical path order.
func Load(root string, opts Options) ([]*caption.Entry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset %s: not a directory", root)
	}

	skip := make(map[string]struct{}, len(opts.Exclude))
	for _, p := range opts.Exclude {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = struct{}{}
		}
	}

	var entries []*caption.Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs, err := filepath.Abs(path); err == nil {
			if _, ok := skip[abs]; ok {
				logger.Debug("skipping excluded path", zap.String("path", path))
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() || filepath.Ext(path) != CaptionExt {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read caption %s: %w", path, err)
		}
		id := strings.TrimSuffix(d.Name(), CaptionExt)
		e := caption.NewEntry(id, path, string(data))
		if opts.DecodeEntities {
			for i, tag := range e.RawTags {
				e.RawTags[i] = strings.TrimSpace(html.UnescapeString(tag))
			}
		}
		if len(e.RawTags) == 0 {
			logger.Warn("caption file has no tags", zap.String("path", path))
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("captions loaded", zap.String("root", root), zap.Int("entries", len(entries)))
	return entries, nil
}

// FileWriter overwrites caption files in place.
type FileWriter struct{}

// Write replaces the content of the entry's file with line. The new content is
// written to a temporary file in the same directory and renamed over the
// original, so a failed write leaves the old caption intact.
func (FileWriter) Write(e *caption.Entry, line string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(e.Path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.Path), "."+filepath.Base(e.Path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(line); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	if err := os.Rename(tmp.Name(), e.Path); err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	return nil
}
