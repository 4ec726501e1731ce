package captionsort

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/captionsort/internal/dataset"
	"github.com/cognicore/captionsort/pkg/captionsort/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func runOnDisk(t *testing.T, confDir, dataDir string) *Result {
	t.Helper()
	loader := &config.Loader{
		GroupsDir:  filepath.Join(confDir, "groups"),
		BannedPath: filepath.Join(confDir, "banned_tags.txt"),
	}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}
	entries, err := dataset.Load(dataDir, dataset.Options{})
	if err != nil {
		t.Fatalf("Load dataset: %v", err)
	}

	s := New(Options{
		Registry:  comp.Registry,
		Banned:    comp.Banned,
		Lengths:   wordLengths(nil),
		Threshold: 2,
		Writer:    dataset.FileWriter{},
	})
	res, err := s.Run(context.Background(), dataDir, entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunOnDiskIsIdempotent(t *testing.T) {
	confDir := t.TempDir()
	writeTree(t, confDir, map[string]string{
		"groups/hair_features.txt": "long hair\nblue hair\n",
		"groups/clothing.txt":      "dress\nstriped socks\n",
		"groups/background.txt":    "simple background\n",
		"groups/unsorted.txt":      "",
		"banned_tags.txt":          "watermark\n",
	})

	dataDir := t.TempDir()
	writeTree(t, dataDir, map[string]string{
		"001.txt":     "simple background, dress, watermark, long hair, rare tag\n",
		"002.txt":     "striped socks, dress, , blue hair, long hair, simple background",
		"sub/003.txt": "dress, striped socks, blue hair\n\nsecond line is ignored\n",
	})

	first := runOnDisk(t, confDir, dataDir)
	if first.Written != 3 {
		t.Fatalf("first run wrote %d files, want 3", first.Written)
	}
	if diff := cmp.Diff([]string{"rare tag"}, first.Pruned); diff != "" {
		t.Errorf("Pruned mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{
		"001.txt":     "long hair, dress, simple background",
		"002.txt":     "blue hair, long hair, striped socks, dress, simple background",
		"sub/003.txt": "blue hair, striped socks, dress",
	}
	afterFirst := readTree(t, dataDir)
	if diff := cmp.Diff(want, afterFirst); diff != "" {
		t.Errorf("first run output mismatch (-want +got):\n%s", diff)
	}

	second := runOnDisk(t, confDir, dataDir)
	if len(second.Pruned) != 0 || second.BannedRemoved != 0 || second.EmptyRemoved != 0 {
		t.Errorf("second run removed tags: pruned=%v banned=%d empty=%d",
			second.Pruned, second.BannedRemoved, second.EmptyRemoved)
	}
	if diff := cmp.Diff(afterFirst, readTree(t, dataDir)); diff != "" {
		t.Errorf("second run changed output (-first +second):\n%s", diff)
	}
}
