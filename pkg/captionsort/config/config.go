package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/tokenize"
)

// RunConfig holds the settings of one sorting run.
type RunConfig struct {
	GroupsDir      string   `yaml:"groups_dir"`
	BannedFile     string   `yaml:"banned_file"`
	GroupOrder     []string `yaml:"group_order"`
	KeepFirstN     int      `yaml:"keep_first_n"`
	Threshold      int64    `yaml:"threshold"`
	Workers        int      `yaml:"workers"` // 0 = one per CPU
	Tokenizer      string   `yaml:"tokenizer"`
	DecodeEntities bool     `yaml:"decode_entities"`
	ReportDB       string   `yaml:"report_db"`
}

// Default returns the built-in run configuration.
func Default() RunConfig {
	return RunConfig{
		GroupsDir:  "groups",
		BannedFile: "banned_tags.txt",
		GroupOrder: append([]string(nil), groups.DefaultOrder...),
		Threshold:  5,
		Tokenizer:  tokenize.DefaultEncoding,
	}
}

// LoadRunConfig loads a run configuration from a YAML file. Keys missing from
// the file keep their default values.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings no run can use.
func (c RunConfig) Validate() error {
	switch {
	case c.KeepFirstN < 0:
		return fmt.Errorf("keep_first_n %d: %w", c.KeepFirstN, internalerr.ErrInvalidConfig)
	case c.Threshold < 0:
		return fmt.Errorf("threshold %d: %w", c.Threshold, internalerr.ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("workers %d: %w", c.Workers, internalerr.ErrInvalidConfig)
	case len(c.GroupOrder) == 0:
		return fmt.Errorf("group_order is empty: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

// LoadTagList reads one tag per line, trimming whitespace and skipping blank
// lines.
func LoadTagList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tags = append(tags, line)
	}
	return tags, nil
}

// GroupDef is a group definition read from disk.
type GroupDef struct {
	Name string
	Path string
	Tags []string
}

// LoadGroupDir reads every *.txt file in dir as a group named after the file
// stem. Files are returned sorted by name.
func LoadGroupDir(dir string) ([]GroupDef, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var defs []GroupDef
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".txt" {
			continue
		}
		path := filepath.Join(dir, f.Name())
		tags, err := LoadTagList(path)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", f.Name(), err)
		}
		defs = append(defs, GroupDef{
			Name: strings.TrimSuffix(f.Name(), ".txt"),
			Path: path,
			Tags: tags,
		})
	}
	return defs, nil
}
