package config

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/cognicore/captionsort/pkg/captionsort/banlist"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
)

// Loader loads group definitions and the banned-tag list
type Loader struct {
	GroupsDir  string
	BannedPath string
	GroupOrder []string
	Logger     *zap.Logger
}

// Components holds the loaded, read-only inputs of a run
type Components struct {
	Registry *groups.Registry
	Banned   *banlist.Set
}

// Load reads all configured inputs. A missing groups directory or banned file
// is logged and treated as empty.
func (l *Loader) Load() (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	comp := &Components{
		Registry: groups.NewRegistry(l.GroupOrder, logger),
	}

	// Load banned tags
	var banned []string
	if l.BannedPath != "" {
		tags, err := LoadTagList(l.BannedPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("banned tag file not found, nothing will be banned", zap.String("path", l.BannedPath))
		case err != nil:
			return nil, fmt.Errorf("load banned tags: %w", err)
		default:
			banned = tags
		}
	}
	comp.Banned = banlist.New(banned)

	// Load groups
	if l.GroupsDir != "" {
		defs, err := LoadGroupDir(l.GroupsDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("groups directory not found, no groups loaded", zap.String("path", l.GroupsDir))
		case err != nil:
			return nil, fmt.Errorf("load groups: %w", err)
		default:
			for _, d := range defs {
				comp.Registry.Add(d.Name, d.Tags)
			}
		}
	}

	logger.Info("configuration loaded",
		zap.Int("groups", comp.Registry.Len()),
		zap.Int("banned", comp.Banned.Len()))
	return comp, nil
}
