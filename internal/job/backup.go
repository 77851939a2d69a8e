// Package job runs scheduled maintenance tasks.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

// ErrNoSchedule is returned by StartBackup when the schedule is empty.
var ErrNoSchedule = errors.New("backup schedule is empty")

// Backup writes every stored profile to a directory as an export document.
type Backup struct {
	store  repository.Store
	dir    string
	now    func() time.Time
	logger logger.Logger
}

// NewBackup creates a backup task writing into dir.
func NewBackup(store repository.Store, dir string) *Backup {
	return &Backup{store: store, dir: dir, now: time.Now, logger: logger.Named("backup")}
}

// WithClock replaces the clock used to stamp file names.
func (b *Backup) WithClock(now func() time.Time) *Backup {
	b.now = now
	return b
}

// Run exports all profiles once and returns the files written.
// A profile that fails does not stop the others.
func (b *Backup) Run(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(b.dir, 0o750); err != nil {
		metrics.RecordBackup("error")
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	infos, err := b.store.List(ctx)
	if err != nil {
		metrics.RecordBackup("error")
		return nil, err
	}

	stamp := b.now().UTC().Format("20060102T150405Z")
	var (
		written []string
		errs    []error
	)
	for _, info := range infos {
		path, err := b.write(ctx, info.Name, stamp)
		if err != nil {
			errs = append(errs, fmt.Errorf("backup %s: %w", info.Name, err))
			continue
		}
		written = append(written, path)
	}

	if err := errors.Join(errs...); err != nil {
		metrics.RecordBackup("error")
		return written, err
	}
	metrics.RecordBackup("ok")
	return written, nil
}

func (b *Backup) write(ctx context.Context, name, stamp string) (string, error) {
	snap, err := b.store.Load(ctx, name)
	if err != nil {
		return "", err
	}
	data, err := profile.Marshal(snap)
	if err != nil {
		return "", err
	}
	path := filepath.Join(b.dir, fmt.Sprintf("%s-%s.json", fileSafe(name), stamp))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", err
	}
	return path, nil
}

// fileSafe replaces characters that cannot appear in a file name.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// StartBackup schedules b on a cron spec with a seconds field and stops it when ctx ends.
func StartBackup(ctx context.Context, schedule string, b *Backup) (*cron.Cron, error) {
	if strings.TrimSpace(schedule) == "" {
		return nil, ErrNoSchedule
	}
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		files, err := b.Run(ctx)
		if err != nil {
			b.logger.Error(ctx, "backup failed", logger.Error(err), logger.Int("written", len(files)))
			return
		}
		b.logger.Info(ctx, "backup written", logger.Int("profiles", len(files)), logger.String("dir", b.dir))
	})
	if err != nil {
		return nil, fmt.Errorf("parse backup schedule %q: %w", schedule, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
