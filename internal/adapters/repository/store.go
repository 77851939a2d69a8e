// Package repository persists named profiles and process-wide settings.
package repository

import (
	"context"
	"time"

	"github.com/okian/sect/internal/domain/profile"
)

// Setting keys shared by every Store.
const (
	// SettingCriteria holds the JSON encoded filter and sort criteria.
	SettingCriteria = "criteria"
	// SettingLastProfile holds the name of the most recently opened profile.
	SettingLastProfile = "last_profile"
)

// ProfileInfo describes a stored profile without loading its roster.
type ProfileInfo struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	Limit     int       `json:"limit"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store provides read/write access to persisted profiles.
type Store interface {
	// Load returns the snapshot saved under name.
	// Returns ErrNotFound if no profile has that name.
	Load(ctx context.Context, name string) (profile.Snapshot, error)

	// Save overwrites the snapshot stored under name.
	Save(ctx context.Context, name string, snap profile.Snapshot) error

	// List returns every stored profile ordered by name.
	List(ctx context.Context) ([]ProfileInfo, error)

	// Delete removes a profile. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error

	// Setting returns a process-wide value. Returns ErrNotFound if unset.
	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}
