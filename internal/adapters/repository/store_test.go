package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/pkg/logger"
)

func init() { _ = logger.Init() }

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

// stores returns every Store implementation, each freshly created.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	sqlite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "sect.db"), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(WithClock(fixedClock())),
		"sqlite": sqlite,
	}
}

func sample() profile.Snapshot {
	s := profile.New(10)
	s.Disciples = []model.Disciple{
		{ID: "a", ImageHash: "h1", Name: "Lâm Phong", Verdict: model.VerdictRecruit, Role: model.RoleDPS, Score: 88,
			Traits: []model.Trait{{Name: "Kiếm Tâm", IsPositive: true, Tier: model.TierS}}},
		{ID: "b", Name: "Tô Vân", Verdict: model.VerdictReject, Role: model.RoleFodder, Score: 12, Traits: []model.Trait{}},
	}
	s.Instruction = "custom"
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Load(ctx, "main"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := store.Save(ctx, "main", sample()); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load(ctx, " main ")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Limit != 10 || got.Instruction != "custom" || len(got.Disciples) != 2 {
				t.Errorf("unexpected snapshot: %+v", got)
			}
			if got.Disciples[0].ImageHash != "h1" || got.Disciples[0].Traits[0].Name != "Kiếm Tâm" {
				t.Errorf("record not preserved: %+v", got.Disciples[0])
			}

			// Overwrite keeps one row.
			next := profile.New(3)
			if err := store.Save(ctx, "main", next); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = store.Load(ctx, "main")
			if err != nil {
				t.Fatalf("load after overwrite: %v", err)
			}
			if got.Limit != 3 || len(got.Disciples) != 0 || got.Instruction != analysis.DefaultInstruction {
				t.Errorf("overwrite not applied: %+v", got)
			}
		})
	}
}

func TestStore_ListDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, n := range []string{"beta", "alpha"} {
				if err := store.Save(ctx, n, sample()); err != nil {
					t.Fatalf("save %s: %v", n, err)
				}
			}

			infos, err := store.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Name != "alpha" || infos[1].Name != "beta" {
				t.Fatalf("unexpected list: %+v", infos)
			}
			if infos[0].Size != 2 || infos[0].Limit != 10 {
				t.Errorf("unexpected info: %+v", infos[0])
			}
			if !infos[0].UpdatedAt.Equal(fixedClock()()) {
				t.Errorf("expected updatedAt %v, got %v", fixedClock()(), infos[0].UpdatedAt)
			}

			if err := store.Delete(ctx, "alpha"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, "alpha"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound on second delete, got %v", err)
			}
			infos, _ = store.List(ctx)
			if len(infos) != 1 {
				t.Errorf("expected 1 profile, got %d", len(infos))
			}
		})
	}
}

func TestStore_InvalidName(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Save(ctx, "  ", sample()); !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
			if _, err := store.Load(ctx, ""); !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestStore_Settings(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Setting(ctx, SettingCriteria); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := store.SetSetting(ctx, SettingCriteria, `{"verdict":"ALL"}`); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.SetSetting(ctx, SettingCriteria, `{"verdict":"REJECT"}`); err != nil {
				t.Fatalf("set again: %v", err)
			}
			v, err := store.Setting(ctx, SettingCriteria)
			if err != nil || v != `{"verdict":"REJECT"}` {
				t.Errorf("unexpected setting %q, %v", v, err)
			}
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sect.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(ctx, "main", sample()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.SetSetting(ctx, SettingLastProfile, "main"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, err := second.Load(ctx, "main")
	if err != nil || len(got.Disciples) != 2 {
		t.Fatalf("expected persisted roster, got %+v, %v", got, err)
	}
	if v, _ := second.Setting(ctx, SettingLastProfile); v != "main" {
		t.Errorf("expected last profile main, got %q", v)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Close()
	if err := s.Save(ctx, "main", sample()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
