package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlagStoreSetGetClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")

	store, err := NewFileFlagStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Get(ShowHotelRegistration) {
		t.Error("flag should default to false")
	}

	if err := store.Set(ShowHotelRegistration, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !store.Get(ShowHotelRegistration) {
		t.Error("flag should be set")
	}

	if err := store.ClearFlag(ShowHotelRegistration); err != nil {
		t.Fatalf("ClearFlag failed: %v", err)
	}
	if store.Get(ShowHotelRegistration) {
		t.Error("flag should be cleared")
	}
}

func TestFlagStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")

	store, err := NewFileFlagStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set(ShowHotelRegistration, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := NewFileFlagStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !reopened.Get(ShowHotelRegistration) {
		t.Error("flag should survive a reopen")
	}
}

func TestFlagStoreCreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "flags.json")

	store, err := NewFileFlagStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set(ShowHotelRegistration, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestFlagStoreRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileFlagStore("  "); err == nil {
		t.Error("expected error for an empty path")
	}
}

func TestFlagStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileFlagStore(path); err == nil {
		t.Error("expected error for a corrupt state file")
	}
}
