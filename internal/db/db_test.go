package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM persisted_values").Scan(&count); err != nil {
		t.Errorf("persisted_values: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestValues(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	if _, ok, err := d.GetValue(ctx, "prefs/theme"); err != nil || ok {
		t.Fatalf("GetValue on empty db = ok %v, err %v", ok, err)
	}

	if err := d.PutValue(ctx, "prefs/theme", "sepia"); err != nil {
		t.Fatalf("PutValue: %v", err)
	}
	if err := d.PutValue(ctx, "prefs/theme", "night"); err != nil {
		t.Fatalf("PutValue overwrite: %v", err)
	}
	if err := d.PutValue(ctx, "sidebar/expanded", "{}"); err != nil {
		t.Fatalf("PutValue: %v", err)
	}

	v, ok, err := d.GetValue(ctx, "prefs/theme")
	if err != nil || !ok || v != "night" {
		t.Errorf("GetValue = %q, %v, %v; want night", v, ok, err)
	}

	keys, err := d.Keys(ctx, "prefs/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "prefs/theme" {
		t.Errorf("Keys(prefs/) = %v", keys)
	}

	if err := d.DeleteValue(ctx, "prefs/theme"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, ok, _ := d.GetValue(ctx, "prefs/theme"); ok {
		t.Error("value should be gone after delete")
	}
	if err := d.DeleteValue(ctx, "prefs/theme"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestOpenFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "guidebook.db")
	ctx := context.Background()

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.PutValue(ctx, "k", "v"); err != nil {
		t.Fatalf("PutValue: %v", err)
	}
	d.Close()

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d2.Close()
	if v, ok, _ := d2.GetValue(ctx, "k"); !ok || v != "v" {
		t.Errorf("value after reopen = %q, %v", v, ok)
	}
	if d2.Path() != path {
		t.Errorf("Path() = %q", d2.Path())
	}
}
