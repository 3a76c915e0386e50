package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func TestOpenAndTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gallery.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(db)

	if err := db.Create(&Image{PublicID: "g/a", Data: []byte("abc"), Size: 3, Format: "png"}).Error; err != nil {
		t.Fatal(err)
	}
	count, size, err := Totals(db)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 || size != 3 {
		t.Errorf("Totals = %d, %d", count, size)
	}
}

func TestCleaner_PrunesOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer Close(db)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"g/old", "g/mid", "g/new"} {
		img := Image{PublicID: id, Data: []byte{1}, Size: 1000, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := db.Create(&img).Error; err != nil {
			t.Fatal(err)
		}
	}

	var pruned []string
	c := &Cleaner{
		DB:    db,
		Path:  path,
		Limit: 2000,
		OnPrune: func(ids []string, _ int64) {
			pruned = append(pruned, ids...)
		},
	}

	if n := c.CheckAndPrune(context.Background()); n != 2 {
		t.Fatalf("pruned %d images, want 2", n)
	}
	if len(pruned) != 2 || pruned[0] != "g/old" || pruned[1] != "g/mid" {
		t.Errorf("pruned = %v", pruned)
	}

	var left []Image
	db.Find(&left)
	if len(left) != 1 || left[0].PublicID != "g/new" {
		t.Errorf("remaining = %+v", left)
	}
}

func TestCleaner_BelowLimitIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer Close(db)

	c := &Cleaner{DB: db, Path: path, Limit: 1 << 40}
	if n := c.CheckAndPrune(context.Background()); n != 0 {
		t.Errorf("pruned %d", n)
	}
}
