package imagehost

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close(db) })
	return NewLocal(db, LocalConfig{Folder: "wj/gallery", BaseURL: "http://localhost:5050/", MaxBytes: 1 << 20})
}

func TestLocal_UploadListDelete(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	first, err := l.Upload(ctx, Upload{File: bytes.NewReader(pngBytes(t, 40, 20)), Caption: "Oak door", Tags: []string{"doors", "oak"}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(first.PublicID, "wj/gallery/") {
		t.Errorf("public id = %q", first.PublicID)
	}
	if first.SecureURL != "http://localhost:5050/media/"+first.PublicID {
		t.Errorf("url = %q", first.SecureURL)
	}
	if first.Width != 40 || first.Height != 20 || first.Format != "png" {
		t.Errorf("meta = %+v", first)
	}

	time.Sleep(5 * time.Millisecond)
	second, err := l.Upload(ctx, Upload{File: bytes.NewReader(pngBytes(t, 10, 10))})
	if err != nil {
		t.Fatal(err)
	}

	list, err := l.List(ctx, ListOptions{Max: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("list len = %d", len(list))
	}
	if list[0].PublicID != second.PublicID {
		t.Errorf("list not newest first: %v", list)
	}
	if list[1].Caption != "Oak door" || len(list[1].Tags) != 2 {
		t.Errorf("caption/tags lost: %+v", list[1])
	}

	if err := l.Delete(ctx, first.PublicID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := l.Delete(ctx, first.PublicID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, _, err := l.Original(ctx, first.PublicID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Original after delete err = %v", err)
	}
}

func TestLocal_ListScopedToFolder(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	if err := l.db.Create(&database.Image{PublicID: "other/x", Data: []byte{1}, Size: 1}).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := l.Upload(ctx, Upload{File: bytes.NewReader(pngBytes(t, 4, 4))}); err != nil {
		t.Fatal(err)
	}
	list, err := l.List(ctx, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("folder scoping failed: %v", list)
	}
}

func TestLocal_UploadRejects(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	if _, err := l.Upload(ctx, Upload{}); !errors.Is(err, ErrNoFile) {
		t.Errorf("nil file err = %v", err)
	}
	if _, err := l.Upload(ctx, Upload{File: bytes.NewReader(nil)}); !errors.Is(err, ErrNoFile) {
		t.Errorf("empty file err = %v", err)
	}
	if _, err := l.Upload(ctx, Upload{File: strings.NewReader("plain text, not an image")}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("text file err = %v", err)
	}
}

func TestVariants_ResizeAndCache(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	res, err := l.Upload(ctx, Upload{File: bytes.NewReader(pngBytes(t, 1000, 500))})
	if err != nil {
		t.Fatal(err)
	}

	store := cache.NewMemory(cache.Options{MaxCapacityMB: 4, TTL: time.Minute, MaxItemBytes: 1 << 20})
	defer store.Close()
	v := NewVariants(l, store)

	data, err := v.Get(ctx, res.PublicID, 580)
	if err != nil {
		t.Fatal(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" || cfg.Width != 600 || cfg.Height != 300 {
		t.Errorf("variant = %s %dx%d", format, cfg.Width, cfg.Height)
	}
	if store.Len() != 1 {
		t.Errorf("variant not cached, len = %d", store.Len())
	}

	// Narrower originals are not upscaled.
	data, err = v.Get(ctx, res.PublicID, 1400)
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, _ = image.DecodeConfig(bytes.NewReader(data))
	if cfg.Width != 1000 {
		t.Errorf("upscaled to %d", cfg.Width)
	}

	v.Forget(ctx, res.PublicID)
	if store.Len() != 0 {
		t.Errorf("Forget left %d entries", store.Len())
	}

	if _, err := v.Get(ctx, "wj/gallery/missing", 600); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing variant err = %v", err)
	}
}

func TestSnapWidth(t *testing.T) {
	cases := map[int]int{1: 300, 300: 300, 301: 600, 900: 900, 1300: 1400, 5000: 2000}
	for in, want := range cases {
		if got := SnapWidth(in); got != want {
			t.Errorf("SnapWidth(%d) = %d, want %d", in, got, want)
		}
	}
}
