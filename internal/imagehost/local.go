package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Support GIF
	_ "image/jpeg" // Support JPEG
	_ "image/png"  // Support PNG
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Support WEBP
	"gorm.io/gorm"

	"storefront/internal/database"
)

// MaxConcurrentWrites bounds queued SQLite write transactions.
const MaxConcurrentWrites = 10

type LocalConfig struct {
	Folder string
	// BaseURL prefixes /media URLs in listings (e.g., https://example.com).
	BaseURL string
	// MaxBytes caps a single upload read. Zero disables the cap.
	MaxBytes int64
}

// Local keeps gallery images in the SQLite blob store.
type Local struct {
	db      *gorm.DB
	folder  string
	baseURL string
	max     int64

	// writeGuard queues writers in Go instead of on the SQLite file lock.
	writeGuard chan struct{}
}

func NewLocal(db *gorm.DB, cfg LocalConfig) *Local {
	return &Local{
		db:         db,
		folder:     strings.Trim(cfg.Folder, "/"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		max:        cfg.MaxBytes,
		writeGuard: make(chan struct{}, MaxConcurrentWrites),
	}
}

func (l *Local) Name() string { return "local" }

// MediaURL is the public address of an original.
func (l *Local) MediaURL(publicID string) string {
	return l.baseURL + "/media/" + publicID
}

func (l *Local) toResource(img database.Image) Resource {
	r := Resource{
		PublicID:  img.PublicID,
		SecureURL: l.MediaURL(img.PublicID),
		Width:     img.Width,
		Height:    img.Height,
		Format:    img.Format,
		Bytes:     img.Size,
		CreatedAt: img.CreatedAt.UTC(),
		Caption:   img.Caption,
	}
	if img.Tags != "" {
		r.Tags = strings.Split(img.Tags, ",")
	}
	return r
}

func (l *Local) List(ctx context.Context, opts ListOptions) ([]Resource, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = folderPrefix(l.folder)
	}

	var images []database.Image
	q := l.db.WithContext(ctx).
		Select("public_id, width, height, format, size, caption, tags, created_at").
		Order("created_at DESC").
		Limit(clampMax(opts.Max, 50, 500))
	if prefix != "" {
		q = q.Where("public_id LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	if err := q.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("local list: %w", err)
	}

	out := make([]Resource, 0, len(images))
	for _, img := range images {
		out = append(out, l.toResource(img))
	}
	return out, nil
}

func (l *Local) Upload(ctx context.Context, u Upload) (Resource, error) {
	if u.File == nil {
		return Resource{}, ErrNoFile
	}

	reader := u.File
	if l.max > 0 {
		reader = io.LimitReader(u.File, l.max+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return Resource{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Resource{}, ErrNoFile
	}
	if l.max > 0 && int64(len(data)) > l.max {
		return Resource{}, fmt.Errorf("upload exceeds %d bytes", l.max)
	}

	dcfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Resource{}, ErrUnsupported
	}

	img := database.Image{
		PublicID:  folderPrefix(l.folder) + uuid.New().String(),
		Data:      data,
		Width:     dcfg.Width,
		Height:    dcfg.Height,
		Format:    format,
		Size:      int64(len(data)),
		Caption:   u.Caption,
		Tags:      strings.Join(u.Tags, ","),
		CreatedAt: time.Now().UTC(),
	}

	select {
	case l.writeGuard <- struct{}{}:
	case <-ctx.Done():
		return Resource{}, ctx.Err()
	}
	defer func() { <-l.writeGuard }()

	if err := l.db.WithContext(ctx).Create(&img).Error; err != nil {
		return Resource{}, fmt.Errorf("save image: %w", err)
	}
	return l.toResource(img), nil
}

func (l *Local) Delete(ctx context.Context, publicID string) error {
	select {
	case l.writeGuard <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.writeGuard }()

	res := l.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&database.Image{})
	if res.Error != nil {
		return fmt.Errorf("delete image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", publicID, ErrNotFound)
	}
	return nil
}

// Original returns the stored bytes and format of one image.
func (l *Local) Original(ctx context.Context, publicID string) ([]byte, string, error) {
	var img database.Image
	err := l.db.WithContext(ctx).
		Select("data, format").
		Where("public_id = ?", publicID).
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return img.Data, img.Format, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
