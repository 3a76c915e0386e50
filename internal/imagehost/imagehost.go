// Package imagehost abstracts the store that holds gallery photos. The
// cloudinary driver talks to the hosted CDN; the local driver keeps blobs in
// SQLite and serves them from /media.
package imagehost

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the target public id does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrNoFile is returned for an empty upload.
	ErrNoFile = errors.New("no file uploaded")
	// ErrUnsupported is returned when the upload is not a decodable image.
	ErrUnsupported = errors.New("unsupported image format")
)

// Resource is one hosted image as returned by List and Upload.
type Resource struct {
	PublicID  string    `json:"public_id"`
	SecureURL string    `json:"secure_url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format"`
	Bytes     int64     `json:"bytes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Caption   string    `json:"caption,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

type ListOptions struct {
	// Prefix restricts the listing to public ids under a folder.
	Prefix string
	Max    int
}

// Upload is one file accepted by the admin panel.
type Upload struct {
	File     io.Reader
	Filename string
	Caption  string
	Tags     []string
}

// Host is implemented by every image-host driver.
type Host interface {
	Name() string
	List(ctx context.Context, opts ListOptions) ([]Resource, error)
	Upload(ctx context.Context, u Upload) (Resource, error)
	Delete(ctx context.Context, publicID string) error
}

// folderPrefix normalizes a folder into a "folder/" prefix.
func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

func clampMax(n, def, ceiling int) int {
	if n <= 0 {
		n = def
	}
	if n > ceiling {
		n = ceiling
	}
	return n
}
