package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"storefront/pkg/cache"
)

// Allowed variant widths. Anything else is rounded up to the next step so
// arbitrary widths cannot fill the cache.
var variantWidths = []int{300, 600, 900, 1200, 1400, 2000}

// Variants renders and caches resized JPEG copies of locally stored images.
type Variants struct {
	host  *Local
	cache cache.Store
	group singleflight.Group
}

func NewVariants(host *Local, store cache.Store) *Variants {
	if store == nil {
		store = cache.Noop{}
	}
	return &Variants{host: host, cache: store}
}

// SnapWidth rounds w up to the nearest allowed variant width.
func SnapWidth(w int) int {
	for _, step := range variantWidths {
		if w <= step {
			return step
		}
	}
	return variantWidths[len(variantWidths)-1]
}

// Get returns a JPEG no wider than width. Images already narrower are re-encoded
// without upscaling.
func (v *Variants) Get(ctx context.Context, publicID string, width int) ([]byte, error) {
	width = SnapWidth(width)
	key := fmt.Sprintf("variant:%d:%s", width, publicID)

	if data, ok := v.cache.Get(ctx, key); ok {
		return data, nil
	}

	res, err, _ := v.group.Do(key, func() (interface{}, error) {
		original, _, err := v.host.Original(ctx, publicID)
		if err != nil {
			return nil, err
		}
		data, err := resizeJPEG(original, width)
		if err != nil {
			return nil, err
		}
		v.cache.Set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// Forget drops every cached variant of publicID.
func (v *Variants) Forget(ctx context.Context, publicID string) {
	for _, w := range variantWidths {
		v.cache.Delete(ctx, fmt.Sprintf("variant:%d:%s", w, publicID))
	}
}

func resizeJPEG(original []byte, width int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, ErrUnsupported
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(82)); err != nil {
		return nil, fmt.Errorf("encode variant: %w", err)
	}
	return buf.Bytes(), nil
}
