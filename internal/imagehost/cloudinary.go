package imagehost

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryConfig holds the account credentials and target folder.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores gallery images on the Cloudinary CDN.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: strings.Trim(cfg.Folder, "/")}, nil
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) List(ctx context.Context, opts ListOptions) ([]Resource, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = folderPrefix(c.folder)
	}

	res, err := c.cld.Admin.Assets(ctx, admin.AssetsParams{
		AssetType:    "image",
		DeliveryType: "upload",
		Prefix:       prefix,
		MaxResults:   clampMax(opts.Max, 50, 500),
		Tags:         api.Bool(true),
		Context:      api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary list: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary list: %s", res.Error.Message)
	}

	out := make([]Resource, 0, len(res.Assets))
	for _, a := range res.Assets {
		out = append(out, Resource{
			PublicID:  a.PublicID,
			SecureURL: a.SecureURL,
			Width:     a.Width,
			Height:    a.Height,
			Format:    a.Format,
			Bytes:     int64(a.Bytes),
			CreatedAt: a.CreatedAt,
			Caption:   captionFrom(a.Context),
			Tags:      a.Tags,
		})
	}
	return out, nil
}

// captionFrom reads the caption stored at upload time from an asset's context
// metadata, which the Admin API returns as {"custom": {"caption": "..."}}.
func captionFrom(md api.Metadata) string {
	custom, ok := md["custom"].(map[string]interface{})
	if !ok {
		return ""
	}
	caption, _ := custom["caption"].(string)
	return caption
}

func (c *Cloudinary) Upload(ctx context.Context, u Upload) (Resource, error) {
	if u.File == nil {
		return Resource{}, ErrNoFile
	}

	params := uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "image",
	}
	if u.Caption != "" {
		params.Context = api.CldAPIMap{"caption": u.Caption}
	}
	if len(u.Tags) > 0 {
		params.Tags = api.CldAPIArray(u.Tags)
	}

	res, err := c.cld.Upload.Upload(ctx, u.File, params)
	if err != nil {
		return Resource{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Resource{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return Resource{
		PublicID:  res.PublicID,
		SecureURL: res.SecureURL,
		Width:     res.Width,
		Height:    res.Height,
		Format:    res.Format,
		Bytes:     int64(res.Bytes),
		CreatedAt: res.CreatedAt,
		Caption:   u.Caption,
		Tags:      u.Tags,
	}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	switch res.Result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("%s: %w", publicID, ErrNotFound)
	default:
		return fmt.Errorf("cloudinary destroy %s: unexpected result %q", publicID, res.Result)
	}
}
