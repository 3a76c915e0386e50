package handlers

import (
	"context"

	"storefront/internal/appinfo"
	"storefront/internal/enquiry"
	"storefront/internal/gallery"
	"storefront/internal/imagehost"
	"storefront/internal/notify"
)

const (
	DefaultMaxUploadSize = 10 << 20 // 10 MB
	DefaultAdminLimit    = 100
	MaxCaptionLength     = 200
	maxContactBody       = 64 << 10
)

// Notifier relays a legitimate enquiry. *notify.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, e enquiry.Enquiry) (notify.Result, error)
}

// Deps are the collaborators built once at start-up.
type Deps struct {
	Classifier *enquiry.Classifier
	Notifier   Notifier
	Gallery    *gallery.Service
	Host       imagehost.Host
	Counters   *appinfo.Counters

	// Local and Variants are set only for the local image driver.
	Local    *imagehost.Local
	Variants *imagehost.Variants
}

type Options struct {
	MaxUploadBytes int64
	MaxUploadSize  string
	AdminLimit     int
	StaticDir      string
}

// Handler serves every HTTP route of the storefront.
type Handler struct {
	deps Deps
	opts Options
}

func New(d Deps, opts Options) *Handler {
	if d.Counters == nil {
		d.Counters = appinfo.NewCounters()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadSize
	}
	if opts.AdminLimit <= 0 {
		opts.AdminLimit = DefaultAdminLimit
	}
	return &Handler{deps: d, opts: opts}
}

// afterMutation drops cached views of the gallery after an upload or delete.
func (h *Handler) afterMutation(ctx context.Context, publicID string) {
	if h.deps.Gallery != nil {
		h.deps.Gallery.Invalidate(ctx)
	}
	if h.deps.Variants != nil && publicID != "" {
		h.deps.Variants.Forget(ctx, publicID)
	}
}
