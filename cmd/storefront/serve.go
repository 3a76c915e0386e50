package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/appinfo"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/enquiry"
	"storefront/internal/gallery"
	"storefront/internal/handlers"
	"storefront/internal/imagehost"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override server.port")
	return cmd
}

// imageStack is the image host plus the pieces only the local driver has.
type imageStack struct {
	host     imagehost.Host
	local    *imagehost.Local
	variants *imagehost.Variants
	cleaner  *database.Cleaner
	close    func()
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.App.StartMessage {
		printBanner(cfg)
	}

	store, err := newCacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := newImageStack(cfg, store)
	if err != nil {
		return err
	}
	defer images.close()

	listing := gallery.NewService(images.host, store, cfg.ImageHost.PublicLimit)

	if images.cleaner != nil {
		images.cleaner.OnPrune = func(ids []string, _ int64) {
			listing.Invalidate(ctx)
			for _, id := range ids {
				images.variants.Forget(ctx, id)
			}
		}
		go images.cleaner.Run(ctx)
	}

	h := handlers.New(handlers.Deps{
		Classifier: enquiry.NewClassifier(cfg.MinElapsed(), enquiry.Validator{
			MinName:    cfg.Contact.MinNameLength,
			MinMessage: cfg.Contact.MinMessageLength,
			MaxMessage: cfg.Contact.MaxMessageLength,
			MaxPhone:   enquiry.DefaultValidator().MaxPhone,
		}),
		Notifier: notify.NewDispatcher(newMailSender(cfg), cfg.Mail.From, cfg.Mail.To, notify.Composer{
			Business:  cfg.App.BusinessName,
			Signature: cfg.App.Signature,
		}),
		Gallery:  listing,
		Host:     images.host,
		Counters: appinfo.NewCounters(),
		Local:    images.local,
		Variants: images.variants,
	}, handlers.Options{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		MaxUploadSize:  cfg.ImageHost.MaxUploadSize,
		AdminLimit:     cfg.ImageHost.AdminLimit,
		StaticDir:      cfg.Server.StaticDir,
	})

	contactLimiter := middleware.NewRateLimiter(cfg.Contact.RateLimit, "Too many enquiries. Please try again later.")
	defer contactLimiter.Stop()
	globalLimiter := middleware.NewRateLimiter(cfg.Security.RateLimit, "")
	defer globalLimiter.Stop()

	basic := middleware.BasicAuth(cfg.Admin.User.Username, cfg.Admin.User.Password, cfg.App.Name+" admin")
	token := middleware.AdminToken(cfg.Admin.Token)

	mux := h.Routes(handlers.Gates{
		Admin: func(next http.Handler) http.Handler {
			return middleware.Chain(next, basic, token)
		},
		Contact: contactLimiter.Handler,
	})

	finalHandler := middleware.Chain(mux,
		middleware.Recover,
		globalLimiter.Handler,
		middleware.Cors(cfg.Security.CorsOrigins),
		middleware.Logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           finalHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.LogServerStart(cfg.Server.Port, cfg.GetBaseUrl(), images.host.Name())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.LogInfo("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.LogSuccess("Server stopped")
	return nil
}

func newCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.CacheTTL(), "storefront:")
		if err != nil {
			return nil, err
		}
		logger.LogInfo("Cache: redis (ttl %s)", cfg.CacheTTL())
		return rc, nil
	case config.CacheNone:
		return cache.Noop{}, nil
	default:
		logger.LogInfo("Cache: memory %dMB (ttl %s)", cfg.Cache.MaxCapacity, cfg.CacheTTL())
		return cache.NewMemory(cache.Options{MaxCapacityMB: cfg.Cache.MaxCapacity, TTL: cfg.CacheTTL()}), nil
	}
}

func newImageStack(cfg *config.Config, store cache.Store) (*imageStack, error) {
	if cfg.ImageHost.Driver != config.DriverLocal {
		host, err := imagehost.NewCloudinary(imagehost.CloudinaryConfig{
			CloudName: cfg.ImageHost.Cloudinary.CloudName,
			APIKey:    cfg.ImageHost.Cloudinary.APIKey,
			APISecret: cfg.ImageHost.Cloudinary.APISecret,
			Folder:    cfg.ImageHost.Folder,
		})
		if err != nil {
			return nil, err
		}
		return &imageStack{host: host, close: func() {}}, nil
	}

	db, err := database.Open(cfg.ImageHost.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("open gallery store: %w", err)
	}

	local := imagehost.NewLocal(db, imagehost.LocalConfig{
		Folder:   cfg.ImageHost.Folder,
		BaseURL:  cfg.GetBaseUrl(),
		MaxBytes: cfg.MaxUploadBytes(),
	})
	interval, _ := time.ParseDuration(cfg.ImageHost.Local.PruneInterval)

	if count, size, err := database.Totals(db); err == nil {
		logger.LogInfo("Local gallery store: %d images, %s", count, utils.FormatBytes(size))
	}

	return &imageStack{
		host:     local,
		local:    local,
		variants: imagehost.NewVariants(local, store),
		cleaner: &database.Cleaner{
			DB:       db,
			Path:     cfg.ImageHost.Local.Path,
			Limit:    utils.SizeToBytes(cfg.ImageHost.Local.MaxSize, 2<<30),
			Interval: interval,
		},
		close: func() {
			if err := database.Close(db); err != nil {
				logger.LogWarn("close gallery store: %v", err)
			}
		},
	}, nil
}

// newMailSender returns nil when SMTP is not configured; the dispatcher then
// reports ErrNotConfigured and the contact route answers 500.
func newMailSender(cfg *config.Config) notify.Sender {
	s, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		Plaintext: cfg.Mail.Plaintext,
		Timeout:   15 * time.Second,
	})
	if err != nil {
		logger.LogWarn("Mail transport disabled: %v", err)
		return nil
	}
	return s
}
