package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	fcolor "github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"storefront/internal/config"
	"storefront/internal/middleware"
)

var seedSubjects = []struct {
	caption string
	tags    string
	tint    color.NRGBA
}{
	{"Oak front door", "doors,oak", color.NRGBA{0x8B, 0x5A, 0x2B, 0xFF}},
	{"Built-in wardrobe", "wardrobes", color.NRGBA{0xD9, 0xC5, 0xA0, 0xFF}},
	{"Staircase refurbishment", "stairs", color.NRGBA{0x5C, 0x40, 0x33, 0xFF}},
	{"Kitchen cabinetry", "kitchens", color.NRGBA{0x2C, 0x5E, 0x7A, 0xFF}},
	{"Sash window repair", "windows", color.NRGBA{0xEE, 0xEE, 0xE4, 0xFF}},
	{"Garden decking", "outdoor,decking", color.NRGBA{0x6B, 0x8E, 0x23, 0xFF}},
}

type seedResult struct {
	Caption string
	Err     error
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var (
		baseURL string
		token   string
		count   int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upload generated placeholder photos through the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" || token == "" {
				cfg, err := config.Load(root.configPath)
				if err != nil {
					return err
				}
				if baseURL == "" {
					baseURL = cfg.GetBaseUrl()
				}
				if token == "" {
					token = cfg.Admin.Token
				}
			}
			if token == "" {
				return fmt.Errorf("an admin token is required (--token or ADMIN_TOKEN)")
			}
			return runSeed(cmd.Context(), strings.TrimRight(baseURL, "/"), token, count, workers)
		},
	}

	cmd.Flags().StringVarP(&baseURL, "url", "u", "", "Server base URL (default from config)")
	cmd.Flags().StringVar(&token, "token", "", "Admin token (default from config)")
	cmd.Flags().IntVarP(&count, "count", "n", 12, "Number of photos to upload")
	cmd.Flags().IntVarP(&workers, "workers", "w", 3, "Concurrent uploads")
	return cmd
}

func runSeed(ctx context.Context, baseURL, token string, count, workers int) error {
	pterm.DefaultHeader.WithFullWidth().WithBackgroundStyle(pterm.NewStyle(pterm.BgLightMagenta)).WithTextStyle(pterm.NewStyle(pterm.FgBlack)).Println("GALLERY SEEDER")
	pterm.Println()

	data := pterm.TableData{
		{"Target Server", fcolor.New(fcolor.FgCyan).Sprint(baseURL)},
		{"Total Photos", fcolor.New(fcolor.FgYellow).Sprintf("%d images", count)},
		{"Concurrency", fcolor.New(fcolor.FgYellow).Sprintf("%d workers", workers)},
		{"Admin Token", fcolor.New(fcolor.FgRed).Sprint("******")},
	}
	_ = pterm.DefaultTable.WithBoxed().WithData(data).Render()
	pterm.Println()

	bar, _ := pterm.DefaultProgressbar.
		WithTotal(count).
		WithTitle("Uploading photos...").
		WithShowCount(true).
		WithShowElapsedTime(true).
		Start()

	client := &http.Client{Timeout: 30 * time.Second}

	var (
		mu      sync.Mutex
		results []seedResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < count; i++ {
		subject := seedSubjects[i%len(seedSubjects)]
		caption := fmt.Sprintf("%s #%d", subject.caption, i+1)

		g.Go(func() error {
			err := uploadSeed(gctx, client, baseURL, token, caption, subject.tags, placeholderJPEG(subject.tint, i))

			mu.Lock()
			results = append(results, seedResult{Caption: caption, Err: err})
			mu.Unlock()
			bar.Increment()
			return nil
		})
	}
	_ = g.Wait()
	_, _ = bar.Stop()

	var failures []seedResult
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, r)
		}
	}

	pterm.Println()
	if len(failures) == 0 {
		pterm.DefaultSection.WithStyle(pterm.NewStyle(pterm.FgGreen)).Println("SEEDING COMPLETED SUCCESSFULLY")
		pterm.Info.Printf("Uploaded %d photos.\n", len(results))
		return nil
	}

	pterm.DefaultSection.WithStyle(pterm.NewStyle(pterm.FgYellow)).Println("COMPLETED WITH ERRORS")
	pterm.Info.Printf("Success: %d | Failed: %d\n", len(results)-len(failures), len(failures))
	pterm.Println()
	pterm.Error.Println("Failure Report:")
	for _, f := range failures {
		fmt.Printf(" • %s: %v\n", fcolor.RedString(f.Caption), f.Err)
	}
	return fmt.Errorf("%d uploads failed", len(failures))
}

// placeholderJPEG renders a 1600x1200 tinted board with a lighter panel so
// resized variants are visibly distinct.
func placeholderJPEG(tint color.NRGBA, n int) []byte {
	board := imaging.New(1600, 1200, tint)
	panel := imaging.New(900, 600, color.NRGBA{0xFF, 0xFF, 0xFF, 0x40})
	offset := image.Pt(100+(n%5)*100, 200+(n%3)*100)
	img := imaging.Overlay(board, panel, offset, 1.0)

	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

func uploadSeed(ctx context.Context, client *http.Client, baseURL, token, caption, tags string, data []byte) error {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "seed.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	_ = writer.WriteField("caption", caption)
	_ = writer.WriteField("tags", tags)
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/admin/upload", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(middleware.TokenHeader, token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server rejected: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
