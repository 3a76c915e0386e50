package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/pkg/gallerysync"
	"storefront/pkg/utils"
)

func newGalleryCmd(root *rootOptions) *cobra.Command {
	var (
		endpoint  string
		timeout   time.Duration
		unordered bool
	)

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Fetch the public gallery the way the site does and print what visitors would see",
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				cfg, err := config.Load(root.configPath)
				if err != nil {
					return err
				}
				endpoint = cfg.GetBaseUrl() + "/api/gallery"
			}

			opts := []gallerysync.Option{gallerysync.WithTimeout(timeout)}
			if unordered {
				opts = append(opts, gallerysync.WithUnordered())
			}

			spinner, _ := pterm.DefaultSpinner.Start("Fetching " + endpoint)
			res := gallerysync.New(endpoint, opts...).Sync(cmd.Context())
			if res.Live {
				spinner.Success(fmt.Sprintf("%d live photos", len(res.Items)))
			} else {
				spinner.Warning("Showing fallback set")
			}

			renderItems(res.Items)

			if res.Notice != "" {
				pterm.Println()
				pterm.Warning.Println(res.Notice)
				if res.Err != nil {
					pterm.Info.Printf("cause: %v\n", res.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&endpoint, "url", "u", "", "Gallery endpoint (default <base_url>/api/gallery)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", gallerysync.DefaultTimeout, "Request timeout")
	cmd.Flags().BoolVar(&unordered, "unordered", false, "Sort by created_at when the endpoint does not")
	return cmd
}

func renderItems(items []gallerysync.Item) {
	data := pterm.TableData{{"#", "ID", "ALT", "SIZE", "SRCSET", "SRC"}}
	for i, it := range items {
		size := "-"
		if it.Width > 0 && it.Height > 0 {
			size = fmt.Sprintf("%dx%d", it.Width, it.Height)
		}
		widths := make([]string, 0, len(it.SrcSet))
		for _, s := range it.SrcSet {
			widths = append(widths, fmt.Sprintf("%dw", s.Width))
		}
		srcset := "-"
		if len(widths) > 0 {
			srcset = strings.Join(widths, " ")
		}
		data = append(data, []string{
			fmt.Sprint(i + 1),
			it.ID,
			utils.Truncate(it.Alt, 40),
			size,
			srcset,
			utils.Truncate(it.Src, 60),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}
