package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type benchConfig struct {
	BaseURL       string
	TotalRequests int
	Concurrency   int
}

type benchStats struct {
	Success     uint64
	Failed      uint64
	Latencies   []time.Duration
	StatusCodes map[int]int
	mu          sync.Mutex
}

func newBenchCmd() *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-test the public endpoints of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
			return runBench(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.BaseURL, "url", "u", "http://127.0.0.1:5050", "Server base URL")
	cmd.Flags().IntVarP(&cfg.TotalRequests, "requests", "n", 2000, "Requests per phase")
	cmd.Flags().IntVarP(&cfg.Concurrency, "concurrency", "c", 50, "Concurrent workers")
	return cmd
}

func runBench(ctx context.Context, cfg benchConfig) error {
	_ = pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("SHOP", pterm.NewStyle(pterm.FgCyan)),
		pterm.NewLettersFromStringWithStyle("BENCH", pterm.NewStyle(pterm.FgMagenta)),
	).Render()
	pterm.Info.Printf("Target: %s | Workers: %d | Requests: %d\n", cfg.BaseURL, cfg.Concurrency, cfg.TotalRequests)

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:          1000,
			MaxIdleConnsPerHost:   cfg.Concurrency + 50,
			IdleConnTimeout:       90 * time.Second,
			DisableCompression:    true,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}

	if !checkServerHealth(ctx, client, cfg.BaseURL) {
		return fmt.Errorf("server at %s is not healthy", cfg.BaseURL)
	}

	runPhase(ctx, "READ: gallery listing", cfg, func(ctx context.Context) int {
		return doRequest(ctx, client, http.MethodGet, cfg.BaseURL+"/api/gallery", nil)
	})

	fmt.Println()

	// Honeypot submissions take the full contact path without sending mail.
	runPhase(ctx, "WRITE: contact (honeypot)", cfg, func(ctx context.Context) int {
		body, _ := json.Marshal(map[string]string{
			"name":    "bench-" + uuid.NewString(),
			"email":   "bench@example.com",
			"message": "load test submission, please ignore",
			"company": "bench",
		})
		return doRequest(ctx, client, http.MethodPost, cfg.BaseURL+"/api/contact", bytes.NewReader(body))
	})
	return nil
}

func runPhase(ctx context.Context, name string, cfg benchConfig, operation func(context.Context) int) {
	bar, _ := pterm.DefaultProgressbar.WithTotal(cfg.TotalRequests).WithTitle(name).WithRemoveWhenDone(true).Start()

	stats := &benchStats{
		StatusCodes: make(map[int]int),
		Latencies:   make([]time.Duration, 0, cfg.TotalRequests),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(cfg.Concurrency, 1))
	start := time.Now()

	for i := 0; i < cfg.TotalRequests; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			t0 := time.Now()
			code := operation(ctx)
			dur := time.Since(t0)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, dur)
			stats.StatusCodes[code]++
			stats.mu.Unlock()

			if code >= 200 && code < 300 {
				atomic.AddUint64(&stats.Success, 1)
			} else {
				atomic.AddUint64(&stats.Failed, 1)
			}

			bar.Increment()
		}()
	}

	wg.Wait()
	_, _ = bar.Stop()
	pterm.DefaultSection.Println(name)
	printReport(stats, time.Since(start))
}

func doRequest(ctx context.Context, client *http.Client, method, url string, body io.Reader) int {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func checkServerHealth(ctx context.Context, client *http.Client, baseURL string) bool {
	spinner, _ := pterm.DefaultSpinner.Start("Checking server...")
	if code := doRequest(ctx, client, http.MethodGet, baseURL+"/healthz", nil); code == http.StatusOK {
		spinner.Success("Server is UP! (" + baseURL + ")")
		return true
	}
	spinner.Fail("Server is DOWN! (" + baseURL + ")")
	return false
}

func printReport(s *benchStats, totalTime time.Duration) {
	count := len(s.Latencies)
	if count == 0 {
		return
	}
	sort.Slice(s.Latencies, func(i, j int) bool { return s.Latencies[i] < s.Latencies[j] })

	data := [][]string{
		{"Metric", "Value"},
		{"Throughput", fmt.Sprintf("%.2f Req/sec", float64(count)/totalTime.Seconds())},
		{"Success Rate", fmt.Sprintf("%.2f%%", float64(atomic.LoadUint64(&s.Success))/float64(count)*100)},
		{"P50 Latency", s.Latencies[count/2].String()},
		{"P95 Latency", s.Latencies[int(float64(count-1)*0.95)].String()},
		{"P99 Latency", s.Latencies[int(float64(count-1)*0.99)].String()},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if atomic.LoadUint64(&s.Failed) > 0 {
		codes := make([]int, 0, len(s.StatusCodes))
		for code := range s.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		pterm.Warning.Println("Status Code Breakdown (Errors):")
		for _, code := range codes {
			if code >= 400 || code == 0 {
				fmt.Printf("HTTP %d: %d\n", code, s.StatusCodes[code])
			}
		}
	}
}
