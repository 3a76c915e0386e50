// Package gallerysync fetches the public gallery listing and turns it into
// display-ready items. The result is never empty: when the live listing fails
// or has nothing usable, the bundled fallback set is returned together with a
// notice for the viewer.
package gallerysync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	DefaultTimeout = 8 * time.Second

	// Notice is shown when live photos could not be loaded.
	Notice = "Live photos could not be loaded right now. Showing example work instead."

	maxBody = 4 << 20
)

// DefaultWidths are the srcSet targets synthesized for single-URL records.
var DefaultWidths = []int{600, 900, 1400}

// Source is one srcSet candidate.
type Source struct {
	URL   string `json:"src"`
	Width int    `json:"width"`
}

// Item is one display-ready gallery photo.
type Item struct {
	ID        string    `json:"id"`
	Src       string    `json:"src"`
	Alt       string    `json:"alt"`
	Caption   string    `json:"caption,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	SrcSet    []Source  `json:"srcSet,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Result is the outcome of one Sync.
type Result struct {
	Items []Item
	// Live is true when Items came from the remote listing.
	Live bool
	// Notice is non-empty whenever the fallback set is shown.
	Notice string
	// Err is the reason the live listing was not used, if any.
	Err error
}

var ErrEmpty = errors.New("gallery listing is empty")

// Client fetches a gallery listing endpoint such as /api/gallery.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Timeout  time.Duration
	Fallback []Item
	Widths   []int

	// Unordered sorts items by creation time, newest first. Leave false when
	// the endpoint already returns newest-first.
	Unordered bool
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithTimeout(d time.Duration) Option    { return func(c *Client) { c.Timeout = d } }
func WithFallback(items []Item) Option      { return func(c *Client) { c.Fallback = items } }
func WithWidths(widths ...int) Option       { return func(c *Client) { c.Widths = widths } }
func WithUnordered() Option                 { return func(c *Client) { c.Unordered = true } }

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		Endpoint: endpoint,
		HTTP:     http.DefaultClient,
		Timeout:  DefaultTimeout,
		Fallback: FallbackItems(),
		Widths:   DefaultWidths,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync issues one bounded request. Cancelling ctx aborts it.
func (c *Client) Sync(ctx context.Context) Result {
	items, err := c.fetch(ctx)
	if err == nil && len(items) == 0 {
		err = ErrEmpty
	}
	if err != nil {
		return Result{Items: c.fallback(), Notice: Notice, Err: err}
	}
	return Result{Items: items, Live: true}
}

func (c *Client) fallback() []Item {
	if len(c.Fallback) == 0 {
		return FallbackItems()
	}
	out := make([]Item, len(c.Fallback))
	copy(out, c.Fallback)
	return out
}

func (c *Client) fetch(ctx context.Context) ([]Item, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gallery fetch failed (%d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	records, err := Normalize(body)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(records))
	for _, r := range records {
		if it, ok := c.toItem(r); ok {
			items = append(items, it)
		}
	}

	if c.Unordered {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
	return items, nil
}

func (c *Client) toItem(r Record) (Item, bool) {
	src := firstNonEmpty(r.SecureURL, r.DisplayURL, r.URL, r.Src)
	if src == "" {
		return Item{}, false
	}

	caption := firstNonEmpty(r.Caption, r.contextValue("caption"))
	alt := firstNonEmpty(r.Alt, r.contextValue("alt"), caption, altFromID(r.PublicID), "Gallery photo")

	it := Item{
		ID:      firstNonEmpty(r.PublicID, src),
		Src:     src,
		Alt:     alt,
		Caption: caption,
		Width:   r.Width,
		Height:  r.Height,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		it.CreatedAt = t
	}

	widths := c.Widths
	if widths == nil {
		widths = DefaultWidths
	}
	it.SrcSet = SrcSet(src, widths)
	return it, true
}

// altFromID turns "folder/oak-panel_door" into "oak panel door".
func altFromID(id string) string {
	if id == "" {
		return ""
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	id = strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return strings.TrimSpace(id)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
