package gallerysync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one remote gallery entry. Hosts disagree on field names, so every
// known alias is accepted.
type Record struct {
	PublicID   string          `json:"public_id"`
	SecureURL  string          `json:"secure_url"`
	DisplayURL string          `json:"display_url"`
	URL        string          `json:"url"`
	Src        string          `json:"src"`
	Alt        string          `json:"alt"`
	Caption    string          `json:"caption"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Format     string          `json:"format"`
	CreatedAt  string          `json:"created_at"`
	Context    json.RawMessage `json:"context"`
}

// contextValue reads key from {"key": ...} or {"custom": {"key": ...}}.
func (r Record) contextValue(key string) string {
	if len(r.Context) == 0 {
		return ""
	}
	var ctx struct {
		Custom map[string]string `json:"custom"`
	}
	flat := map[string]json.RawMessage{}
	if err := json.Unmarshal(r.Context, &flat); err != nil {
		return ""
	}
	if raw, ok := flat[key]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	if json.Unmarshal(r.Context, &ctx) == nil {
		return ctx.Custom[key]
	}
	return ""
}

var errShape = errors.New("unrecognized gallery payload")

// Normalize accepts a bare array or an object wrapping the array under
// "resources" or "items" and returns the records in payload order.
func Normalize(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errShape
	}

	switch body[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("decode gallery list: %w", err)
		}
		return records, nil

	case '{':
		var wrapped struct {
			Resources *[]Record `json:"resources"`
			Items     *[]Record `json:"items"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("decode gallery object: %w", err)
		}
		switch {
		case wrapped.Resources != nil:
			return *wrapped.Resources, nil
		case wrapped.Items != nil:
			return *wrapped.Items, nil
		}
		return nil, errShape

	default:
		return nil, errShape
	}
}

var transformMarkers = []string{"/upload/", "/media/"}

// SrcSet derives width variants by inserting a w_<n>,q_auto,f_auto segment
// after /upload/ or /media/. URLs without a known marker get no srcSet.
func SrcSet(src string, widths []int) []Source {
	if len(widths) == 0 {
		return nil
	}
	for _, marker := range transformMarkers {
		idx := strings.Index(src, marker)
		if idx < 0 {
			continue
		}
		head := src[:idx+len(marker)]
		rest := strings.TrimPrefix(src[idx+len(marker):], "f_auto,q_auto/")

		out := make([]Source, 0, len(widths))
		for _, w := range sortedWidths(widths) {
			out = append(out, Source{
				URL:   head + "w_" + strconv.Itoa(w) + ",q_auto,f_auto/" + rest,
				Width: w,
			})
		}
		return out
	}
	return nil
}

func sortedWidths(widths []int) []int {
	out := make([]int, 0, len(widths))
	seen := map[int]bool{}
	for _, w := range widths {
		if w > 0 && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}
