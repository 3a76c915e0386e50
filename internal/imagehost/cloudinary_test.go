package imagehost

import (
	"encoding/json"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
)

func TestCaptionFrom(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"custom caption", `{"custom":{"caption":"Spring bouquet","alt":"flowers"}}`, "Spring bouquet"},
		{"no custom block", `{"other":{"caption":"x"}}`, ""},
		{"custom without caption", `{"custom":{"alt":"flowers"}}`, ""},
		{"non-string caption", `{"custom":{"caption":42}}`, ""},
		{"empty", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var md api.Metadata
			if err := json.Unmarshal([]byte(tt.body), &md); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := captionFrom(md); got != tt.want {
				t.Errorf("captionFrom() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := captionFrom(nil); got != "" {
		t.Errorf("captionFrom(nil) = %q, want empty", got)
	}
}

func TestCaptionFrom_AssetListing(t *testing.T) {
	body := `{"public_id":"storefront/a","tags":["cakes"],"context":{"custom":{"caption":"Lemon tart"}}}`
	var a api.BriefAssetResult
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := captionFrom(a.Context); got != "Lemon tart" {
		t.Errorf("caption = %q, want %q", got, "Lemon tart")
	}
}
