package database

import (
	"time"
)

// Image is one gallery photo held by the self-hosted store.
type Image struct {
	PublicID string `gorm:"primaryKey;type:text" json:"public_id"`
	Data     []byte `gorm:"type:blob" json:"-"`

	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"` // "jpeg", "png", "gif", "webp"
	Size   int64  `json:"size"`

	Caption string `gorm:"type:text" json:"caption,omitempty"`
	Tags    string `gorm:"type:text" json:"tags,omitempty"` // comma separated

	CreatedAt time.Time `json:"created_at"`
}
