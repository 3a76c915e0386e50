package appinfo

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Counters tracks what the server has done since start. Safe for concurrent use.
type Counters struct {
	started time.Time

	EnquiriesAccepted   atomic.Int64
	EnquiriesSuppressed atomic.Int64
	EnquiriesRejected   atomic.Int64
	EnquiriesFailed     atomic.Int64
	AcksFailed          atomic.Int64

	Uploads atomic.Int64
	Deletes atomic.Int64
}

func NewCounters() *Counters {
	return &Counters{started: time.Now()}
}

// Snapshot is the JSON view of Counters served by /api/admin/stats.
type Snapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RamUsage      uint64 `json:"ram_usage"`
	NumGoroutines int    `json:"num_goroutines"`
	ImageDriver   string `json:"image_driver"`
	MaxUploadSize string `json:"max_upload_size"`

	Enquiries struct {
		Accepted   int64 `json:"accepted"`
		Suppressed int64 `json:"suppressed"`
		Rejected   int64 `json:"rejected"`
		Failed     int64 `json:"failed"`
		AcksFailed int64 `json:"acks_failed"`
	} `json:"enquiries"`

	Uploads int64 `json:"uploads"`
	Deletes int64 `json:"deletes"`
}

func (c *Counters) Snapshot() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	up := time.Since(c.started)
	s := Snapshot{
		Uptime:        up.Round(time.Second).String(),
		UptimeSeconds: int64(up.Seconds()),
		RamUsage:      m.Alloc,
		NumGoroutines: runtime.NumGoroutine(),
		Uploads:       c.Uploads.Load(),
		Deletes:       c.Deletes.Load(),
	}
	s.Enquiries.Accepted = c.EnquiriesAccepted.Load()
	s.Enquiries.Suppressed = c.EnquiriesSuppressed.Load()
	s.Enquiries.Rejected = c.EnquiriesRejected.Load()
	s.Enquiries.Failed = c.EnquiriesFailed.Load()
	s.Enquiries.AcksFailed = c.AcksFailed.Load()
	return s
}
