// Package enquiry decides what happens to a contact-form submission before any mail is sent.
//
// Classification runs in a fixed order and the first match wins:
//
//	honeypot -> timing -> field validation -> legitimate
//
// Bot submissions are answered exactly like accepted ones so a script cannot learn
// which check caught it.
package enquiry

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Enquiry is the transient payload posted by the contact form. It is never stored.
type Enquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`

	// Company is the honeypot. Humans never see it, so it must stay blank.
	Company string `json:"company,omitempty"`

	// Epoch milliseconds captured by the browser. Either may be absent.
	MountedAt   *int64 `json:"mountedAt,omitempty"`
	SubmittedAt *int64 `json:"submittedAt,omitempty"`
}

// Normalize trims surrounding whitespace from the user-facing fields.
func (e Enquiry) Normalize() Enquiry {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	e.Phone = strings.TrimSpace(e.Phone)
	e.Message = strings.TrimSpace(e.Message)
	return e
}

// UnmarshalJSON decodes a submission without failing on the bot-facing fields.
// Any non-blank company value, whatever its JSON type, fills the honeypot, and a
// timestamp that is not a number or numeric string is treated as absent.
func (e *Enquiry) UnmarshalJSON(data []byte) error {
	type plain Enquiry
	var aux struct {
		plain
		Company     json.RawMessage `json:"company"`
		MountedAt   json.RawMessage `json:"mountedAt"`
		SubmittedAt json.RawMessage `json:"submittedAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Enquiry(aux.plain)
	e.Company = honeypotValue(aux.Company)
	e.MountedAt = millisValue(aux.MountedAt)
	e.SubmittedAt = millisValue(aux.SubmittedAt)
	return nil
}

func honeypotValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func millisValue(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int64
	if json.Unmarshal(raw, &n) == nil {
		return &n
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		if f < -(1<<63) || f >= 1<<63 {
			return nil
		}
		n = int64(f)
		return &n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return ParseMillis(s)
	}
	return nil
}

// ParseMillis parses epoch milliseconds from a form or JSON string value.
// Blank or non-numeric input yields nil.
func ParseMillis(v string) *int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ElapsedMillis reports the milliseconds between mount and submit, saturating
// at the int64 bounds. ok is false when either timestamp is missing, in which
// case the timing check must not fire.
func (e Enquiry) ElapsedMillis() (ms int64, ok bool) {
	if e.MountedAt == nil || e.SubmittedAt == nil {
		return 0, false
	}
	submitted, mounted := *e.SubmittedAt, *e.MountedAt
	if submitted >= mounted {
		d := uint64(submitted) - uint64(mounted)
		if d > math.MaxInt64 {
			return math.MaxInt64, true
		}
		return int64(d), true
	}
	d := uint64(mounted) - uint64(submitted)
	if d > math.MaxInt64 {
		return math.MinInt64, true
	}
	return -int64(d), true
}

type Kind int

const (
	// Legitimate submissions proceed to notification.
	Legitimate Kind = iota
	// Bot submissions get a success response and no mail.
	Bot
	// Invalid submissions get a 400 and no mail.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Legitimate:
		return "legitimate"
	case Bot:
		return "bot"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// BotReason names the heuristic that flagged a submission. It is logged, never returned to callers.
type BotReason string

const (
	ReasonHoneypot BotReason = "honeypot"
	ReasonTooFast  BotReason = "too_fast"
)

// Verdict is the outcome of Classify. Only the fields relevant to Kind are set.
type Verdict struct {
	Kind Kind

	// Reason is set for Bot.
	Reason BotReason

	// Errors is set for Invalid.
	Errors ValidationErrors

	// Enquiry is the normalized submission, set for Legitimate.
	Enquiry Enquiry
}

// ShouldNotify is true only for Legitimate verdicts.
func (v Verdict) ShouldNotify() bool {
	return v.Kind == Legitimate
}

// Classifier holds the thresholds of the decision pipeline.
type Classifier struct {
	MinElapsed time.Duration
	Validator  Validator
}

func NewClassifier(minElapsed time.Duration, v Validator) *Classifier {
	return &Classifier{MinElapsed: minElapsed, Validator: v}
}

// Classify runs the honeypot, timing and validation checks in order.
func (c *Classifier) Classify(e Enquiry) Verdict {
	if strings.TrimSpace(e.Company) != "" {
		return Verdict{Kind: Bot, Reason: ReasonHoneypot}
	}

	if ms, ok := e.ElapsedMillis(); ok && ms < c.MinElapsed.Milliseconds() {
		return Verdict{Kind: Bot, Reason: ReasonTooFast}
	}

	e = e.Normalize()
	if errs := c.Validator.Validate(e); len(errs) > 0 {
		return Verdict{Kind: Invalid, Errors: errs}
	}

	return Verdict{Kind: Legitimate, Enquiry: e}
}
