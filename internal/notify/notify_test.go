package notify

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"storefront/internal/enquiry"
	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

type recorder struct {
	mu   sync.Mutex
	sent []Message
	fail func(m Message) error
}

func (r *recorder) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		if err := r.fail(m); err != nil {
			return err
		}
	}
	r.sent = append(r.sent, m)
	return nil
}

var composer = Composer{Business: "Warrior Joinery", Signature: "Brandon"}

func jo() enquiry.Enquiry {
	return enquiry.Enquiry{Name: "Jo", Email: "jo@example.com", Message: "Door won't close properly"}
}

func TestNotify_SendsOwnerAndAck(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, "site@example.com", "owner@example.com", composer)

	res, err := d.Notify(context.Background(), jo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OwnerSent || !res.AckSent {
		t.Fatalf("result = %+v", res)
	}
	if len(rec.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(rec.sent))
	}

	owner := rec.sent[0]
	if owner.To != "owner@example.com" || owner.From != "site@example.com" {
		t.Errorf("owner envelope = %+v", owner)
	}
	if owner.ReplyTo != "jo@example.com" {
		t.Errorf("owner replyTo = %q", owner.ReplyTo)
	}
	if owner.Subject != "New enquiry from Jo" {
		t.Errorf("owner subject = %q", owner.Subject)
	}
	if !strings.Contains(owner.Text, "Phone: —") {
		t.Errorf("absent phone should render as a dash:\n%s", owner.Text)
	}

	ack := rec.sent[1]
	if ack.To != "jo@example.com" || ack.ReplyTo != "owner@example.com" {
		t.Errorf("ack envelope = %+v", ack)
	}
	if ack.Subject != "Thanks for your enquiry – Warrior Joinery" {
		t.Errorf("ack subject = %q", ack.Subject)
	}
	if !strings.HasPrefix(ack.Text, "Hi Jo,") || !strings.HasSuffix(ack.Text, "— Brandon\nWarrior Joinery") {
		t.Errorf("ack text = %q", ack.Text)
	}
}

func TestNotify_OwnerFailureIsError(t *testing.T) {
	boom := errors.New("535 auth failed")
	rec := &recorder{fail: func(Message) error { return boom }}
	d := NewDispatcher(rec, "site@example.com", "owner@example.com", composer)

	_, err := d.Notify(context.Background(), jo())
	var se *SendError
	if !errors.As(err, &se) {
		t.Fatalf("want *SendError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("SendError should unwrap to the transport error")
	}
	if len(rec.sent) != 0 {
		t.Errorf("no ack may be attempted after the owner notice fails, sent %d", len(rec.sent))
	}
}

func TestNotify_AckFailureIsSwallowed(t *testing.T) {
	rec := &recorder{fail: func(m Message) error {
		if m.To == "jo@example.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}}
	d := NewDispatcher(rec, "site@example.com", "owner@example.com", composer)

	res, err := d.Notify(context.Background(), jo())
	if err != nil {
		t.Fatalf("ack failure must not fail the request: %v", err)
	}
	if !res.OwnerSent || res.AckSent || res.AckErr == nil {
		t.Errorf("result = %+v", res)
	}
}

func TestNotify_NotConfigured(t *testing.T) {
	d := NewDispatcher(&recorder{}, "", "owner@example.com", composer)
	if _, err := d.Notify(context.Background(), jo()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	var nilD *Dispatcher
	if _, err := nilD.Notify(context.Background(), jo()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("nil dispatcher err = %v", err)
	}
}

func TestOwnerNotice_EscapesHTMLOnly(t *testing.T) {
	e := enquiry.Enquiry{
		Name:    `<b>Jo & "Co"</b>`,
		Email:   "jo@example.com",
		Phone:   "0123 456",
		Message: "line one <script>\nline two & more",
	}
	m, err := composer.OwnerNotice(e)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"&lt;b&gt;Jo &amp; &#34;Co&#34;&lt;/b&gt;",
		"line one &lt;script&gt;<br>line two &amp; more",
		"0123 456",
	} {
		if !strings.Contains(m.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, m.HTML)
		}
	}
	for _, raw := range []string{"<b>Jo", "<script>", `"Co"`} {
		if strings.Contains(m.HTML, raw) {
			t.Errorf("HTML contains unescaped %q", raw)
		}
	}

	if !strings.Contains(m.Text, `Name: <b>Jo & "Co"</b>`) {
		t.Errorf("plain text should be unescaped:\n%s", m.Text)
	}
	if !strings.Contains(m.Text, "Message:\nline one <script>\nline two & more") {
		t.Errorf("plain text message:\n%s", m.Text)
	}
}

func TestAcknowledgement_EscapesName(t *testing.T) {
	m, err := composer.Acknowledgement(enquiry.Enquiry{Name: "<i>Sam</i>", Email: "s@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(m.HTML, "<i>Sam") || !strings.Contains(m.HTML, "&lt;i&gt;Sam&lt;/i&gt;") {
		t.Errorf("ack HTML not escaped:\n%s", m.HTML)
	}
}

func TestBuildMsg(t *testing.T) {
	if _, err := buildMsg(Message{From: "not an address", To: "a@example.com"}); err == nil {
		t.Error("expected invalid from address to fail")
	}
	msg, err := buildMsg(Message{
		From: "site@example.com", To: "owner@example.com", ReplyTo: "jo@example.com",
		Subject: "New enquiry from Jo", Text: "plain", HTML: "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := msg.GetGenHeader("Subject"); len(got) == 0 || got[0] != "New enquiry from Jo" {
		t.Errorf("subject header = %v", got)
	}
}

func TestNewSMTPSender_RequiresHost(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
