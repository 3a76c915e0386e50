package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"storefront/internal/enquiry"
)

const noPhone = "—"

var ownerHTML = template.Must(template.New("owner").Parse(`
<table style="max-width:560px;width:100%;font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;border-collapse:collapse">
  <tr><td style="padding:16px 0;font-size:18px;font-weight:600;">New enquiry – {{.Business}}</td></tr>
  <tr><td style="padding:8px 0"><strong>Name:</strong> {{.Name}}</td></tr>
  <tr><td style="padding:8px 0"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
  <tr><td style="padding:8px 0"><strong>Phone:</strong> {{.Phone}}</td></tr>
  <tr><td style="padding:8px 0"><strong>Message:</strong><br>{{.Message}}</td></tr>
  <tr><td style="padding-top:16px;color:#6b7280;font-size:12px">Sent from the {{.Business}} contact form</td></tr>
</table>
`))

var ackHTML = template.Must(template.New("ack").Parse(`
<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;line-height:1.5">
  <p>Hi {{.Name}},</p>
  <p>Thanks for getting in touch. I’ve received your message and will reply as soon as I can.</p>
  <p>— {{.Signature}}<br/>{{.Business}}</p>
</div>
`))

// Composer renders the two emails sent for a legitimate enquiry.
type Composer struct {
	Business  string
	Signature string
}

type ownerView struct {
	Business string
	Name     string
	Email    string
	Phone    string
	Message  template.HTML
}

type ackView struct {
	Name      string
	Signature string
	Business  string
}

// OwnerNotice builds the message for the site owner. From/To are filled by the Dispatcher.
func (c Composer) OwnerNotice(e enquiry.Enquiry) (Message, error) {
	phone := e.Phone
	if phone == "" {
		phone = noPhone
	}

	text := strings.Join([]string{
		"Name: " + e.Name,
		"Email: " + e.Email,
		"Phone: " + phone,
		"",
		"Message:",
		e.Message,
	}, "\n")

	var buf bytes.Buffer
	err := ownerHTML.Execute(&buf, ownerView{
		Business: c.Business,
		Name:     e.Name,
		Email:    e.Email,
		Phone:    phone,
		Message:  nl2br(e.Message),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render owner notice: %w", err)
	}

	return Message{
		ReplyTo: e.Email,
		Subject: "New enquiry from " + e.Name,
		Text:    text,
		HTML:    buf.String(),
	}, nil
}

// Acknowledgement builds the courtesy copy sent back to the enquirer.
func (c Composer) Acknowledgement(e enquiry.Enquiry) (Message, error) {
	text := fmt.Sprintf("Hi %s,\n\nThanks for getting in touch. I’ve received your message and will reply as soon as I can.\n\n— %s\n%s",
		e.Name, c.Signature, c.Business)

	var buf bytes.Buffer
	if err := ackHTML.Execute(&buf, ackView{Name: e.Name, Signature: c.Signature, Business: c.Business}); err != nil {
		return Message{}, fmt.Errorf("render acknowledgement: %w", err)
	}

	return Message{
		To:      e.Email,
		Subject: "Thanks for your enquiry – " + c.Business,
		Text:    text,
		HTML:    buf.String(),
	}, nil
}

// nl2br escapes s and turns line breaks into <br>.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}
