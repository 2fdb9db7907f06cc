package mail

import (
	"bytes"
	"fmt"
	"net/url"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
)

// Message is a rendered mail ready to send.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

const resetTemplate = `# Reset your password

Hi {{.Name}},

We received a request to reset the password for **{{.Email}}**.
The link below is valid for {{.ValidFor}}.

[Choose a new password]({{.Link}})

If you did not ask for this, you can ignore this message.
`

var resetTmpl = template.Must(template.New("reset").Parse(resetTemplate))

// ResetData fills the password reset template.
type ResetData struct {
	Name      string
	Email     string
	Token     string
	ExpiresAt time.Time
	Now       time.Time
}

// Renderer turns templates into Messages. Bodies are written in Markdown and converted to HTML.
type Renderer struct {
	md       goldmark.Markdown
	resetURL string
}

// NewRenderer creates a renderer whose reset links point at resetURL.
func NewRenderer(resetURL string) *Renderer {
	return &Renderer{md: goldmark.New(), resetURL: resetURL}
}

// PasswordReset renders the reset mail for data.
func (r *Renderer) PasswordReset(data ResetData) (Message, error) {
	link, err := url.Parse(r.resetURL)
	if err != nil {
		return Message{}, fmt.Errorf("parse reset url: %w", err)
	}
	q := link.Query()
	q.Set("token", data.Token)
	link.RawQuery = q.Encode()

	name := data.Name
	if name == "" {
		name = data.Email
	}
	var text bytes.Buffer
	if err := resetTmpl.Execute(&text, map[string]any{
		"Name":     name,
		"Email":    data.Email,
		"Link":     link.String(),
		"ValidFor": data.ExpiresAt.Sub(data.Now).Round(time.Minute).String(),
	}); err != nil {
		return Message{}, fmt.Errorf("render reset mail: %w", err)
	}

	var html bytes.Buffer
	if err := r.md.Convert(text.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("convert reset mail: %w", err)
	}
	return Message{
		To:      data.Email,
		Subject: "Reset your password",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
