// Package mailer renders and delivers outbound e-mail.
package mailer

import (
	"bytes"
	"context"
	"html/template"
	"time"
)

// Message is a rendered e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers a rendered message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ResetEmail is the data of the password reset message.
type ResetEmail struct {
	Username string
	Link     string
	ValidFor time.Duration
}

const resetSubject = "Reset your password"

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hello {{.Username}},</p>
<p>We received a request to reset your password. Follow the link below to choose a new one:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link is valid for {{.ValidFor}}. If you did not ask for a reset you can ignore this e-mail.</p>
`))

// RenderReset builds the reset e-mail addressed to to.
func RenderReset(to string, data ResetEmail) (Message, error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: resetSubject, HTML: buf.String()}, nil
}
