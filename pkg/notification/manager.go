package notification

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"
)

// NoticeType names a kind of message, e.g. a registration invitation.
type NoticeType string

const (
	RegistrationInvite NoticeType = "registration_invite"
)

type NoticeTemplate struct {
	Subject string
	Text    string
}

type compiledTemplate struct {
	subject *template.Template
	body    *template.Template
}

// NotificationManager renders registered templates and hands the result to
// its notifier.
type NotificationManager struct {
	notifier Notifier

	mu        sync.RWMutex
	templates map[NoticeType]compiledTemplate
}

func NewNotificationManager(notifier Notifier, opts ...NotificationManagerOption) (*NotificationManager, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	nm := &NotificationManager{
		notifier:  notifier,
		templates: make(map[NoticeType]compiledTemplate),
	}
	for _, opt := range opts {
		if err := opt(nm); err != nil {
			return nil, err
		}
	}
	return nm, nil
}

// RegisterNotification adds or replaces the template for noticeType.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, tmpl NoticeTemplate) error {
	if noticeType == "" || tmpl.Text == "" {
		return fmt.Errorf("invalid input: notice type and text cannot be empty")
	}

	subject, err := template.New(string(noticeType) + "_subject").Option("missingkey=error").Parse(tmpl.Subject)
	if err != nil {
		return fmt.Errorf("parsing subject of %s: %w", noticeType, err)
	}
	body, err := template.New(string(noticeType) + "_body").Option("missingkey=error").Parse(tmpl.Text)
	if err != nil {
		return fmt.Errorf("parsing body of %s: %w", noticeType, err)
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.templates[noticeType] = compiledTemplate{subject: subject, body: body}
	return nil
}

// Render produces the message for noticeType without sending it.
func (nm *NotificationManager) Render(noticeType NoticeType, to string, data any) (NotificationData, error) {
	nm.mu.RLock()
	tmpl, ok := nm.templates[noticeType]
	nm.mu.RUnlock()
	if !ok {
		return NotificationData{}, fmt.Errorf("no template registered for notice type: %s", noticeType)
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return NotificationData{}, fmt.Errorf("rendering subject of %s: %w", noticeType, err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return NotificationData{}, fmt.Errorf("rendering body of %s: %w", noticeType, err)
	}

	return NotificationData{To: to, Subject: subject.String(), Body: body.String()}, nil
}

// Send renders noticeType with data and delivers it to the address to.
func (nm *NotificationManager) Send(ctx context.Context, noticeType NoticeType, to string, data any) error {
	notification, err := nm.Render(noticeType, to, data)
	if err != nil {
		return err
	}
	return nm.notifier.Send(ctx, notification)
}
