package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrUnavailable means the push capability was never configured (no
// credentials). Callers log it distinctly from a failed delivery.
var ErrUnavailable = errors.New("push delivery unavailable")

// Message is one push payload.
type Message struct {
	Title string
	Body  string
	Link  string
}

// Messenger is the push-delivery capability. Each Send is one
// independent delivery attempt.
type Messenger interface {
	Send(ctx context.Context, token string, msg Message) error
}

// FCMMessenger delivers web-push messages through Firebase Cloud
// Messaging. The client is initialized lazily on first use so the
// service can run (crawl, persist, match) without credentials.
type FCMMessenger struct {
	credentialsFile string

	once   sync.Once
	client *messaging.Client
	initEr error
}

func NewFCM(credentialsFile string) *FCMMessenger {
	return &FCMMessenger{credentialsFile: credentialsFile}
}

func (m *FCMMessenger) init(ctx context.Context) {
	if m.credentialsFile == "" {
		m.initEr = ErrUnavailable
		return
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(m.credentialsFile))
	if err != nil {
		m.initEr = fmt.Errorf("firebase.NewApp: %w", err)
		return
	}
	m.client, m.initEr = app.Messaging(ctx)
}

func (m *FCMMessenger) Send(ctx context.Context, token string, msg Message) error {
	m.once.Do(func() { m.init(ctx) })
	if m.initEr != nil {
		return m.initEr
	}

	_, err := m.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Webpush: &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: msg.Link},
		},
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
