package notification

import (
	"context"
	"sync"
)

// MockNotifier records every message it is asked to send. When Err is set,
// Send records the message and returns Err.
type MockNotifier struct {
	mu   sync.Mutex
	sent []NotificationData
	Err  error
}

func (m *MockNotifier) Send(ctx context.Context, notification NotificationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification)
	return m.Err
}

// Sent returns a copy of the recorded messages.
func (m *MockNotifier) Sent() []NotificationData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotificationData, len(m.sent))
	copy(out, m.sent)
	return out
}
