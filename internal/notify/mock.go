package notify

import (
	"context"
	"log"
	"sync"
)

// MockNotifier implements the Notifier interface by logging and recording
// recipients. Used in tests and as a stand-in when email is not wired up.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []string
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendWelcome(ctx context.Context, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to)
	log.Printf("📨 [MockNotifier] welcome email to %s (%s)", to, name)
	return nil
}
