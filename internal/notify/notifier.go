package notify

import "context"

// Notifier sends account lifecycle email. All sends are best-effort: callers
// log failures and never fail the surrounding request on them.
type Notifier interface {
	SendWelcome(ctx context.Context, to, name string) error
}
