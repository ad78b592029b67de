package email

import (
	"context"
	"sync"

	"github.com/fieldquote/estimate-gateway/internal/store"
)

// SentMessage records one delivery made through the Fake.
type SentMessage struct {
	To       string
	Estimate *store.Estimate
	PDF      []byte
}

// Fake is an in-memory Sender for testing.
type Fake struct {
	mu   sync.Mutex
	Err  error
	sent []SentMessage
}

// Send records the message instead of delivering it.
func (f *Fake) Send(ctx context.Context, to string, est *store.Estimate, profile *store.BusinessProfile, pdf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, SentMessage{To: to, Estimate: est, PDF: pdf})
	return nil
}

// Sent returns the messages recorded so far.
func (f *Fake) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}
