package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/omgcreativity/laojia/internal/models"
)

// ErrWaitTimeout is returned when the polling window closes without a model
// reply. The pending user message is left untouched so a late answer still
// lands and is shown on the next refresh.
var ErrWaitTimeout = errors.New("timed out waiting for reply")

// ConversationReader is the read-only slice of the store the waiter needs.
type ConversationReader interface {
	ReadConversation(ctx context.Context, username string) ([]models.Message, error)
}

// Waiter blocks the UI request after a user message is appended, sampling
// the conversation log until the last entry's role flips to "model".
type Waiter struct {
	reader ConversationReader
	policy RetryPolicy
	sleep  sleepFunc
}

// NewWaiter creates a Waiter with the given policy. A zero policy falls back
// to UIWaitPolicy.
func NewWaiter(reader ConversationReader, policy RetryPolicy) *Waiter {
	if policy.Interval <= 0 || policy.MaxAttempts <= 0 {
		policy = UIWaitPolicy
	}
	return &Waiter{
		reader: reader,
		policy: policy,
		sleep:  sleepCtx,
	}
}

// WaitForReply polls until the last log entry is a model message and returns
// it. A single failed read does not abort the wait; only exhausting the
// attempt budget does.
func (w *Waiter) WaitForReply(ctx context.Context, username string) (models.Message, error) {
	var lastErr error

	for attempt := 0; attempt < w.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := w.sleep(ctx, w.policy.Interval); err != nil {
				return models.Message{}, err
			}
		}

		messages, err := w.reader.ReadConversation(ctx, username)
		if err != nil {
			lastErr = err
			continue
		}

		if len(messages) > 0 && messages[len(messages)-1].Role == models.RoleModel {
			return messages[len(messages)-1], nil
		}
	}

	if lastErr != nil {
		return models.Message{}, fmt.Errorf("%w (last read error: %v)", ErrWaitTimeout, lastErr)
	}
	return models.Message{}, ErrWaitTimeout
}
