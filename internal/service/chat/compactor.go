package chat

import (
	"context"
	"fmt"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
)

// Summarizer condenses a dropped history prefix (plus any prior summary) into
// a single text block.
type Summarizer interface {
	Summarize(ctx context.Context, priorSummary string, dropped []chat.Turn) (string, error)
}

// Compactor bounds conversation history by folding the oldest turns into the
// session summary. Compaction is lossy and one-way; the most recent keep
// turns always survive verbatim.
type Compactor struct {
	summarizer Summarizer
	threshold  int
	keep       int
}

// NewCompactor triggers once history exceeds threshold turns, retaining the
// newest keep turns.
func NewCompactor(summarizer Summarizer, threshold, keep int) *Compactor {
	if threshold < 2 {
		threshold = 2
	}
	if keep < 1 {
		keep = 1
	}
	if keep >= threshold {
		keep = threshold - 1
	}
	return &Compactor{summarizer: summarizer, threshold: threshold, keep: keep}
}

// Compact condenses session history in place. Below the threshold it is a
// no-op, which also makes back-to-back invocations idempotent.
func (c *Compactor) Compact(ctx context.Context, session *chat.Session) error {
	if len(session.Messages) <= c.threshold {
		return nil
	}

	cut := len(session.Messages) - c.keep
	dropped := session.Messages[:cut]

	summary, err := c.summarizer.Summarize(ctx, session.Summary, dropped)
	if err != nil {
		return fmt.Errorf("summarize dropped turns: %w", err)
	}

	session.Summary = summary
	session.Messages = append([]chat.Turn(nil), session.Messages[cut:]...)
	return nil
}
