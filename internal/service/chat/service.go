package chat

import (
	"context"
	"errors"
	"log"

	"github.com/parentpass/adminchat/backend/internal/config"
	"github.com/parentpass/adminchat/backend/internal/model/analytics"
	"github.com/parentpass/adminchat/backend/internal/model/chat"
	aiservice "github.com/parentpass/adminchat/backend/internal/service/ai"
	analyticsservice "github.com/parentpass/adminchat/backend/internal/service/analytics"
	"github.com/parentpass/adminchat/backend/internal/service/session"
)

// ErrTransient means the commit retry budget was exhausted; the caller may
// simply resubmit the message.
var ErrTransient = errors.New("transient failure processing message")

// fallbackReply is recorded when the completion backend fails or returns an
// unusable structure. The user turn is still committed so no input is lost.
const fallbackReply = "I'm having trouble processing your request right now. " +
	"Please try rephrasing your question or try again later."

// Store is the slice of the session store the orchestrator needs. It is
// injected so tests can substitute conflict-provoking wrappers.
type Store interface {
	Get(ctx context.Context, id string) (chat.Session, error)
	Commit(ctx context.Context, updated chat.Session) (chat.Session, error)
}

// Completer is the typed contract with the completion backend.
type Completer interface {
	Chat(ctx context.Context, summary string, history []chat.Turn, userMessage string) (aiservice.Route, error)
	AnswerWithReport(ctx context.Context, summary string, history []chat.Turn, userMessage, reportText string) (string, error)
}

// ReportProvider supplies pre-aggregated analytics text per category.
type ReportProvider interface {
	Fetch(ctx context.Context, category analytics.Category) (string, error)
}

// Service orchestrates one conversation turn: load state, route, optionally
// ground in analytics, respond, compact, commit.
type Service struct {
	store     Store
	completer Completer
	provider  ReportProvider
	compactor *Compactor
	cfg       config.ChatConfig
}

// NewService wires the turn orchestrator.
func NewService(store Store, completer Completer, provider ReportProvider, compactor *Compactor, cfg config.ChatConfig) *Service {
	if cfg.CommitRetries < 1 {
		cfg.CommitRetries = 1
	}
	return &Service{
		store:     store,
		completer: completer,
		provider:  provider,
		compactor: compactor,
		cfg:       cfg,
	}
}

// ProcessMessage runs the full turn cycle for one inbound user message and
// returns the assistant turn. A commit conflict restarts the cycle from the
// fresh session state, up to the configured retry bound.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, text string) (chat.Turn, error) {
	for attempt := 0; attempt < s.cfg.CommitRetries; attempt++ {
		turn, err := s.processOnce(ctx, sessionID, text)
		if errors.Is(err, session.ErrConflict) {
			log.Printf("[chat] commit conflict for session=%s, attempt=%d", sessionID, attempt+1)
			continue
		}
		return turn, err
	}

	s.salvageTurn(ctx, sessionID, text)
	return chat.Turn{}, ErrTransient
}

// salvageTurn commits the user turn plus a canned reply once the retry budget
// is gone, so the administrator's input is not silently lost. Unlike the full
// cycle it only appends, so a version conflict is always resolvable by
// re-reading; it keeps retrying until the session is gone or the caller is.
func (s *Service) salvageTurn(ctx context.Context, sessionID, text string) {
	for ctx.Err() == nil {
		current, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return
		}

		updated := current.Clone()
		updated.Append(chat.NewTurn(chat.RoleUser, text))
		updated.Append(chat.NewTurn(chat.RoleAssistant, fallbackReply))

		_, err = s.store.Commit(ctx, updated)
		if err == nil {
			return
		}
		if !errors.Is(err, session.ErrConflict) {
			log.Printf("[chat] failed to salvage turn for session=%s: %v", sessionID, err)
			return
		}
	}
}

func (s *Service) processOnce(ctx context.Context, sessionID, text string) (chat.Turn, error) {
	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Turn{}, err
	}

	// History as the router and generator see it: everything before this turn.
	history := current.Messages

	updated := current.Clone()
	updated.Append(chat.NewTurn(chat.RoleUser, text))

	assistant, err := s.respond(ctx, updated.Summary, history, text)
	if err != nil {
		return chat.Turn{}, err
	}
	updated.Append(assistant)

	compactCtx, cancel := s.stepContext(ctx)
	compactErr := s.compactor.Compact(compactCtx, &updated)
	cancel()
	if compactErr != nil {
		// Losing the turn over a failed summary would be worse than a long
		// history; keep the turns and try again next cycle.
		log.Printf("[chat] compaction skipped for session=%s: %v", sessionID, compactErr)
	}

	if _, err := s.store.Commit(ctx, updated); err != nil {
		return chat.Turn{}, err
	}

	return assistant, nil
}

// respond classifies the turn and produces the assistant reply. Completion
// backend failures degrade to a canned reply; a cancelled parent context
// aborts the turn instead so nothing is committed for a caller that is gone.
func (s *Service) respond(ctx context.Context, summary string, history []chat.Turn, text string) (chat.Turn, error) {
	routeCtx, cancel := s.stepContext(ctx)
	route, err := s.completer.Chat(routeCtx, summary, history, text)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return chat.Turn{}, ctx.Err()
		}
		log.Printf("[chat] routing failed: %v", err)
		return chat.NewTurn(chat.RoleAssistant, fallbackReply), nil
	}

	if route.Kind == aiservice.RouteDirectReply {
		return chat.NewTurn(chat.RoleAssistant, route.Content), nil
	}

	reportText := s.fetchReport(ctx, route.Category)

	answerCtx, cancel := s.stepContext(ctx)
	content, err := s.completer.AnswerWithReport(answerCtx, summary, history, text, reportText)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return chat.Turn{}, ctx.Err()
		}
		log.Printf("[chat] answer generation failed for category=%s: %v", route.Category, err)
		return chat.NewTurn(chat.RoleAssistant, fallbackReply), nil
	}

	return chat.NewTurn(chat.RoleAssistant, content), nil
}

// fetchReport returns the grounding text for a category. When the report is
// missing or stale the generator receives an explicit unavailability notice,
// never a partial fragment.
func (s *Service) fetchReport(ctx context.Context, category analytics.Category) string {
	fetchCtx, cancel := s.stepContext(ctx)
	defer cancel()

	reportText, err := s.provider.Fetch(fetchCtx, category)
	if err != nil {
		if !errors.Is(err, analyticsservice.ErrNotAvailable) {
			log.Printf("[chat] report fetch failed for category=%s: %v", category, err)
		}
		return aiservice.ReportUnavailableNotice
	}
	return reportText
}

func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StepTimeout)
}
