package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/parentpass/adminchat/backend/internal/config"
	"github.com/parentpass/adminchat/backend/internal/model/chat"
)

// Service wraps the completion backend behind three typed calls: routing a
// turn, answering against a report, and summarizing history for compaction.
type Service struct {
	chatModel model.ChatModel
	router    compose.Runnable[map[string]any, *schema.Message]
	answerer  compose.Runnable[map[string]any, *schema.Message]
	condenser compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service and compiles its chains.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	router, err := compileChain(ctx, chatModel, chatSystemPrompt, chatUserPrompt, true)
	if err != nil {
		return nil, fmt.Errorf("failed to compile routing chain: %w", err)
	}
	answerer, err := compileChain(ctx, chatModel, answerSystemPrompt, answerUserPrompt, true)
	if err != nil {
		return nil, fmt.Errorf("failed to compile answer chain: %w", err)
	}
	condenser, err := compileChain(ctx, chatModel, summarySystemPrompt, summaryUserPrompt, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		router:    router,
		answerer:  answerer,
		condenser: condenser,
	}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, system, user string, withHistory bool) (compose.Runnable[map[string]any, *schema.Message], error) {
	messages := []schema.MessagesTemplate{schema.SystemMessage(system)}
	if withHistory {
		messages = append(messages, schema.MessagesPlaceholder("history", true))
	}
	messages = append(messages, schema.UserMessage(user))

	promptTemplate := prompt.FromMessages(schema.FString, messages...)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	return chain.Compile(ctx)
}

// Chat classifies the latest user turn: either a direct reply or a request
// for an analytics lookup. The history placeholder carries the recent tail;
// compacted context arrives through summary.
func (s *Service) Chat(ctx context.Context, summary string, history []chat.Turn, userMessage string) (Route, error) {
	input := map[string]any{
		"summary": summaryOrNone(summary),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
	}

	response, err := s.router.Invoke(ctx, input)
	if err != nil {
		return Route{}, fmt.Errorf("failed to run routing chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return Route{}, fmt.Errorf("routing chain returned empty output")
	}

	route, err := parseRoute(response.Content)
	if err != nil {
		return Route{}, err
	}

	log.Printf("[ai] routed turn kind=%s category=%s", route.Kind, route.Category)
	return route, nil
}

// AnswerWithReport produces a reply grounded in reportText. The caller always
// supplies a report slot: either real report data or an explicit unavailable
// notice, never a truncated fragment.
func (s *Service) AnswerWithReport(ctx context.Context, summary string, history []chat.Turn, userMessage, reportText string) (string, error) {
	input := map[string]any{
		"summary": summaryOrNone(summary),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
		"report":  reportText,
	}

	response, err := s.answerer.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run answer chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("answer chain returned empty output")
	}

	log.Printf("[ai] generated grounded answer, length=%d", len(response.Content))
	return response.Content, nil
}

// Summarize folds the prior summary and a dropped history prefix into a new
// running summary for the compactor.
func (s *Service) Summarize(ctx context.Context, priorSummary string, dropped []chat.Turn) (string, error) {
	input := map[string]any{
		"summary":    summaryOrNone(priorSummary),
		"transcript": formatTranscript(dropped),
	}

	response, err := s.condenser.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run summary chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("summary chain returned empty output")
	}

	return strings.TrimSpace(response.Content), nil
}

const historyLimit = 10

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return history
}

func formatTranscript(turns []chat.Turn) string {
	if len(turns) == 0 {
		return "(empty)"
	}

	var builder strings.Builder
	for i, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		builder.WriteString(string(turn.Role))
		builder.WriteString(": ")
		builder.WriteString(content)
		if i < len(turns)-1 {
			builder.WriteString("\n")
		}
	}
	if builder.Len() == 0 {
		return "(empty)"
	}
	return builder.String()
}

func summaryOrNone(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return "(none)"
	}
	return summary
}
