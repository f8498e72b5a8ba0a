package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parentpass/adminchat/backend/internal/model/analytics"
)

// RouteKind tags the two shapes the completion backend may answer with.
type RouteKind int

const (
	// RouteDirectReply means the conversation stays off the analytics track:
	// greetings, clarifying questions, out-of-scope refusals.
	RouteDirectReply RouteKind = iota
	// RouteAnalyticsLookup means the question needs grounding in a report.
	RouteAnalyticsLookup
)

func (k RouteKind) String() string {
	switch k {
	case RouteDirectReply:
		return "reply"
	case RouteAnalyticsLookup:
		return "analytics"
	default:
		return "unknown"
	}
}

// Route is the tagged classification result for one user turn.
type Route struct {
	Kind     RouteKind
	Content  string
	Category analytics.Category
}

type routePayload struct {
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// parseRoute interprets the classifier's JSON output. Models occasionally wrap
// the object in prose or code fences, so the outermost braces are located
// before unmarshalling.
func parseRoute(content string) (Route, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return Route{}, fmt.Errorf("missing json object in classifier output")
	}

	var payload routePayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return Route{}, fmt.Errorf("decode classifier output: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(payload.Kind)) {
	case "reply":
		if strings.TrimSpace(payload.Content) == "" {
			return Route{}, fmt.Errorf("reply route carries no content")
		}
		return Route{Kind: RouteDirectReply, Content: strings.TrimSpace(payload.Content)}, nil
	case "analytics":
		category, err := analytics.Parse(payload.Category)
		if err != nil {
			return Route{}, err
		}
		return Route{Kind: RouteAnalyticsLookup, Category: category}, nil
	default:
		return Route{}, fmt.Errorf("unknown route kind %q", payload.Kind)
	}
}
