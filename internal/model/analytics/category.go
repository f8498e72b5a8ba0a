package analytics

import (
	"fmt"
	"strings"
)

// Category is one of the fixed analytics topics a question can be routed to.
type Category string

const (
	Content       Category = "content"
	Events        Category = "events"
	Registrations Category = "registrations"
	Neighborhoods Category = "neighborhoods"
	Engagement    Category = "engagement"
	Users         Category = "users"
)

// All lists every known category, in report-generation order.
func All() []Category {
	return []Category{Content, Events, Registrations, Neighborhoods, Engagement, Users}
}

// Parse normalizes a raw category label from the completion backend.
func Parse(raw string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, category := range All() {
		if category == normalized {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown analytics category %q", raw)
}
