package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parentpass/adminchat/backend/internal/model/analytics"
)

// ErrNotAvailable means no usable report exists for the requested category,
// either because the nightly job never produced one or because what exists is
// too stale to serve.
var ErrNotAvailable = errors.New("analytics data not available")

// Provider serves pre-aggregated per-category report text. Reports are
// markdown files refreshed out-of-band on a fixed schedule; the engine only
// ever reads them.
type Provider struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewProvider reads reports from dir. A maxAge of zero disables staleness
// checks.
func NewProvider(dir string, maxAge time.Duration) *Provider {
	return &Provider{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// reportFiles maps each category to the report files the nightly job writes
// for it.
var reportFiles = map[analytics.Category][]string{
	analytics.Content:       {"content_creation.md"},
	analytics.Events:        {"upcoming_events.md"},
	analytics.Registrations: {"new_user_stats.md", "user_registration_trends.md"},
	analytics.Neighborhoods: {"neighborhood_distribution.md"},
	analytics.Engagement: {
		"post_engagement.md", "time_by_section.md", "time_by_user_type.md",
		"push_notifications.md", "search_behavior.md", "app_activity_time.md",
	},
	analytics.Users: {
		"active_users.md", "top_users.md", "onboarding_performance.md",
		"navigation_patterns.md",
	},
}

// Fetch returns the concatenated report text for a category, or
// ErrNotAvailable when nothing usable is on disk.
func (p *Provider) Fetch(_ context.Context, category analytics.Category) (string, error) {
	filenames, ok := reportFiles[category]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrNotAvailable, category)
	}

	parts := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		path := filepath.Join(p.dir, filename)

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if p.maxAge > 0 && p.now().Sub(info.ModTime()) > p.maxAge {
			log.Printf("[analytics] skipping stale report %s (age %s)", filename, p.now().Sub(info.ModTime()).Round(time.Minute))
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[analytics] failed to read %s: %v", filename, err)
			continue
		}
		if text := strings.TrimSpace(string(content)); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", ErrNotAvailable
	}
	return strings.Join(parts, "\n\n"), nil
}
