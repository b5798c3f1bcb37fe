package splunk

import (
	"context"
	"fmt"
	"strings"

	json "github.com/alpkeskin/gotoon"
)

// Service translates saved-search REST calls into the normalised JSON
// contract served over the tool bus. Every method returns a pretty-printed
// JSON document; failures of any kind are encoded into the document and
// never escape as Go errors.
type Service struct {
	client *Client
}

// NewService wraps a client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// App returns the default app used when a call omits one.
func (s *Service) App() string { return s.client.App() }

// SavedSearchSummary is the projection used by the list operation.
type SavedSearchSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// SavedSearchDetails is the projection used by the detail operation.
type SavedSearchDetails struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SPL          string `json:"spl"`
	Owner        string `json:"owner"`
	Updated      string `json:"updated"`
	IsScheduled  bool   `json:"is_scheduled"`
	CronSchedule string `json:"cron_schedule"`
}

// SavedSearchMatch is the projection used by the pattern operation. Disabled
// is always false here because disabled entries are filtered out before
// matching; the field is kept for wire compatibility with existing callers.
type SavedSearchMatch struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SPL         string `json:"spl"`
	Disabled    bool   `json:"disabled"`
}

type listEnvelope struct {
	Status        string               `json:"status"`
	App           string               `json:"app"`
	Count         int                  `json:"count"`
	SavedSearches []SavedSearchSummary `json:"saved_searches"`
}

type detailsEnvelope struct {
	Status string             `json:"status"`
	App    string             `json:"app"`
	Search SavedSearchDetails `json:"search"`
}

type patternEnvelope struct {
	Status        string             `json:"status"`
	App           string             `json:"app"`
	Pattern       string             `json:"pattern"`
	Count         int                `json:"count"`
	SavedSearches []SavedSearchMatch `json:"saved_searches"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// ListSavedSearches returns all saved searches in the app, excluding
// disabled entries. An empty app falls back to the configured default.
func (s *Service) ListSavedSearches(ctx context.Context, app string) string {
	if app == "" {
		app = s.client.App()
	}

	entries, status, err := s.client.fetchSavedSearches(ctx, app)
	if err != nil {
		return errorJSON(err.Error())
	}
	if status != 200 {
		return errorJSON(fmt.Sprintf("Failed to retrieve Saved Searches: %d", status))
	}

	searches := make([]SavedSearchSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.disabled() {
			continue
		}
		searches = append(searches, SavedSearchSummary{
			Name:        entry.Name,
			Description: entry.contentString("description"),
			Owner:       entry.ACL.Owner,
		})
	}

	return prettyJSON(listEnvelope{
		Status:        "success",
		App:           app,
		Count:         len(searches),
		SavedSearches: searches,
	})
}

// GetSavedSearchDetails returns the full definition of one saved search,
// including its SPL. An empty search name is rejected before any request is
// made.
func (s *Service) GetSavedSearchDetails(ctx context.Context, searchName, app string) string {
	if app == "" {
		app = s.client.App()
	}
	if searchName == "" {
		return errorJSON("search_name is required")
	}

	entries, _, err := s.client.fetchSavedSearch(ctx, app, searchName)
	if err != nil {
		return errorJSON(err.Error())
	}
	if len(entries) == 0 {
		return errorJSON(fmt.Sprintf("Saved Search '%s' not found", searchName))
	}

	entry := entries[0]
	return prettyJSON(detailsEnvelope{
		Status: "success",
		App:    app,
		Search: SavedSearchDetails{
			Name:         entry.Name,
			Description:  entry.contentString("description"),
			SPL:          entry.contentString("search"),
			Owner:        entry.ACL.Owner,
			Updated:      entry.Updated,
			IsScheduled:  entry.scheduled(),
			CronSchedule: entry.contentString("cron_schedule"),
		},
	})
}

// ListSavedSearchesByPattern returns the enabled saved searches whose name
// contains pattern as a case-insensitive substring. An empty pattern is
// rejected before any request is made.
func (s *Service) ListSavedSearchesByPattern(ctx context.Context, pattern, app string) string {
	if app == "" {
		app = s.client.App()
	}
	if pattern == "" {
		return errorJSON("pattern is required")
	}

	entries, status, err := s.client.fetchSavedSearches(ctx, app)
	if err != nil {
		return errorJSON(err.Error())
	}
	if status != 200 {
		return errorJSON(fmt.Sprintf("Failed to retrieve Saved Searches: %d", status))
	}

	needle := strings.ToLower(pattern)
	matches := make([]SavedSearchMatch, 0)
	for _, entry := range entries {
		if entry.disabled() {
			continue
		}
		if !strings.Contains(strings.ToLower(entry.Name), needle) {
			continue
		}
		matches = append(matches, SavedSearchMatch{
			Name:        entry.Name,
			Description: entry.contentString("description"),
			SPL:         entry.contentString("search"),
			Disabled:    entry.disabled(),
		})
	}

	return prettyJSON(patternEnvelope{
		Status:        "success",
		App:           app,
		Pattern:       pattern,
		Count:         len(matches),
		SavedSearches: matches,
	})
}

func errorJSON(message string) string {
	return prettyJSON(errorEnvelope{Status: "error", Error: message})
}

func prettyJSON(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Envelope types always marshal; this path guards future edits.
		return fmt.Sprintf(`{"status": "error", "error": %q}`, err.Error())
	}
	return string(encoded)
}
