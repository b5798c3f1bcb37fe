// Package netfault implements the network fault analysis agent: a two-slot
// data-collection workflow against a saved-search execution backend plus a
// fixed-rule diagnosis over the collected payloads.
package netfault

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	json "github.com/alpkeskin/gotoon"
)

const defaultTimeRange = "24h"

// Agent holds the backend session and the two analysis slots. Slot state is
// process-wide and unsynchronised; overlapping analysis runs interleave
// writes. That matches the upstream behaviour and is covered by a test
// rather than a lock.
type Agent struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	slots      map[string]*Slot
}

// New builds an agent against baseURL. The URL is used by naive
// concatenation with "search", so it is expected to carry its trailing
// slash, mirroring the backend's published configuration.
func New(baseURL, authToken string) *Agent {
	return &Agent{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		slots: newSlots(),
	}
}

// NewFromEnv reads SPLUNK_MCP_URL and AUTH_TOKEN.
func NewFromEnv() *Agent {
	return New(os.Getenv("SPLUNK_MCP_URL"), os.Getenv("AUTH_TOKEN"))
}

type searchRequest struct {
	SavedSearchName string `json:"saved_search_name"`
	TimeRange       string `json:"time_range"`
}

// callErrorKind classifies failures at the transport-call boundary.
type callErrorKind int

const (
	callTimeout callErrorKind = iota
	callConnectionFailed
	callHTTPStatus
	callDecodeError
)

type callError struct {
	kind   callErrorKind
	status int
	err    error
}

func (e *callError) Error() string {
	if e.kind == callHTTPStatus {
		return fmt.Sprintf("http status %d", e.status)
	}
	return e.err.Error()
}

// runSavedSearch performs one POST against the backend and classifies the
// failure modes instead of collapsing them into strings.
func (a *Agent) runSavedSearch(ctx context.Context, searchName, timeRange string) (map[string]any, *callError) {
	body, err := json.Marshal(searchRequest{SavedSearchName: searchName, TimeRange: timeRange})
	if err != nil {
		return nil, &callError{kind: callDecodeError, err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"search", bytes.NewReader(body))
	if err != nil {
		return nil, &callError{kind: callConnectionFailed, err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		kind := callConnectionFailed
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			kind = callTimeout
		}
		return nil, &callError{kind: kind, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &callError{kind: callHTTPStatus, status: resp.StatusCode}
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &callError{kind: callDecodeError, err: err}
	}
	return result, nil
}

// executeSavedSearch runs one saved search on the backend. It never returns
// a Go error: every failure kind comes back as an error payload carrying
// the search name, in the backend's established wire format.
func (a *Agent) executeSavedSearch(ctx context.Context, searchName, timeRange string) map[string]any {
	result, callErr := a.runSavedSearch(ctx, searchName, timeRange)
	if callErr == nil {
		return result
	}

	var message string
	if callErr.kind == callHTTPStatus {
		message = fmt.Sprintf("Search execution failed: %d", callErr.status)
	} else {
		message = fmt.Sprintf("Exception during search execution: %v", callErr.err)
	}
	return map[string]any{
		"error":       message,
		"search_name": searchName,
	}
}

func (a *Agent) fillSlot(name string, value any) {
	slot := a.slots[name]
	slot.Value = value
	slot.Filled = true
}

func normalizeTimeRange(timeRange string) string {
	if timeRange == "" {
		return defaultTimeRange
	}
	return timeRange
}

type slotFillResult struct {
	Slot   string `json:"slot"`
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// GetDelayedNodes fetches the delayed-nodes data set and fills its slot.
func (a *Agent) GetDelayedNodes(ctx context.Context, timeRange string) string {
	return a.fetchIntoSlot(ctx, slotDelayedNodes, timeRange)
}

// GetNetworkTopology fetches the topology data set and fills its slot.
func (a *Agent) GetNetworkTopology(ctx context.Context, timeRange string) string {
	return a.fetchIntoSlot(ctx, slotNetworkTopology, timeRange)
}

func (a *Agent) fetchIntoSlot(ctx context.Context, slotName, timeRange string) string {
	slot := a.slots[slotName]
	result := a.executeSavedSearch(ctx, slot.SearchName, normalizeTimeRange(timeRange))
	a.fillSlot(slotName, result)

	return prettyJSON(slotFillResult{
		Slot:   slotName,
		Status: "filled",
		Data:   result,
	})
}

type analysisResult struct {
	Status          string     `json:"status"`
	DelayedNodes    any        `json:"delayed_nodes"`
	NetworkTopology any        `json:"network_topology"`
	Diagnosis       *Diagnosis `json:"diagnosis"`
}

// AnalyzeNetworkFault runs the full workflow: both fetches strictly in
// sequence (topology only starts after the delayed-nodes fetch resolves),
// both slots filled, then the diagnosis computed over the fresh payloads.
func (a *Agent) AnalyzeNetworkFault(ctx context.Context, timeRange string) string {
	timeRange = normalizeTimeRange(timeRange)

	delayed := a.executeSavedSearch(ctx, a.slots[slotDelayedNodes].SearchName, timeRange)
	a.fillSlot(slotDelayedNodes, delayed)

	topology := a.executeSavedSearch(ctx, a.slots[slotNetworkTopology].SearchName, timeRange)
	a.fillSlot(slotNetworkTopology, topology)

	diagnosis := diagnoseFault(delayed, topology)
	return prettyJSON(analysisResult{
		Status:          "analysis_complete",
		DelayedNodes:    delayed,
		NetworkTopology: topology,
		Diagnosis:       &diagnosis,
	})
}

type unfilledError struct {
	Error         string   `json:"error"`
	UnfilledSlots []string `json:"unfilled_slots"`
	Message       string   `json:"message"`
}

type reportFindings struct {
	DelayedNodes    []any `json:"delayed_nodes"`
	NetworkTopology []any `json:"network_topology"`
}

type diagnosisReport struct {
	ReportType string         `json:"report_type"`
	Status     string         `json:"status"`
	Findings   reportFindings `json:"findings"`
	Diagnosis  Diagnosis      `json:"diagnosis"`
	NextSteps  []string       `json:"next_steps"`
}

// GenerateDiagnosisReport recomputes the diagnosis from the current slot
// values. It is a pure function of slot state: calling it twice without
// re-fetching yields identical output. With unfilled slots it returns the
// precondition error envelope (compact, no status wrapper - wire
// compatibility with existing consumers).
func (a *Agent) GenerateDiagnosisReport() string {
	unfilled := make([]string, 0)
	for _, name := range slotOrder {
		if !a.slots[name].Filled {
			unfilled = append(unfilled, name)
		}
	}
	if len(unfilled) > 0 {
		return compactJSON(unfilledError{
			Error:         "Not all slots are filled",
			UnfilledSlots: unfilled,
			Message:       "Please collect data first using get_delayed_nodes and get_network_topology",
		})
	}

	delayed := a.slots[slotDelayedNodes].Value
	topology := a.slots[slotNetworkTopology].Value
	return prettyJSON(diagnosisReport{
		ReportType: "Network Fault Analysis",
		Status:     "completed",
		Findings: reportFindings{
			DelayedNodes:    resultList(delayed),
			NetworkTopology: resultList(topology),
		},
		Diagnosis: diagnoseFault(delayed, topology),
		NextSteps: []string{
			"1. Review affected nodes in detail",
			"2. Check network device logs",
			"3. Implement mitigation measures if needed",
			"4. Monitor for recurring issues",
		},
	})
}

type slotStatus struct {
	Filled      bool   `json:"filled"`
	Description string `json:"description"`
}

type slotStatusReport struct {
	TotalSlots  int                   `json:"total_slots"`
	FilledSlots int                   `json:"filled_slots"`
	Slots       map[string]slotStatus `json:"slots"`
}

// SlotStatus returns a snapshot of the slot fill state. No side effects.
func (a *Agent) SlotStatus() string {
	filled := 0
	slots := make(map[string]slotStatus, len(a.slots))
	for name, slot := range a.slots {
		if slot.Filled {
			filled++
		}
		slots[name] = slotStatus{Filled: slot.Filled, Description: slot.Description}
	}

	return prettyJSON(slotStatusReport{
		TotalSlots:  len(a.slots),
		FilledSlots: filled,
		Slots:       slots,
	})
}

func prettyJSON(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(encoded)
}

func compactJSON(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(encoded)
}
