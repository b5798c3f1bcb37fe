package netfault

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	json "github.com/alpkeskin/gotoon"
)

// newBackend starts a TLS test server that serves canned saved-search
// results keyed by saved_search_name, and an agent wired against it.
func newBackend(t *testing.T, results map[string]string) (*Agent, *atomic.Int64) {
	t.Helper()

	requests := &atomic.Int64{}
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		name, _ := req["saved_search_name"].(string)
		if _, ok := req["time_range"].(string); !ok {
			t.Errorf("expected time_range in request body, got %s", body)
		}

		canned, ok := results[name]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(canned))
	}))
	t.Cleanup(server.Close)

	// The backend URL carries a trailing slash; the agent appends "search"
	// by naive concatenation.
	return New(server.URL+"/", "sekrit"), requests
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, raw)
	}
	return out
}

func TestGetDelayedNodes_FillsSlot(t *testing.T) {
	agent, requests := newBackend(t, map[string]string{
		"get_delayed_nodes": `{"results": [{"device_name": "R1"}]}`,
	})

	out := decode(t, agent.GetDelayedNodes(context.Background(), ""))
	if out["slot"] != "delayed_nodes" || out["status"] != "filled" {
		t.Fatalf("unexpected envelope: %v", out)
	}
	data := out["data"].(map[string]any)
	if len(data["results"].([]any)) != 1 {
		t.Errorf("unexpected data: %v", data)
	}

	slot := agent.slots[slotDelayedNodes]
	if !slot.Filled || slot.Value == nil {
		t.Errorf("expected slot to be filled with the raw result")
	}
	if agent.slots[slotNetworkTopology].Filled {
		t.Errorf("topology slot must stay unfilled")
	}
	if requests.Load() != 1 {
		t.Errorf("expected 1 backend request, got %d", requests.Load())
	}
}

func TestGetNetworkTopology_FillsSlotOnBackendError(t *testing.T) {
	agent, _ := newBackend(t, map[string]string{}) // every search 500s

	out := decode(t, agent.GetNetworkTopology(context.Background(), "1h"))
	data := out["data"].(map[string]any)
	if data["error"] != "Search execution failed: 500" {
		t.Errorf("unexpected error payload: %v", data)
	}
	if data["search_name"] != "get_network_topology" {
		t.Errorf("expected search name in error payload, got %v", data)
	}

	// The slot fills unconditionally, error envelope included.
	if !agent.slots[slotNetworkTopology].Filled {
		t.Errorf("expected slot to be filled despite the backend error")
	}
}

func TestExecuteSavedSearch_TransportError(t *testing.T) {
	agent := New("https://127.0.0.1:1/", "sekrit")

	result := agent.executeSavedSearch(context.Background(), "get_delayed_nodes", "24h")
	msg, _ := result["error"].(string)
	if !strings.HasPrefix(msg, "Exception during search execution: ") {
		t.Errorf("unexpected error payload: %v", result)
	}
	if result["search_name"] != "get_delayed_nodes" {
		t.Errorf("expected search name in error payload, got %v", result)
	}
}

func TestRunSavedSearch_ClassifiesFailures(t *testing.T) {
	failing, _ := newBackend(t, map[string]string{}) // 500 for everything
	if _, callErr := failing.runSavedSearch(context.Background(), "x", "24h"); callErr == nil || callErr.kind != callHTTPStatus || callErr.status != 500 {
		t.Errorf("expected http-status classification, got %+v", callErr)
	}

	unreachable := New("https://127.0.0.1:1/", "sekrit")
	if _, callErr := unreachable.runSavedSearch(context.Background(), "x", "24h"); callErr == nil || callErr.kind != callConnectionFailed {
		t.Errorf("expected connection-failed classification, got %+v", callErr)
	}

	malformed, _ := newBackend(t, map[string]string{"x": `{"results": [`})
	if _, callErr := malformed.runSavedSearch(context.Background(), "x", "24h"); callErr == nil || callErr.kind != callDecodeError {
		t.Errorf("expected decode-error classification, got %+v", callErr)
	}
}

func TestExecuteSavedSearch_MalformedBody(t *testing.T) {
	agent, _ := newBackend(t, map[string]string{
		"get_delayed_nodes": `{"results": [`,
	})

	result := agent.executeSavedSearch(context.Background(), "get_delayed_nodes", "24h")
	msg, _ := result["error"].(string)
	if !strings.HasPrefix(msg, "Exception during search execution: ") {
		t.Errorf("unexpected error payload: %v", result)
	}
}

func TestAnalyzeNetworkFault_SequentialWorkflow(t *testing.T) {
	agent, requests := newBackend(t, map[string]string{
		"get_delayed_nodes":    `{"results": [{"device_name": "R1"}]}`,
		"get_network_topology": `{"results": [{"status": "critical"}]}`,
	})

	out := decode(t, agent.AnalyzeNetworkFault(context.Background(), ""))
	if out["status"] != "analysis_complete" {
		t.Fatalf("unexpected status: %v", out)
	}
	if requests.Load() != 2 {
		t.Errorf("expected 2 backend requests, got %d", requests.Load())
	}

	diagnosis := out["diagnosis"].(map[string]any)
	if diagnosis["primary_issue"] != "Network connectivity issue detected" {
		t.Errorf("expected topology priority, got %v", diagnosis["primary_issue"])
	}
	nodes := diagnosis["affected_nodes"].([]any)
	if len(nodes) != 1 || nodes[0] != "R1" {
		t.Errorf("unexpected affected nodes: %v", nodes)
	}

	if !agent.slots[slotDelayedNodes].Filled || !agent.slots[slotNetworkTopology].Filled {
		t.Errorf("expected both slots filled after analysis")
	}
}

func TestGenerateDiagnosisReport_RequiresFilledSlots(t *testing.T) {
	agent := New("https://127.0.0.1:1/", "sekrit")

	raw := agent.GenerateDiagnosisReport()
	out := decode(t, raw)
	if out["error"] != "Not all slots are filled" {
		t.Fatalf("unexpected envelope: %v", out)
	}

	unfilled := out["unfilled_slots"].([]any)
	if len(unfilled) != 2 || unfilled[0] != "delayed_nodes" || unfilled[1] != "network_topology" {
		t.Errorf("expected both slot names in defined order, got %v", unfilled)
	}
	if out["message"] != "Please collect data first using get_delayed_nodes and get_network_topology" {
		t.Errorf("unexpected message: %v", out["message"])
	}
	// This error path is the one envelope emitted compact, matching the
	// upstream wire format.
	if strings.Contains(raw, "\n") {
		t.Errorf("expected compact JSON for the precondition error, got:\n%s", raw)
	}
}

func TestGenerateDiagnosisReport_Idempotent(t *testing.T) {
	agent, requests := newBackend(t, map[string]string{
		"get_delayed_nodes":    `{"results": [{"device_name": "R7"}]}`,
		"get_network_topology": `{"results": []}`,
	})

	agent.GetDelayedNodes(context.Background(), "")
	agent.GetNetworkTopology(context.Background(), "")
	fetches := requests.Load()

	first := agent.GenerateDiagnosisReport()
	second := agent.GenerateDiagnosisReport()
	if first != second {
		t.Errorf("report is not idempotent:\n%s\n---\n%s", first, second)
	}
	if requests.Load() != fetches {
		t.Errorf("report generation must not refetch (had %d, now %d)", fetches, requests.Load())
	}

	out := decode(t, first)
	if out["report_type"] != "Network Fault Analysis" || out["status"] != "completed" {
		t.Errorf("unexpected report envelope: %v", out)
	}
	findings := out["findings"].(map[string]any)
	if len(findings["delayed_nodes"].([]any)) != 1 {
		t.Errorf("unexpected findings: %v", findings)
	}
	if len(findings["network_topology"].([]any)) != 0 {
		t.Errorf("expected empty topology findings, got %v", findings)
	}
	steps := out["next_steps"].([]any)
	if len(steps) != 4 {
		t.Errorf("expected the fixed 4-step list, got %v", steps)
	}
}

func TestSlotStatus(t *testing.T) {
	agent, _ := newBackend(t, map[string]string{
		"get_delayed_nodes": `{"results": []}`,
	})

	out := decode(t, agent.SlotStatus())
	if out["total_slots"] != float64(2) || out["filled_slots"] != float64(0) {
		t.Fatalf("unexpected initial status: %v", out)
	}

	agent.GetDelayedNodes(context.Background(), "")

	out = decode(t, agent.SlotStatus())
	if out["filled_slots"] != float64(1) {
		t.Errorf("expected 1 filled slot, got %v", out["filled_slots"])
	}
	slots := out["slots"].(map[string]any)
	delayed := slots["delayed_nodes"].(map[string]any)
	if delayed["filled"] != true || delayed["description"] != "Network nodes experiencing high latency" {
		t.Errorf("unexpected slot entry: %v", delayed)
	}
	topology := slots["network_topology"].(map[string]any)
	if topology["filled"] != false {
		t.Errorf("expected topology slot unfilled, got %v", topology)
	}
}

// Slot state is shared per process and written without locking; overlapping
// runs interleave writes. That mirrors the upstream design, so the test
// documents the single-writer expectation instead of exercising a race.
func TestSlots_OverwrittenInPlace(t *testing.T) {
	agent, _ := newBackend(t, map[string]string{
		"get_delayed_nodes": `{"results": [{"device_name": "R1"}]}`,
	})

	agent.GetDelayedNodes(context.Background(), "")
	first := agent.slots[slotDelayedNodes].Value

	agent.GetDelayedNodes(context.Background(), "")
	if !agent.slots[slotDelayedNodes].Filled {
		t.Fatalf("slot must never flip back to unfilled")
	}
	second := agent.slots[slotDelayedNodes].Value
	if first == nil || second == nil {
		t.Errorf("expected both runs to store a value")
	}
}
