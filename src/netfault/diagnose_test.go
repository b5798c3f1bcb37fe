package netfault

import (
	"reflect"
	"testing"
)

func TestDiagnoseFault_LatencyOnly(t *testing.T) {
	delayed := map[string]any{"results": []any{
		map[string]any{"device_name": "R1", "delay_ms": 420.0},
		map[string]any{"device_name": "R2"},
		map[string]any{"hostname": "no-device-field"},
	}}
	topology := map[string]any{"results": []any{
		map[string]any{"status": "healthy"},
	}}

	diagnosis := diagnoseFault(delayed, topology)

	if diagnosis.PrimaryIssue == nil || *diagnosis.PrimaryIssue != "High network latency detected" {
		t.Fatalf("unexpected primary issue: %v", diagnosis.PrimaryIssue)
	}
	if !reflect.DeepEqual(diagnosis.AffectedNodes, []string{"R1", "R2", "unknown"}) {
		t.Errorf("unexpected affected nodes: %v", diagnosis.AffectedNodes)
	}
	if len(diagnosis.Recommendations) != 4 {
		t.Fatalf("expected 1 specific + 3 general recommendations, got %v", diagnosis.Recommendations)
	}
	if diagnosis.Recommendations[0] != "Investigate network device performance on affected nodes" {
		t.Errorf("unexpected first recommendation: %q", diagnosis.Recommendations[0])
	}
}

func TestDiagnoseFault_TopologyOverwritesLatency(t *testing.T) {
	delayed := map[string]any{"results": []any{
		map[string]any{"device_name": "R1"},
	}}
	topology := map[string]any{"results": []any{
		map[string]any{"status": "critical", "link": "R1-R3"},
		map[string]any{"status": "degraded"},
	}}

	diagnosis := diagnoseFault(delayed, topology)

	// Connectivity replaces latency as the primary issue; it does not merge.
	if diagnosis.PrimaryIssue == nil || *diagnosis.PrimaryIssue != "Network connectivity issue detected" {
		t.Fatalf("expected topology issue to take priority, got %v", diagnosis.PrimaryIssue)
	}
	// The latency-derived node list survives the overwrite.
	if !reflect.DeepEqual(diagnosis.AffectedNodes, []string{"R1"}) {
		t.Errorf("expected affected nodes [R1], got %v", diagnosis.AffectedNodes)
	}
	if len(diagnosis.Recommendations) != 5 {
		t.Errorf("expected 2 specific + 3 general recommendations, got %v", diagnosis.Recommendations)
	}
}

func TestDiagnoseFault_TopologyOnlyLeavesNodesEmpty(t *testing.T) {
	delayed := map[string]any{"results": []any{}}
	topology := map[string]any{"results": []any{
		map[string]any{"status": "critical"},
	}}

	diagnosis := diagnoseFault(delayed, topology)

	if diagnosis.PrimaryIssue == nil || *diagnosis.PrimaryIssue != "Network connectivity issue detected" {
		t.Fatalf("unexpected primary issue: %v", diagnosis.PrimaryIssue)
	}
	if len(diagnosis.AffectedNodes) != 0 {
		t.Errorf("affected nodes must stay empty without delayed nodes, got %v", diagnosis.AffectedNodes)
	}
}

func TestDiagnoseFault_NoFindings(t *testing.T) {
	diagnosis := diagnoseFault(
		map[string]any{"results": []any{}},
		map[string]any{"results": []any{}},
	)

	if diagnosis.PrimaryIssue != nil {
		t.Errorf("expected nil primary issue, got %v", *diagnosis.PrimaryIssue)
	}
	if len(diagnosis.AffectedNodes) != 0 {
		t.Errorf("expected no affected nodes, got %v", diagnosis.AffectedNodes)
	}
	want := []string{
		"Monitor network performance continuously",
		"Check for capacity saturation",
		"Verify routing configurations",
	}
	if !reflect.DeepEqual(diagnosis.Recommendations, want) {
		t.Errorf("expected exactly the 3 general recommendations, got %v", diagnosis.Recommendations)
	}
}

func TestDiagnoseFault_ToleratesErrorEnvelopes(t *testing.T) {
	// Slot values may be error envelopes with no results key at all.
	delayed := map[string]any{"error": "Search execution failed: 500", "search_name": "get_delayed_nodes"}

	diagnosis := diagnoseFault(delayed, nil)

	if diagnosis.PrimaryIssue != nil {
		t.Errorf("expected nil primary issue, got %v", *diagnosis.PrimaryIssue)
	}
	if len(diagnosis.Recommendations) != 3 {
		t.Errorf("expected only the general recommendations, got %v", diagnosis.Recommendations)
	}
}

func TestResultList(t *testing.T) {
	if got := resultList(nil); len(got) != 0 {
		t.Errorf("expected empty list for nil payload, got %v", got)
	}
	if got := resultList("not a map"); len(got) != 0 {
		t.Errorf("expected empty list for non-object payload, got %v", got)
	}
	if got := resultList(map[string]any{"results": "not a list"}); len(got) != 0 {
		t.Errorf("expected empty list for non-array results, got %v", got)
	}
	if got := resultList(map[string]any{"results": []any{1, 2}}); len(got) != 2 {
		t.Errorf("expected 2 results, got %v", got)
	}
}
