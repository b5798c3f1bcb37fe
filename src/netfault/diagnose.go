package netfault

import "fmt"

// Diagnosis is the fixed-rule verdict computed over the two slot payloads.
// PrimaryIssue stays null when neither rule fires; AffectedNodes stays empty
// unless delayed nodes were found, even when topology issues exist.
type Diagnosis struct {
	PrimaryIssue    *string  `json:"primary_issue"`
	AffectedNodes   []string `json:"affected_nodes"`
	Recommendations []string `json:"recommendations"`
}

// resultList extracts the "results" array from a fetched payload, tolerating
// error envelopes and non-object payloads.
func resultList(payload any) []any {
	m, ok := payload.(map[string]any)
	if !ok {
		return []any{}
	}
	list, ok := m["results"].([]any)
	if !ok {
		return []any{}
	}
	return list
}

// diagnoseFault applies the diagnosis rules. Topology issues take priority:
// when both rules fire, the connectivity issue overwrites the latency issue
// rather than merging with it.
func diagnoseFault(delayedNodes, topology any) Diagnosis {
	diagnosis := Diagnosis{
		AffectedNodes:   []string{},
		Recommendations: []string{},
	}

	delayed := resultList(delayedNodes)
	if len(delayed) > 0 {
		issue := "High network latency detected"
		diagnosis.PrimaryIssue = &issue
		for _, node := range delayed {
			deviceName := "unknown"
			if m, ok := node.(map[string]any); ok {
				if raw, exists := m["device_name"]; exists {
					deviceName = fmt.Sprint(raw)
				}
			}
			diagnosis.AffectedNodes = append(diagnosis.AffectedNodes, deviceName)
		}
		diagnosis.Recommendations = append(diagnosis.Recommendations,
			"Investigate network device performance on affected nodes")
	}

	critical := 0
	for _, entry := range resultList(topology) {
		if m, ok := entry.(map[string]any); ok {
			if status, _ := m["status"].(string); status == "critical" {
				critical++
			}
		}
	}
	if critical > 0 {
		issue := "Network connectivity issue detected"
		diagnosis.PrimaryIssue = &issue
		diagnosis.Recommendations = append(diagnosis.Recommendations,
			"Check network device status and connectivity")
	}

	diagnosis.Recommendations = append(diagnosis.Recommendations,
		"Monitor network performance continuously",
		"Check for capacity saturation",
		"Verify routing configurations",
	)

	return diagnosis
}
