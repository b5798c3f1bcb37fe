package netfault

// Slot is a named placeholder for one category of fetched diagnostic data.
// A slot is filled unconditionally after its fetch completes, whether the
// stored value is a result payload or an error envelope, and it is never
// reset: a fresh analysis overwrites Value in place.
type Slot struct {
	Name        string
	Description string
	SearchName  string
	Filled      bool
	Value       any
}

const (
	slotDelayedNodes    = "delayed_nodes"
	slotNetworkTopology = "network_topology"
)

// slotOrder fixes the reporting order of the two slots.
var slotOrder = []string{slotDelayedNodes, slotNetworkTopology}

func newSlots() map[string]*Slot {
	return map[string]*Slot{
		slotDelayedNodes: {
			Name:        slotDelayedNodes,
			Description: "Network nodes experiencing high latency",
			SearchName:  "get_delayed_nodes",
		},
		slotNetworkTopology: {
			Name:        slotNetworkTopology,
			Description: "Network topology and connection status",
			SearchName:  "get_network_topology",
		},
	}
}
