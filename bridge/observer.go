package bridge

import "github.com/tailored-agentic-units/bridge/observability"

// Runtime lifecycle events.
const (
	EventStart observability.EventType = "bridge.start"
	EventServe observability.EventType = "bridge.serve"
	EventClose observability.EventType = "bridge.close"
)
