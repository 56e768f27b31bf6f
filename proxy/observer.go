package proxy

import "github.com/tailored-agentic-units/bridge/observability"

const (
	EventCallStart    observability.EventType = "proxy.call.start"
	EventCallComplete observability.EventType = "proxy.call.complete"
	EventCallError    observability.EventType = "proxy.call.error"

	EventRegister   observability.EventType = "listener.register"
	EventUnregister observability.EventType = "listener.unregister"
	EventDispatch   observability.EventType = "listener.dispatch"
	EventError      observability.EventType = "listener.error"
)
