// Package messaging provides the message primitives that cross the boundary
// between execution contexts.
//
// Every call made through a channel is a request Message carrying a command
// identifier and a plain-data payload. The receiving context answers with a
// response Message whose ReplyTo names the request ID, carrying either a
// result or a Fault.
//
// # Message Construction
//
//	req := messaging.NewRequest("proxyStorage", payload).Build()
//	resp := messaging.NewResponse(req, result).Build()
//	fail := messaging.NewFaultResponse(req, messaging.NewFault("backend", "quota exceeded")).Build()
//
// # Identifiers
//
// Message IDs are UUIDv7 values. They are time-sortable and unique per call,
// which lets transports that multiplex concurrent calls over one queue or
// connection correlate each reply with the call that produced it.
//
// # Plain Data
//
// Payloads never cross a boundary by reference. Normalize converts any
// JSON-serializable value into a deep copy built only from nil, bool, float64,
// string, []any and map[string]any. ToStruct and FromStruct map a Message onto
// a protobuf Struct for transports that speak protobuf.
//
// # Faults
//
// A Fault is an error that survives the trip across a boundary. Faults compare
// by Code, so errors.Is keeps working on the far side even though the original
// error value is gone.
package messaging
