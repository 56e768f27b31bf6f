package messaging

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct encodes msg as a protobuf Struct. The payload is normalized first,
// so the Struct never shares memory with msg.
func ToStruct(msg *Message) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":        msg.ID,
		"command":   msg.Command,
		"type":      string(msg.Type),
		"timestamp": msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	if msg.ReplyTo != "" {
		fields["reply_to"] = msg.ReplyTo
	}

	if msg.Data != nil {
		data, err := Normalize(msg.Data)
		if err != nil {
			return nil, err
		}
		fields["data"] = data
	}

	if msg.Fault != nil {
		fields["fault"] = map[string]any{
			"code":    msg.Fault.Code,
			"message": msg.Fault.Message,
		}
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return st, nil
}

// FromStruct decodes a Message previously encoded with ToStruct. Messages
// without an ID, command or type fail with ErrMalformed.
func FromStruct(st *structpb.Struct) (*Message, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: empty struct", ErrMalformed)
	}

	fields := st.AsMap()
	msg := &Message{
		Data: fields["data"],
	}
	msg.ID, _ = fields["id"].(string)
	msg.Command, _ = fields["command"].(string)
	msg.ReplyTo, _ = fields["reply_to"].(string)

	messageType, _ := fields["type"].(string)
	msg.Type = MessageType(messageType)

	if msg.ID == "" || msg.Command == "" || msg.Type == "" {
		return nil, fmt.Errorf("%w: missing id, command or type", ErrMalformed)
	}

	if ts, ok := fields["timestamp"].(string); ok {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %v", ErrMalformed, err)
		}
		msg.Timestamp = parsed
	}

	if raw, ok := fields["fault"].(map[string]any); ok {
		code, _ := raw["code"].(string)
		message, _ := raw["message"].(string)
		msg.Fault = NewFault(code, message)
	}

	return msg, nil
}
