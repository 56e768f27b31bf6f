package messaging

import "time"

type MessageBuilder struct {
	message *Message
}

func NewMessage(command string, messageType MessageType, data any) *MessageBuilder {
	return &MessageBuilder{
		message: &Message{
			ID:        generateID(),
			Command:   command,
			Type:      messageType,
			Data:      data,
			Timestamp: time.Now(),
		},
	}
}

func NewRequest(command string, data any) *MessageBuilder {
	return NewMessage(command, MessageTypeRequest, data)
}

// NewResponse builds the reply to request. The reply keeps the request's
// command and points back at it through ReplyTo.
func NewResponse(request *Message, data any) *MessageBuilder {
	return NewMessage(request.Command, MessageTypeResponse, data).ReplyTo(request.ID)
}

func NewFaultResponse(request *Message, fault *Fault) *MessageBuilder {
	return NewResponse(request, nil).Fault(fault)
}

func (mb *MessageBuilder) ReplyTo(replyTo string) *MessageBuilder {
	mb.message.ReplyTo = replyTo
	return mb
}

func (mb *MessageBuilder) Fault(fault *Fault) *MessageBuilder {
	mb.message.Fault = fault
	return mb
}

func (mb *MessageBuilder) Build() *Message {
	return mb.message
}
