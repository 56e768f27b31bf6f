package messaging_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/bridge/messaging"
)

func TestMessage_Builders(t *testing.T) {
	request := messaging.NewRequest("proxyStorage", "payload").Build()

	tests := []struct {
		name        string
		msg         *messaging.Message
		wantType    messaging.MessageType
		wantReplyTo string
	}{
		{
			name:     "NewRequest",
			msg:      request,
			wantType: messaging.MessageTypeRequest,
		},
		{
			name:        "NewResponse",
			msg:         messaging.NewResponse(request, "result").Build(),
			wantType:    messaging.MessageTypeResponse,
			wantReplyTo: request.ID,
		},
		{
			name:        "NewFaultResponse",
			msg:         messaging.NewFaultResponse(request, messaging.NewFault("backend", "boom")).Build(),
			wantType:    messaging.MessageTypeResponse,
			wantReplyTo: request.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", tt.msg.Type, tt.wantType)
			}
			if tt.msg.Command != "proxyStorage" {
				t.Errorf("Command = %v, want proxyStorage", tt.msg.Command)
			}
			if tt.msg.ReplyTo != tt.wantReplyTo {
				t.Errorf("ReplyTo = %v, want %v", tt.msg.ReplyTo, tt.wantReplyTo)
			}
			if tt.msg.ID == "" {
				t.Error("ID should not be empty")
			}
			if tt.msg.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
}

func TestMessage_Err(t *testing.T) {
	request := messaging.NewRequest("cmd", nil).Build()

	ok := messaging.NewResponse(request, "result").Build()
	if err := ok.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	failed := messaging.NewFaultResponse(request, messaging.NewFault("backend", "boom")).Build()
	err := failed.Err()
	if err == nil {
		t.Fatal("Err() = nil, want fault")
	}
	if err.Error() != "boom" {
		t.Errorf("Err() = %q, want %q", err.Error(), "boom")
	}
}

func TestMessage_String(t *testing.T) {
	msg := messaging.NewRequest("proxyStorage", nil).Build()
	str := msg.String()

	for _, want := range []string{msg.ID, msg.Command, string(msg.Type)} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %v, should contain %v", str, want)
		}
	}
}

func TestMessage_IDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for range 100 {
		msg := messaging.NewRequest("cmd", nil).Build()
		if ids[msg.ID] {
			t.Errorf("Duplicate ID generated: %s", msg.ID)
		}
		ids[msg.ID] = true
	}
}

func TestFault_Is(t *testing.T) {
	errBackend := messaging.NewFault("backend", "backend operation failed")
	errUnknown := messaging.NewFault("unknown_operation", "unknown operation")

	wrapped := errBackend.Wrap(errors.New("quota exceeded"))
	if !errors.Is(wrapped, errBackend) {
		t.Error("errors.Is(wrapped, errBackend) = false, want true")
	}
	if errors.Is(wrapped, errUnknown) {
		t.Error("errors.Is(wrapped, errUnknown) = true, want false")
	}

	// A fault rebuilt from plain data still matches by code.
	remote := messaging.NewFault("backend", wrapped.Message)
	if !errors.Is(remote, errBackend) {
		t.Error("errors.Is(remote, errBackend) = false, want true")
	}

	outer := fmt.Errorf("call failed: %w", remote)
	if !errors.Is(outer, errBackend) {
		t.Error("errors.Is(outer, errBackend) = false, want true")
	}
}

func TestFault_Is_SubCode(t *testing.T) {
	errBackend := messaging.NewFault("backend", "backend operation failed")
	errQuota := errBackend.Sub("quota_exceeded", "quota exceeded")

	if errQuota.Code != "backend.quota_exceeded" {
		t.Errorf("Code = %q, want backend.quota_exceeded", errQuota.Code)
	}

	remote := messaging.NewFault("backend.quota_exceeded", "quota exceeded: 64 bytes")
	if !errors.Is(remote, errQuota) {
		t.Error("errors.Is(remote, errQuota) = false, want true")
	}
	if !errors.Is(remote, errBackend) {
		t.Error("errors.Is(remote, errBackend) = false, want true")
	}
	if errors.Is(errBackend, errQuota) {
		t.Error("errors.Is(errBackend, errQuota) = true, want false")
	}
	if errors.Is(messaging.NewFault("backendx", "x"), errBackend) {
		t.Error("errors.Is(backendx, errBackend) = true, want false")
	}
}

func TestFault_Wrap(t *testing.T) {
	cause := errors.New("disk full")
	fault := messaging.NewFault("backend", "backend operation failed").Wrap(cause)

	if fault.Message != "backend operation failed: disk full" {
		t.Errorf("Message = %q, want %q", fault.Message, "backend operation failed: disk full")
	}
	if !errors.Is(fault, cause) {
		t.Error("errors.Is(fault, cause) = false, want true")
	}
}

func TestAsFault(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: messaging.CodeHandler,
			wantMsg:  "boom",
		},
		{
			name:     "fault",
			err:      messaging.NewFault("backend", "failed"),
			wantCode: "backend",
			wantMsg:  "failed",
		},
		{
			name:     "wrapped fault",
			err:      fmt.Errorf("save: %w", messaging.NewFault("backend", "failed")),
			wantCode: "backend",
			wantMsg:  "save: failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fault := messaging.AsFault(tt.err)
			if fault.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", fault.Code, tt.wantCode)
			}
			if fault.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", fault.Message, tt.wantMsg)
			}
			if fault.Unwrap() != nil {
				t.Error("AsFault() kept a cause, want plain data only")
			}
		})
	}

	if messaging.AsFault(nil) != nil {
		t.Error("AsFault(nil) should be nil")
	}
}

func TestNormalize(t *testing.T) {
	type settings struct {
		Theme string `json:"theme"`
		Size  int    `json:"size"`
	}

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"nil", nil, nil},
		{"string", "dark", "dark"},
		{"int becomes float64", 42, float64(42)},
		{"bool", true, true},
		{"struct becomes map", settings{Theme: "dark", Size: 3}, map[string]any{"theme": "dark", "size": float64(3)}},
		{"slice", []string{"a", "b"}, []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := messaging.Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNormalize_DeepCopy(t *testing.T) {
	input := map[string]any{"nested": map[string]any{"k": "v"}}

	got, err := messaging.Normalize(input)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	input["nested"].(map[string]any)["k"] = "changed"

	if got.(map[string]any)["nested"].(map[string]any)["k"] != "v" {
		t.Error("Normalize() shares memory with its input")
	}
}

func TestNormalize_NotSerializable(t *testing.T) {
	_, err := messaging.Normalize(make(chan int))
	if !errors.Is(err, messaging.ErrNotSerializable) {
		t.Errorf("Normalize(chan) error = %v, want ErrNotSerializable", err)
	}
}

func TestWire_RoundTrip(t *testing.T) {
	request := messaging.NewRequest("proxyStorage", map[string]any{
		"method": "save",
		"args":   []any{"settings.theme", "dark"},
	}).Build()

	st, err := messaging.ToStruct(request)
	if err != nil {
		t.Fatalf("ToStruct() error = %v", err)
	}

	got, err := messaging.FromStruct(st)
	if err != nil {
		t.Fatalf("FromStruct() error = %v", err)
	}

	if got.ID != request.ID || got.Command != request.Command || got.Type != request.Type {
		t.Errorf("FromStruct() = %v, want %v", got, request)
	}
	if !got.Timestamp.Equal(request.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, request.Timestamp)
	}
	if !reflect.DeepEqual(got.Data, request.Data) {
		t.Errorf("Data = %#v, want %#v", got.Data, request.Data)
	}
}

func TestWire_Fault(t *testing.T) {
	request := messaging.NewRequest("proxyStorage", nil).Build()
	response := messaging.NewFaultResponse(request, messaging.NewFault("unknown_operation", "unknown operation: drop")).Build()

	st, err := messaging.ToStruct(response)
	if err != nil {
		t.Fatalf("ToStruct() error = %v", err)
	}

	got, err := messaging.FromStruct(st)
	if err != nil {
		t.Fatalf("FromStruct() error = %v", err)
	}

	if got.ReplyTo != request.ID {
		t.Errorf("ReplyTo = %q, want %q", got.ReplyTo, request.ID)
	}
	if !errors.Is(got.Err(), messaging.NewFault("unknown_operation", "")) {
		t.Errorf("Err() = %v, want unknown_operation fault", got.Err())
	}
}

func TestFromStruct_Malformed(t *testing.T) {
	msg := &messaging.Message{Command: "cmd", Type: messaging.MessageTypeRequest, Timestamp: time.Now()}

	st, err := messaging.ToStruct(msg)
	if err != nil {
		t.Fatalf("ToStruct() error = %v", err)
	}

	if _, err := messaging.FromStruct(st); !errors.Is(err, messaging.ErrMalformed) {
		t.Errorf("FromStruct() error = %v, want ErrMalformed", err)
	}
	if _, err := messaging.FromStruct(nil); !errors.Is(err, messaging.ErrMalformed) {
		t.Errorf("FromStruct(nil) error = %v, want ErrMalformed", err)
	}
}
