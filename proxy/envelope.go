package proxy

import "fmt"

// StorageCommand is the command identifier shared by every Proxy and
// Listener.
const StorageCommand = "proxyStorage"

// Operation names a storage.Backend method.
type Operation string

const (
	OpGet    Operation = "get"
	OpHas    Operation = "has"
	OpSave   Operation = "save"
	OpRemove Operation = "remove"
)

// Envelope is the request payload sent under StorageCommand.
type Envelope struct {
	Method Operation `json:"method"`
	Args   []any     `json:"args"`
}

// ParseEnvelope reads an Envelope from plain data received on a channel.
func ParseEnvelope(payload any) (Envelope, error) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return Envelope{}, ErrBadArguments.Wrapf("envelope is %T, want object", payload)
	}

	method, ok := fields["method"].(string)
	if !ok {
		return Envelope{}, ErrBadArguments.Wrapf("method is %T, want string", fields["method"])
	}

	env := Envelope{Method: Operation(method)}

	switch args := fields["args"].(type) {
	case nil:
		env.Args = []any{}
	case []any:
		env.Args = args
	default:
		return Envelope{}, ErrBadArguments.Wrapf("args is %T, want list", args)
	}

	return env, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("%s(%d args)", e.Method, len(e.Args))
}
