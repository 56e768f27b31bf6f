package proxy

import (
	"context"

	"github.com/tailored-agentic-units/bridge/storage"
)

// operation is one entry of the listener's dispatch table.
type operation struct {
	arity int
	run   func(ctx context.Context, backend storage.Backend, args []any) (any, error)
}

// operations is the complete set of methods a Listener will invoke. Any
// other method name is an unknown operation.
var operations = map[Operation]operation{
	OpGet: {
		arity: 1,
		run: func(ctx context.Context, backend storage.Backend, args []any) (any, error) {
			return backend.Get(ctx, args[0].(string))
		},
	},
	OpHas: {
		arity: 1,
		run: func(ctx context.Context, backend storage.Backend, args []any) (any, error) {
			return backend.Has(ctx, args[0].(string))
		},
	},
	OpSave: {
		arity: 2,
		run: func(ctx context.Context, backend storage.Backend, args []any) (any, error) {
			return nil, backend.Save(ctx, args[0].(string), args[1])
		},
	},
	OpRemove: {
		arity: 1,
		run: func(ctx context.Context, backend storage.Backend, args []any) (any, error) {
			return nil, backend.Remove(ctx, args[0].(string))
		},
	},
}

// lookup resolves env to its table entry and checks the argument list. The
// first argument of every operation is the key.
func lookup(env Envelope) (operation, error) {
	op, ok := operations[env.Method]
	if !ok {
		return operation{}, ErrUnknownOperation.Wrapf("%q", env.Method)
	}

	if len(env.Args) != op.arity {
		return operation{}, ErrBadArguments.Wrapf("%s takes %d args, got %d", env.Method, op.arity, len(env.Args))
	}

	if _, ok := env.Args[0].(string); !ok {
		return operation{}, ErrBadArguments.Wrapf("%s key is %T, want string", env.Method, env.Args[0])
	}

	return op, nil
}
