package registry

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/handler"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	baseType    = reflect.TypeFor[*handler.Base]()
	argsType    = reflect.TypeFor[Args]()
	errorType   = reflect.TypeFor[error]()
)

type (
	input int

	// signature describes how to call a handler function.
	signature struct {
		inputs   []input
		hasValue bool
		hasError bool
	}
)

const (
	inContext input = iota
	inBase
	inArgs
)

// newSignature validates ft, skipping the first skip inputs (the receiver of
// a method expression).
func newSignature(ft reflect.Type, skip int) (*signature, error) {
	if ft.Kind() != reflect.Func {
		return nil, errors.Errorf("handler must be a function, got %s", ft)
	}

	if ft.IsVariadic() {
		return nil, errors.Errorf("unsupported handler signature %s: variadic", ft)
	}

	sig := new(signature)
	for i := skip; i < ft.NumIn(); i++ {
		switch ft.In(i) {
		case contextType:
			sig.inputs = append(sig.inputs, inContext)
		case baseType:
			sig.inputs = append(sig.inputs, inBase)
		case argsType:
			sig.inputs = append(sig.inputs, inArgs)
		default:
			return nil, errors.Errorf("unsupported handler signature %s: cannot inject %s", ft, ft.In(i))
		}
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			sig.hasError = true
		} else {
			sig.hasValue = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.Errorf("unsupported handler signature %s: second result must be error", ft)
		}

		sig.hasValue = true
		sig.hasError = true
	default:
		return nil, errors.Errorf("unsupported handler signature %s: too many results", ft)
	}

	return sig, nil
}

func (s *signature) call(fn reflect.Value, ctx context.Context, base *handler.Base, args Args) (any, error) {
	in := make([]reflect.Value, len(s.inputs))
	for i, kind := range s.inputs {
		switch kind {
		case inContext:
			in[i] = reflect.ValueOf(&ctx).Elem()
		case inBase:
			in[i] = reflect.ValueOf(base)
		case inArgs:
			in[i] = reflect.ValueOf(args)
		}
	}

	out := fn.Call(in)

	var (
		result any
		err    error
	)

	if s.hasValue {
		result = out[0].Interface()
	}

	if s.hasError {
		if e := out[len(out)-1].Interface(); e != nil {
			err = e.(error)
		}
	}

	return result, err
}
