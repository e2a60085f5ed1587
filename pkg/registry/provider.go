package registry

import (
	"context"
	"reflect"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/failure"
	"github.com/pseudomuto/mach/pkg/handler"
)

const autogenerated = "<autogenerated>"

// Target is a descriptor's handler bound to a Base, ready to call.
type Target struct {
	Descriptor *Descriptor

	base *handler.Base
	fn   reflect.Value
}

// Provide registers a command for every method of T that has a declaration
// in commands (keyed by method name). Methods are visited in name order and
// methods promoted from embedded fields are not considered. newFn builds the
// provider for each invocation; name identifies the provider in descriptors.
func Provide[T any](r *Registry, name string, newFn func(*handler.Base) T, commands map[string]*Declaration) error {
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Interface {
		return errors.Errorf("provider %s: %s is an interface", name, typ)
	}

	if newFn == nil {
		return errors.Errorf("provider %s has no constructor", name)
	}

	own := make(map[string]reflect.Method)
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if isOwnMethod(typ, m.Name) {
			own[m.Name] = m
		}
	}

	methods := make([]string, 0, len(commands))
	for method := range commands {
		if _, ok := own[method]; !ok {
			if _, promoted := typ.MethodByName(method); promoted {
				return errors.Errorf("provider %s: method %s is promoted from an embedded field", name, method)
			}

			return errors.Errorf("provider %s: no method %s on %s", name, method, typ)
		}

		methods = append(methods, method)
	}

	sort.Strings(methods)

	descriptors := make([]*Descriptor, 0, len(methods))
	for _, method := range methods {
		m := own[method]

		sig, err := newSignature(m.Type, 1)
		if err != nil {
			return errors.Wrapf(err, "provider %s: method %s", name, method)
		}

		d, err := commands[method].descriptor()
		if err != nil {
			return errors.Wrapf(err, "provider %s", name)
		}

		d.Provider = name
		d.Method = method
		d.Package = failure.PackageOf(funcName(m.Func))
		d.sig = sig
		d.construct = func(b *handler.Base) reflect.Value {
			return reflect.ValueOf(newFn(b))
		}

		descriptors = append(descriptors, d)
	}

	for _, d := range descriptors {
		r.Register(d)
	}

	return nil
}

// RegisterFunc registers fn as the handler of decl.
func RegisterFunc(r *Registry, decl *Declaration, fn any) error {
	if fn == nil {
		return errors.Errorf("command %s has no handler", decl.Name())
	}

	v := reflect.ValueOf(fn)
	sig, err := newSignature(v.Type(), 0)
	if err != nil {
		return errors.Wrapf(err, "command %s", decl.Name())
	}

	d, err := decl.descriptor()
	if err != nil {
		return err
	}

	d.Func = fn
	d.Package = failure.PackageOf(funcName(v))
	d.sig = sig

	r.Register(d)
	return nil
}

// Bind resolves the handler of d against base: class-based descriptors get a
// new provider instance with the named method bound.
func (d *Descriptor) Bind(base *handler.Base) (*Target, error) {
	if d.sig == nil {
		return nil, errors.Errorf("command %s was not registered with a handler", d.Name)
	}

	if d.Func != nil {
		return &Target{Descriptor: d, base: base, fn: reflect.ValueOf(d.Func)}, nil
	}

	inst := d.construct(base)
	if !inst.IsValid() || (inst.Kind() == reflect.Pointer && inst.IsNil()) {
		return nil, errors.Errorf("provider %s returned nil for command %s", d.Provider, d.Name)
	}

	fn := inst.MethodByName(d.Method)
	if !fn.IsValid() {
		return nil, errors.Errorf("provider %s has no method %s", d.Provider, d.Method)
	}

	return &Target{Descriptor: d, base: base, fn: fn}, nil
}

// Call invokes the handler. Panics are not recovered.
func (t *Target) Call(ctx context.Context, args Args) (any, error) {
	return t.Descriptor.sig.call(t.fn, ctx, t.base, args)
}

// isOwnMethod reports whether name is declared on typ (or its element type)
// rather than promoted from an embedded field. Promoted methods only exist as
// compiler generated wrappers.
func isOwnMethod(typ reflect.Type, name string) bool {
	candidates := []reflect.Type{typ}
	if typ.Kind() == reflect.Pointer {
		candidates = append(candidates, typ.Elem())
	}

	for _, t := range candidates {
		m, ok := t.MethodByName(name)
		if !ok {
			continue
		}

		if file, _ := runtime.FuncForPC(m.Func.Pointer()).FileLine(m.Func.Pointer()); file != autogenerated {
			return true
		}
	}

	return !embeds(typ, name)
}

// embeds reports whether any embedded field of typ provides name.
func embeds(typ reflect.Type, name string) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.Anonymous {
			continue
		}

		if _, ok := f.Type.MethodByName(name); ok {
			return true
		}

		if f.Type.Kind() != reflect.Pointer {
			if _, ok := reflect.PointerTo(f.Type).MethodByName(name); ok {
				return true
			}
		}
	}

	return false
}

func funcName(v reflect.Value) string {
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}

	return ""
}
