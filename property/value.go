package property

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/internal/notify"
)

// ValueType is the element type of a property.
type ValueType string

const (
	TypeDouble ValueType = "double"
	TypeInt    ValueType = "int"
	TypeString ValueType = "string"
	TypeProxy  ValueType = "proxy"
)

// ErrInvalidValue reports a value that cannot be coerced to the property type.
var ErrInvalidValue = errors.New("property: invalid value")

type event struct {
	source *Value
	kind   proxylist.EventKind
}

// Value is a vector property with a checked and an unchecked value. Setting
// the checked value also resets the unchecked one. Observers only hear about
// actual changes.
type Value struct {
	name      string
	typ       ValueType
	parent    *Object
	checked   []any
	unchecked []any
	observers *notify.Registry[event]
	logger    proxylist.Logger
}

func newValue(name string, typ ValueType, parent *Object, logger proxylist.Logger) *Value {
	if logger == nil {
		logger = proxylist.NoopLogger()
	}
	return &Value{
		name:      name,
		typ:       typ,
		parent:    parent,
		observers: notify.NewRegistry[event](),
		logger:    logger,
	}
}

func (v *Value) Name() string { return v.name }

// Type returns the element type.
func (v *Value) Type() ValueType { return v.typ }

func (v *Value) Kind() proxylist.PropertyKind {
	if v.typ == TypeProxy {
		return proxylist.KindProxy
	}
	return proxylist.KindScalar
}

func (v *Value) Parent() proxylist.Proxy {
	if v.parent == nil {
		return nil
	}
	return v.parent
}

func (v *Value) Subscribe(kind proxylist.EventKind, observer proxylist.Observer) proxylist.Handle {
	if observer == nil {
		return 0
	}
	return proxylist.Handle(v.observers.Add(func(ev event) {
		if ev.kind == kind {
			observer(ev.source, ev.kind)
		}
	}))
}

func (v *Value) Unsubscribe(h proxylist.Handle) bool {
	return v.observers.Remove(notify.Handle(h))
}

// ObserverCount returns the number of live subscriptions.
func (v *Value) ObserverCount() int { return v.observers.Len() }

// Values returns a copy of the checked or unchecked value.
func (v *Value) Values(unchecked bool) []any {
	src := v.checked
	if unchecked {
		src = v.unchecked
	}
	if len(src) == 0 {
		return nil
	}
	return append([]any(nil), src...)
}

// SetValues implements proxylist.ValueProperty. Values that cannot be coerced
// leave the property unchanged and are logged.
func (v *Value) SetValues(values []any, unchecked bool) {
	if err := v.Set(values, unchecked); err != nil {
		v.logger.Warn("property: rejected value", "property", v.name, "error", err)
	}
}

// Set coerces values to the property type and stores them.
func (v *Value) Set(values []any, unchecked bool) error {
	coerced, err := coerceAll(v.typ, values)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.name, err)
	}
	if unchecked {
		v.assignUnchecked(coerced)
		return nil
	}
	v.assignChecked(coerced)
	return nil
}

func (v *Value) assignChecked(values []any) {
	if equalValues(v.checked, values) && equalValues(v.unchecked, values) {
		return
	}
	v.checked = values
	v.unchecked = append([]any(nil), values...)
	v.observers.Notify(event{source: v, kind: proxylist.PropertyModified})
}

func (v *Value) assignUnchecked(values []any) {
	if equalValues(v.unchecked, values) {
		return
	}
	v.unchecked = values
	v.observers.Notify(event{source: v, kind: proxylist.UncheckedPropertyModified})
}

// Copy copies the checked and unchecked values of src.
func (v *Value) Copy(src proxylist.Property) {
	from, ok := src.(proxylist.ValueProperty)
	if !ok || from == nil {
		return
	}
	v.SetValues(from.Values(false), false)
	v.SetValues(from.Values(true), true)
}

// Proxies returns the proxies held by a proxy-valued property.
func (v *Value) Proxies(unchecked bool) []proxylist.Proxy {
	values := v.Values(unchecked)
	out := make([]proxylist.Proxy, 0, len(values))
	for _, value := range values {
		if p, ok := value.(proxylist.Proxy); ok && p != nil {
			out = append(out, p)
		}
	}
	return out
}

// SetProxies implements proxylist.ProxyValued.
func (v *Value) SetProxies(proxies []proxylist.Proxy, unchecked bool) {
	values := make([]any, len(proxies))
	for i, p := range proxies {
		values[i] = p
	}
	v.SetValues(values, unchecked)
}

func coerceAll(typ ValueType, values []any) ([]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]any, len(values))
	for i, value := range values {
		coerced, err := coerce(typ, value)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = coerced
	}
	return out, nil
}

func coerce(typ ValueType, value any) (any, error) {
	switch typ {
	case TypeDouble:
		return cast.ToFloat64E(value)
	case TypeInt:
		return cast.ToIntE(value)
	case TypeString:
		return cast.ToStringE(value)
	case TypeProxy:
		if value == nil {
			return nil, nil
		}
		if p, ok := value.(proxylist.Proxy); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%T is not a proxy", value)
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
}

func equalValues(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
