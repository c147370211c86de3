package proxylist

import (
	"github.com/goliatone/go-proxylist/xmlnode"
)

// GlobalID is the session-unique identity of a proxy. It is the only thing
// persisted for a listed proxy.
type GlobalID uint64

// Handle identifies one observer subscription on a Property or Domain.
type Handle uint64

// EventKind enumerates property notifications.
type EventKind int

const (
	// PropertyModified fires when the checked value of a property changes.
	PropertyModified EventKind = iota + 1
	// UncheckedPropertyModified fires when the tentative value changes.
	UncheckedPropertyModified
)

func (k EventKind) String() string {
	switch k {
	case PropertyModified:
		return "property_modified"
	case UncheckedPropertyModified:
		return "unchecked_property_modified"
	default:
		return "unknown"
	}
}

// PropertyKind is the closed set of property variants a domain needs to tell
// apart.
type PropertyKind int

const (
	// KindScalar covers int, double and string vector properties.
	KindScalar PropertyKind = iota + 1
	// KindProxy covers properties whose values are proxies.
	KindProxy
)

func (k PropertyKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// Observer receives property notifications synchronously.
type Observer func(source Property, kind EventKind)

// Proxy is a configurable object exposing named properties. Implementations
// are shared with whoever created them; a Domain never destroys them.
type Proxy interface {
	// Group and Name are the declared type identity (XML group and name).
	Group() string
	Name() string
	GlobalID() GlobalID
	Property(name string) (Property, bool)
	// Hints returns the type's hint metadata or nil.
	Hints() *xmlnode.Element
}

// Property is one named setting on a Proxy.
type Property interface {
	Name() string
	Kind() PropertyKind
	// Parent returns the proxy owning the property, or nil.
	Parent() Proxy
	Subscribe(kind EventKind, observer Observer) Handle
	Unsubscribe(handle Handle) bool
	// Copy copies both checked and unchecked values from src.
	Copy(src Property)
}

// ValueProperty is implemented by properties that expose raw values. Link
// transforms require it on both ends.
type ValueProperty interface {
	Property
	Values(unchecked bool) []any
	SetValues(values []any, unchecked bool)
}

// ProxyValued is implemented by properties that accept proxies as values.
type ProxyValued interface {
	SetProxies(values []Proxy, unchecked bool)
}

// Factory instantiates proxies by type.
type Factory interface {
	NewProxy(group, name string) (Proxy, error)
}

// Locator resolves a persisted identity to a live proxy.
type Locator interface {
	LocateProxy(id GlobalID) (Proxy, bool)
}

// Definitions lists the proxy types registered in a group.
type Definitions interface {
	ProxyNames(group string) ([]string, bool)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(group, name string) (Proxy, error)

// NewProxy implements Factory.
func (f FactoryFunc) NewProxy(group, name string) (Proxy, error) {
	return f(group, name)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(id GlobalID) (Proxy, bool)

// LocateProxy implements Locator.
func (f LocatorFunc) LocateProxy(id GlobalID) (Proxy, bool) {
	if f == nil {
		return nil, false
	}
	return f(id)
}

// TypeDescriptor declares one candidate type a Domain may instantiate.
type TypeDescriptor struct {
	Group string
	Name  string
}

// LinkDeclaration mirrors Source on the owner into Target on the candidate.
// Transform is an optional expression applied to the copied values.
type LinkDeclaration struct {
	Target    string
	Source    string
	Transform string
}
