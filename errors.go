package proxylist

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProxyElements reports a declaration with neither a usable Proxy nor
	// Group child.
	ErrNoProxyElements = errors.New(`proxylist: required element "Proxy" (with 'name' and 'group' attributes) or "Group" (with a 'name' attribute) was not found`)
	// ErrMissingDefinitions reports that a Group element could not be expanded
	// because no definition registry is configured.
	ErrMissingDefinitions = errors.New("proxylist: no proxy definitions available, cannot generate proxy list for groups")
	// ErrUnresolvedReference reports an identity or property name that did not
	// resolve. It is logged and never returned from bulk operations.
	ErrUnresolvedReference = errors.New("proxylist: unresolved reference")
	// ErrIndexOutOfRange reports an accessor called with an invalid index.
	ErrIndexOutOfRange = errors.New("proxylist: index out of range")
	// ErrInstantiation reports that the factory produced no proxy.
	ErrInstantiation = errors.New("proxylist: proxy instantiation failed")
	// ErrMissingLocator reports LoadState called without a locator.
	ErrMissingLocator = errors.New("proxylist: locator is required")
	// ErrMissingElement reports a nil XML element.
	ErrMissingElement = errors.New("proxylist: element is required")
)

// ParseError is returned by ReadXMLAttributes and LoadState.
type ParseError struct {
	Domain string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Domain == "" {
		return fmt.Sprintf("proxylist: parse: %v", e.Err)
	}
	return fmt.Sprintf("proxylist: parse domain %q: %v", e.Domain, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func indexError(what string, index, size int) error {
	return fmt.Errorf("%w: %s index %d, size %d", ErrIndexOutOfRange, what, index, size)
}
