package proxylist

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-proxylist/pkg/activity"
	"github.com/goliatone/go-proxylist/xmlnode"
)

const (
	elementProxy  = "Proxy"
	elementGroup  = "Group"
	elementDomain = "Domain"
	attrName      = "name"
	attrGroup     = "group"
	attrValue     = "value"
	attrID        = "id"
)

// ReadXMLAttributes reads a domain declaration and appends one candidate type
// per Proxy child and one per registered type of each Group child. prop, when
// not nil, becomes the domain's property.
//
// Group elements are skipped when no Definitions are configured. The parse
// fails with ErrNoProxyElements when nothing usable was found.
func (d *Domain) ReadXMLAttributes(prop Property, el *xmlnode.Element) error {
	if el == nil {
		return &ParseError{Domain: d.name, Err: ErrMissingElement}
	}
	if prop != nil {
		d.property = prop
	}
	if name, ok := el.Attribute(attrName); ok && name != "" {
		d.name = name
	}

	found := false
	for _, child := range el.Nested() {
		if child == nil {
			continue
		}
		switch child.Name {
		case elementProxy:
			name, hasName := child.Attribute(attrName)
			group, hasGroup := child.Attribute(attrGroup)
			if !hasName || !hasGroup {
				continue
			}
			d.AddType(group, name)
			found = true
		case elementGroup:
			group, ok := child.Attribute(attrName)
			if !ok {
				continue
			}
			if d.expandGroup(group) {
				found = true
			}
		}
	}
	if !found {
		err := &ParseError{Domain: d.name, Err: ErrNoProxyElements}
		d.cfg.logger.Error("proxylist: invalid domain declaration", "domain", d.name, "error", err)
		return err
	}
	return nil
}

// expandGroup adds every type registered in group. It reports whether the
// group could be looked up; an empty group still counts as found.
func (d *Domain) expandGroup(group string) bool {
	if d.cfg.definitions == nil {
		d.cfg.logger.Error("proxylist: cannot expand group", "domain", d.name, "group", group,
			"error", ErrMissingDefinitions)
		return false
	}
	names, ok := d.cfg.definitions.ProxyNames(group)
	if !ok {
		d.cfg.logger.Debug("proxylist: group has no definitions", "domain", d.name, "group", group)
	}
	for _, name := range names {
		d.AddType(group, name)
	}
	return true
}

// SaveState appends one Proxy element per listed proxy to parent, holding
// only the proxy's global id.
func (d *Domain) SaveState(parent *xmlnode.Element) {
	if parent == nil {
		return
	}
	for _, e := range d.entries {
		child := xmlnode.New(elementProxy).
			SetAttribute(attrValue, strconv.FormatUint(uint64(e.proxy.GlobalID()), 10))
		parent.AddChild(child)
	}
}

// StateKey identifies the domain among the other domains of a session: the
// owner's global id and the property name, or the domain name while the
// domain is not attached to an owned property.
func (d *Domain) StateKey() string {
	owner := d.owner()
	if owner == nil {
		return d.name
	}
	return fmt.Sprintf("%d/%s", owner.GlobalID(), d.property.Name())
}

// State returns a Domain element carrying the domain name, id and saved
// proxies.
func (d *Domain) State() *xmlnode.Element {
	el := xmlnode.New(elementDomain).
		SetAttribute(attrName, d.name).
		SetAttribute(attrID, d.id)
	d.SaveState(el)
	return el
}

// LoadState replaces the listed proxies with the ones referenced by el,
// resolved through loc. Identities that do not parse or resolve are skipped.
// One change notification is fired on success.
func (d *Domain) LoadState(el *xmlnode.Element, loc Locator) error {
	d.clear()
	if el == nil {
		return &ParseError{Domain: d.name, Err: ErrMissingElement}
	}
	if loc == nil {
		return &ParseError{Domain: d.name, Err: ErrMissingLocator}
	}
	for _, child := range el.Nested() {
		if child == nil || child.Name != elementProxy {
			continue
		}
		raw, ok := child.UintAttribute(attrValue)
		if !ok {
			d.cfg.logger.Debug("proxylist: skipping state entry", "domain", d.name,
				"error", fmt.Errorf("%w: invalid id in %s", ErrUnresolvedReference, child.String()))
			continue
		}
		id := GlobalID(raw)
		proxy, ok := loc.LocateProxy(id)
		if !ok || proxy == nil {
			d.cfg.logger.Debug("proxylist: skipping state entry", "domain", d.name,
				"error", fmt.Errorf("%w: global id %d", ErrUnresolvedReference, id))
			continue
		}
		d.entries = append(d.entries, d.newEntry(proxy))
	}
	d.modified(activity.BuildStateLoadedEvent, d.Proxies())
	return nil
}
