package proxylist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-proxylist/internal/notify"
	"github.com/goliatone/go-proxylist/pkg/activity"
)

// Domain is a proxy-list domain: an ordered set of declared candidate types
// plus the ordered list of proxies a property may choose among. Listed
// proxies get their linked properties kept in sync with the owner of the
// domain's property.
//
// A Domain is not safe for concurrent use. Proxy implementations must be
// comparable (pointer types) because membership is decided by identity.
type Domain struct {
	id        string
	name      string
	cfg       domainConfig
	property  Property
	types     []TypeDescriptor
	entries   []*entry
	observers *notify.Registry[*Domain]
	emitter   *activity.Emitter
}

// New constructs an empty domain.
func New(opts ...Option) *Domain {
	cfg := applyOptions(opts)
	activityCfg := activity.Config{Enabled: true, Channel: activity.DefaultChannel}
	if cfg.activityConfig != nil {
		activityCfg = *cfg.activityConfig
	}
	return &Domain{
		id:        uuid.NewString(),
		name:      cfg.name,
		cfg:       cfg,
		property:  cfg.property,
		observers: notify.NewRegistry[*Domain](),
		emitter:   activity.NewEmitter(cfg.activityHooks, activityCfg),
	}
}

// ID returns the domain's unique identifier.
func (d *Domain) ID() string { return d.id }

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// Property returns the property the domain is attached to, or nil.
func (d *Domain) Property() Property { return d.property }

// SetProperty attaches the domain to prop. Entries added afterwards link
// against prop.Parent(); existing entries keep their links.
func (d *Domain) SetProperty(prop Property) { d.property = prop }

func (d *Domain) owner() Proxy {
	if d.property == nil {
		return nil
	}
	return d.property.Parent()
}

// AddType appends a candidate type. Duplicates are kept and instantiate twice.
func (d *Domain) AddType(group, name string) {
	d.types = append(d.types, TypeDescriptor{Group: group, Name: name})
}

// NumberOfProxyTypes returns the number of declared candidate types.
func (d *Domain) NumberOfProxyTypes() int { return len(d.types) }

// Types returns a copy of the declared candidate types.
func (d *Domain) Types() []TypeDescriptor {
	if len(d.types) == 0 {
		return nil
	}
	return append([]TypeDescriptor(nil), d.types...)
}

// ProxyType returns the candidate type at index i.
func (d *Domain) ProxyType(i int) (TypeDescriptor, error) {
	if i < 0 || i >= len(d.types) {
		err := indexError("proxy type", i, len(d.types))
		d.cfg.logger.Error("proxylist: invalid index", "domain", d.name, "error", err)
		return TypeDescriptor{}, err
	}
	return d.types[i], nil
}

// ProxyGroup returns the group of the candidate type at index i.
func (d *Domain) ProxyGroup(i int) (string, error) {
	desc, err := d.ProxyType(i)
	return desc.Group, err
}

// ProxyName returns the name of the candidate type at index i.
func (d *Domain) ProxyName(i int) (string, error) {
	desc, err := d.ProxyType(i)
	return desc.Name, err
}

// XMLName returns the declared type name of p, or "" for nil.
func XMLName(p Proxy) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

// CreateProxies replaces the listed proxies with one new proxy per declared
// type, in declaration order. Types the factory cannot instantiate are
// skipped. It returns the number of proxies created. No change notification
// is fired.
func (d *Domain) CreateProxies(factory Factory) int {
	d.clear()
	if factory == nil {
		d.cfg.logger.Error("proxylist: create proxies without a factory", "domain", d.name)
		return 0
	}
	created := 0
	for _, desc := range d.types {
		proxy, err := factory.NewProxy(desc.Group, desc.Name)
		if err != nil || proxy == nil {
			if err == nil {
				err = ErrInstantiation
			} else {
				err = fmt.Errorf("%w: %w", ErrInstantiation, err)
			}
			d.cfg.logger.Debug("proxylist: skipping candidate type",
				"domain", d.name, "group", desc.Group, "name", desc.Name, "error", err)
			continue
		}
		d.entries = append(d.entries, d.newEntry(proxy))
		created++
	}
	return created
}

// AddProxy lists p after the current proxies and fires a change notification.
func (d *Domain) AddProxy(p Proxy) {
	if p == nil {
		d.cfg.logger.Warn("proxylist: ignoring nil proxy", "domain", d.name)
		return
	}
	d.entries = append(d.entries, d.newEntry(p))
	d.modified(activity.BuildProxyAddedEvent, []Proxy{p})
}

// RemoveProxy unlists p, tearing down its links. It reports whether p was
// listed.
func (d *Domain) RemoveProxy(p Proxy) bool {
	if p == nil {
		return false
	}
	for i, e := range d.entries {
		if e.proxy == p {
			return d.removeAt(i)
		}
	}
	return false
}

// RemoveProxyAt unlists the proxy at index i. It reports whether i was valid.
func (d *Domain) RemoveProxyAt(i int) bool {
	if i < 0 || i >= len(d.entries) {
		return false
	}
	return d.removeAt(i)
}

func (d *Domain) removeAt(i int) bool {
	e := d.entries[i]
	e.release()
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	d.modified(activity.BuildProxyRemovedEvent, []Proxy{e.proxy})
	return true
}

// ClearProxies unlists every proxy, tearing down all links. No change
// notification is fired.
func (d *Domain) ClearProxies() {
	d.clear()
}

func (d *Domain) clear() {
	for _, e := range d.entries {
		e.release()
	}
	d.entries = nil
}

// SetProxies replaces the listed proxies with ps, in order, and fires one
// change notification. Nil proxies are skipped.
func (d *Domain) SetProxies(ps []Proxy) {
	d.clear()
	for _, p := range ps {
		if p == nil {
			continue
		}
		d.entries = append(d.entries, d.newEntry(p))
	}
	d.modified(activity.BuildProxiesSetEvent, d.Proxies())
}

// NumberOfProxies returns the number of listed proxies.
func (d *Domain) NumberOfProxies() int { return len(d.entries) }

// Proxies returns the listed proxies in order.
func (d *Domain) Proxies() []Proxy {
	if len(d.entries) == 0 {
		return nil
	}
	out := make([]Proxy, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.proxy
	}
	return out
}

// Proxy returns the listed proxy at index i.
func (d *Domain) Proxy(i int) (Proxy, bool) {
	if i < 0 || i >= len(d.entries) {
		d.cfg.logger.Error("proxylist: invalid index", "domain", d.name,
			"error", indexError("proxy", i, len(d.entries)))
		return nil, false
	}
	return d.entries[i].proxy, true
}

// FindProxy returns the first listed proxy declaring the given group and name.
func (d *Domain) FindProxy(group, name string) (Proxy, bool) {
	for _, e := range d.entries {
		if e.proxy.Group() == group && e.proxy.Name() == name {
			return e.proxy, true
		}
	}
	return nil, false
}

// HasProxy reports whether p is listed.
func (d *Domain) HasProxy(p Proxy) bool {
	if p == nil {
		return false
	}
	for _, e := range d.entries {
		if e.proxy == p {
			return true
		}
	}
	return false
}

// SetDefaultValues selects the first listed proxy on prop when prop accepts
// proxies and the domain is not empty. Otherwise the configured default
// policy decides. It reports whether a value was assigned.
func (d *Domain) SetDefaultValues(prop Property, unchecked bool) bool {
	if prop != nil && prop.Kind() == KindProxy && len(d.entries) > 0 {
		if target, ok := prop.(ProxyValued); ok {
			target.SetProxies([]Proxy{d.entries[0].proxy}, unchecked)
			return true
		}
	}
	return d.cfg.defaultPolicy(prop, unchecked)
}

// IsInDomain always accepts: membership of the list is the constraint.
func (d *Domain) IsInDomain(Property) bool { return true }

// SubscriptionCount returns the number of live link subscriptions across all
// listed proxies.
func (d *Domain) SubscriptionCount() int {
	total := 0
	for _, e := range d.entries {
		total += len(e.subscriptions)
	}
	return total
}

// Subscribe registers fn to be called after every change notification.
func (d *Domain) Subscribe(fn func(*Domain)) Handle {
	if fn == nil {
		return 0
	}
	return Handle(d.observers.Add(fn))
}

// Unsubscribe removes a change observer.
func (d *Domain) Unsubscribe(h Handle) bool {
	return d.observers.Remove(notify.Handle(h))
}

// Close tears down every listed proxy's links and drops change observers. The
// proxies themselves are left alive.
func (d *Domain) Close() {
	d.clear()
	d.observers.Clear()
}

func (d *Domain) newEntry(p Proxy) *entry {
	e := &entry{proxy: p}
	if owner := d.owner(); owner != nil {
		d.processHints(e, owner)
	}
	return e
}

// processHints wires the Link declarations found in the candidate's hints
// to the owner's properties and syncs each target once.
func (d *Domain) processHints(e *entry, owner Proxy) {
	for _, decl := range parseLinks(e.proxy.Hints(), d.cfg.logger) {
		source, ok := owner.Property(decl.Source)
		if !ok || source == nil {
			d.cfg.logger.Debug("proxylist: skipping link", "domain", d.name,
				"error", fmt.Errorf("%w: owner property %q", ErrUnresolvedReference, decl.Source))
			continue
		}
		target, ok := e.proxy.Property(decl.Target)
		if !ok || target == nil {
			d.cfg.logger.Debug("proxylist: skipping link", "domain", d.name,
				"error", fmt.Errorf("%w: candidate property %q", ErrUnresolvedReference, decl.Target))
			continue
		}
		observer := newLinkObserver(target, d.linkTransform(decl, source, target))
		for _, kind := range linkedEvents {
			handle := source.Subscribe(kind, observer.observe)
			e.subscriptions = append(e.subscriptions, subscription{
				source:   source,
				handle:   handle,
				observer: observer,
			})
		}
		observer.sync(source)
	}
}

func (d *Domain) linkTransform(decl LinkDeclaration, source, target Property) *transform {
	if decl.Transform == "" {
		return nil
	}
	_, srcOK := source.(ValueProperty)
	_, dstOK := target.(ValueProperty)
	if !srcOK || !dstOK {
		d.cfg.logger.Warn("proxylist: transform needs value properties, copying instead",
			"domain", d.name, "source", decl.Source, "target", decl.Target)
		return nil
	}
	tr, err := d.compileTransform(decl)
	if err != nil {
		d.cfg.logger.Warn("proxylist: transform did not compile, copying instead",
			"domain", d.name, "source", decl.Source, "target", decl.Target, "error", err)
		return nil
	}
	return tr
}

type eventBuilder func(activity.DomainEventInput) activity.Event

// modified notifies change observers and activity hooks.
func (d *Domain) modified(build eventBuilder, proxies []Proxy) {
	d.observers.Notify(d)
	d.emit(build, proxies)
}

func (d *Domain) emit(build eventBuilder, proxies []Proxy) {
	if !d.emitter.Enabled() {
		return
	}
	input := activity.DomainEventInput{
		DomainID:   d.id,
		DomainName: d.name,
		Count:      len(d.entries),
	}
	if d.property != nil {
		input.Property = d.property.Name()
	}
	for _, p := range proxies {
		input.Proxies = append(input.Proxies, activity.ProxyRef{
			Group: p.Group(),
			Name:  p.Name(),
			ID:    uint64(p.GlobalID()),
		})
	}
	if err := d.emitter.Emit(context.Background(), build(input)); err != nil {
		d.cfg.logger.Warn("proxylist: activity hook failed", "domain", d.name, "error", err)
	}
}
