package property

import (
	"errors"
	"fmt"
	"io"
	"sync"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/xmlnode"
)

var (
	// ErrUnknownType reports a group/name pair with no definition.
	ErrUnknownType = errors.New("property: unknown proxy type")
	// ErrRecursiveDefinition reports a proxy type whose proxy-list domain
	// instantiates the type itself.
	ErrRecursiveDefinition = errors.New("property: recursive proxy definition")
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger shared by the manager, its values and the
// domains it creates.
func WithLogger(logger proxylist.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDomainOptions appends options applied to every proxy-list domain the
// manager creates, after the manager's own.
func WithDomainOptions(opts ...proxylist.Option) ManagerOption {
	return func(m *Manager) {
		m.domainOpts = append(m.domainOpts, opts...)
	}
}

// Manager owns proxy definitions and live proxies. It implements
// proxylist.Factory, proxylist.Locator and proxylist.Definitions.
type Manager struct {
	mu         sync.RWMutex
	logger     proxylist.Logger
	domainOpts []proxylist.Option
	defs       map[typeKey]Definition
	groups     map[string][]string
	groupOrder []string
	live       map[proxylist.GlobalID]*Object
	owned      map[proxylist.GlobalID][]proxylist.GlobalID
	nextID     proxylist.GlobalID
	building   map[typeKey]bool
}

type typeKey struct {
	group string
	name  string
}

// NewManager constructs an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:   proxylist.NoopLogger(),
		defs:     map[typeKey]Definition{},
		groups:   map[string][]string{},
		live:     map[proxylist.GlobalID]*Object{},
		owned:    map[proxylist.GlobalID][]proxylist.GlobalID{},
		building: map[typeKey]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// LoadDefinitions parses a ServerManagerConfiguration document and defines
// every proxy type in it.
func (m *Manager) LoadDefinitions(r io.Reader) error {
	defs, err := ParseDefinitions(r)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := m.Define(def); err != nil {
			return err
		}
	}
	return nil
}

// Define registers def. Redefining a type replaces it but keeps its position
// in the group.
func (m *Manager) Define(def Definition) error {
	if def.Group == "" || def.Name == "" {
		return fmt.Errorf("%w: group and name are required", ErrInvalidDefinition)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := typeKey{group: def.Group, name: def.Name}
	if _, exists := m.defs[key]; !exists {
		if _, known := m.groups[def.Group]; !known {
			m.groupOrder = append(m.groupOrder, def.Group)
		}
		m.groups[def.Group] = append(m.groups[def.Group], def.Name)
	}
	m.defs[key] = def
	return nil
}

// Definition returns the definition of a proxy type.
func (m *Manager) Definition(group, name string) (Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[typeKey{group: group, name: name}]
	return def, ok
}

// ProxyNames implements proxylist.Definitions. Names keep registration order.
func (m *Manager) ProxyNames(group string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names, ok := m.groups[group]
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

// Groups returns the defined group names in registration order.
func (m *Manager) Groups() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.groupOrder...)
}

// NewProxy implements proxylist.Factory. Properties start at their defaults;
// proxy-valued properties with a ProxyListDomain get a domain populated with
// one candidate per declared type and default to its first candidate.
func (m *Manager) NewProxy(group, name string) (proxylist.Proxy, error) {
	obj, err := m.Create(group, name)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Create is NewProxy returning the concrete type.
func (m *Manager) Create(group, name string) (*Object, error) {
	key := typeKey{group: group, name: name}
	m.mu.Lock()
	def, ok := m.defs[key]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownType, group, name)
	}
	if m.building[key] {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s/%s", ErrRecursiveDefinition, group, name)
	}
	m.building[key] = true
	m.nextID++
	obj := newObject(def, m.nextID)
	m.live[obj.id] = obj
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.building, key)
		m.mu.Unlock()
	}()

	for _, propDef := range def.Properties {
		v := newValue(propDef.Name, propDef.Type, obj, m.logger)
		if len(propDef.Defaults) > 0 {
			defaults := make([]any, len(propDef.Defaults))
			for i, raw := range propDef.Defaults {
				defaults[i] = raw
			}
			if err := v.Set(defaults, false); err != nil {
				m.logger.Warn("property: bad default", "proxy", def.Group+"/"+def.Name, "error", err)
			}
		}
		obj.addValue(v)
	}

	// Domains are attached once every property exists so link hints on the
	// candidates can resolve against the owner.
	for _, propDef := range def.Properties {
		if propDef.Domain == nil {
			continue
		}
		m.attachDomain(obj, obj.values[propDef.Name], propDef.Domain.Clone())
	}
	m.logger.Debug("property: created proxy", "group", group, "name", name, "id", obj.id)
	return obj, nil
}

// attachDomain reads the domain declaration of v, instantiates its candidates
// and selects the default. A declaration that does not parse leaves v without
// a domain.
func (m *Manager) attachDomain(obj *Object, v *Value, declaration *xmlnode.Element) {
	opts := append([]proxylist.Option{
		proxylist.WithLogger(m.logger),
		proxylist.WithDefinitions(m),
	}, m.domainOpts...)
	domain := proxylist.New(opts...)
	if err := domain.ReadXMLAttributes(v, declaration); err != nil {
		m.logger.Warn("property: skipping proxy list domain",
			"proxy", obj.group+"/"+obj.name, "property", v.name, "error", err)
		return
	}
	domain.CreateProxies(m)
	owned := make([]proxylist.GlobalID, 0, domain.NumberOfProxies())
	for _, candidate := range domain.Proxies() {
		owned = append(owned, candidate.GlobalID())
	}
	m.mu.Lock()
	m.owned[obj.id] = append(m.owned[obj.id], owned...)
	m.mu.Unlock()

	domain.SetDefaultValues(v, false)
	obj.domains[v.name] = domain
}

// LocateProxy implements proxylist.Locator.
func (m *Manager) LocateProxy(id proxylist.GlobalID) (proxylist.Proxy, bool) {
	obj, ok := m.Lookup(id)
	if !ok {
		return nil, false
	}
	return obj, true
}

// Lookup is LocateProxy returning the concrete type.
func (m *Manager) Lookup(id proxylist.GlobalID) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.live[id]
	return obj, ok
}

// Len returns the number of live proxies.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

// Release forgets id, tears down its domains and releases the candidates
// created for them. It reports whether id was live.
func (m *Manager) Release(id proxylist.GlobalID) bool {
	m.mu.Lock()
	obj, ok := m.live[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.live, id)
	owned := m.owned[id]
	delete(m.owned, id)
	m.mu.Unlock()

	obj.close()
	for _, child := range owned {
		m.Release(child)
	}
	return true
}
