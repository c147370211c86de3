package proxylist

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-proxylist/internal/notify"
	"github.com/goliatone/go-proxylist/xmlnode"
)

type propertyEvent struct {
	source Property
	kind   EventKind
}

type fakeProperty struct {
	name      string
	kind      PropertyKind
	parent    Proxy
	checked   []any
	unchecked []any
	proxies   []Proxy
	copies    int
	observers *notify.Registry[propertyEvent]
}

func newFakeProperty(name string, kind PropertyKind, values ...any) *fakeProperty {
	return &fakeProperty{
		name:      name,
		kind:      kind,
		checked:   values,
		unchecked: values,
		observers: notify.NewRegistry[propertyEvent](),
	}
}

func (p *fakeProperty) Name() string       { return p.name }
func (p *fakeProperty) Kind() PropertyKind { return p.kind }
func (p *fakeProperty) Parent() Proxy      { return p.parent }

func (p *fakeProperty) Subscribe(kind EventKind, observer Observer) Handle {
	if observer == nil {
		return 0
	}
	return Handle(p.observers.Add(func(ev propertyEvent) {
		if ev.kind == kind {
			observer(ev.source, ev.kind)
		}
	}))
}

func (p *fakeProperty) Unsubscribe(h Handle) bool {
	return p.observers.Remove(notify.Handle(h))
}

func (p *fakeProperty) Copy(src Property) {
	p.copies++
	if vp, ok := src.(ValueProperty); ok {
		p.checked = append([]any(nil), vp.Values(false)...)
		p.unchecked = append([]any(nil), vp.Values(true)...)
	}
}

func (p *fakeProperty) Values(unchecked bool) []any {
	if unchecked {
		return p.unchecked
	}
	return p.checked
}

func (p *fakeProperty) SetValues(values []any, unchecked bool) {
	if unchecked {
		p.unchecked = values
		p.observers.Notify(propertyEvent{source: p, kind: UncheckedPropertyModified})
		return
	}
	p.checked = values
	p.unchecked = values
	p.observers.Notify(propertyEvent{source: p, kind: PropertyModified})
}

func (p *fakeProperty) SetProxies(values []Proxy, unchecked bool) {
	p.proxies = append([]Proxy(nil), values...)
}

func (p *fakeProperty) subscribers() int { return p.observers.Len() }

type fakeProxy struct {
	group string
	name  string
	id    GlobalID
	props map[string]*fakeProperty
	hints *xmlnode.Element
}

func newFakeProxy(group, name string, id GlobalID, props ...*fakeProperty) *fakeProxy {
	p := &fakeProxy{group: group, name: name, id: id, props: map[string]*fakeProperty{}}
	for _, prop := range props {
		prop.parent = p
		p.props[prop.name] = prop
	}
	return p
}

func (p *fakeProxy) Group() string           { return p.group }
func (p *fakeProxy) Name() string            { return p.name }
func (p *fakeProxy) GlobalID() GlobalID      { return p.id }
func (p *fakeProxy) Hints() *xmlnode.Element { return p.hints }

func (p *fakeProxy) Property(name string) (Property, bool) {
	prop, ok := p.props[name]
	if !ok {
		return nil, false
	}
	return prop, true
}

func (p *fakeProxy) prop(name string) *fakeProperty { return p.props[name] }

// linkHints builds a Hints block holding one Link element per declaration.
func linkHints(links ...LinkDeclaration) *xmlnode.Element {
	hints := xmlnode.New("Hints")
	block := hints.AddChild(xmlnode.New("ProxyList"))
	for _, link := range links {
		el := xmlnode.New("Link").
			SetAttribute("name", link.Target).
			SetAttribute("with_property", link.Source)
		if link.Transform != "" {
			el.SetAttribute("transform", link.Transform)
		}
		block.AddChild(el)
	}
	return hints
}

type fakeFactory struct {
	next    GlobalID
	fail    map[string]bool
	created []*fakeProxy
	hints   map[string]*xmlnode.Element
}

func (f *fakeFactory) NewProxy(group, name string) (Proxy, error) {
	if f.fail[name] {
		return nil, errors.New("no such type")
	}
	f.next++
	p := newFakeProxy(group, name, f.next, newFakeProperty("Radius", KindScalar, 1.0))
	p.hints = f.hints[name]
	f.created = append(f.created, p)
	return p, nil
}

type fakeDefinitions map[string][]string

func (d fakeDefinitions) ProxyNames(group string) ([]string, bool) {
	names, ok := d[group]
	return names, ok
}

// glyphOwner returns an owner proxy holding a Radius property and the
// proxy-valued GlyphType property a domain attaches to.
func glyphOwner(radius float64) (*fakeProxy, *fakeProperty) {
	glyph := newFakeProperty("GlyphType", KindProxy)
	owner := newFakeProxy("filters", "Glyph", 100, newFakeProperty("Radius", KindScalar, radius), glyph)
	return owner, glyph
}

func locatorFor(proxies ...Proxy) Locator {
	byID := map[GlobalID]Proxy{}
	for _, p := range proxies {
		byID[p.GlobalID()] = p
	}
	return LocatorFunc(func(id GlobalID) (Proxy, bool) {
		p, ok := byID[id]
		return p, ok
	})
}

func describeProxies(ps []Proxy) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, fmt.Sprintf("%s/%s#%d", p.Group(), p.Name(), p.GlobalID()))
	}
	return fmt.Sprint(out)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger keeps every log call for assertions.
type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) add(level, msg string, args []any) {
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

// loggedError reports whether an entry at level carries an error matching target.
func (l *recordingLogger) loggedError(level string, target error) bool {
	for _, e := range l.entries {
		if e.level != level {
			continue
		}
		for _, arg := range e.args {
			if err, ok := arg.(error); ok && errors.Is(err, target) {
				return true
			}
		}
	}
	return false
}

// hasArg reports whether an entry at level carries key with value.
func (l *recordingLogger) hasArg(level, key string, value any) bool {
	for _, e := range l.entries {
		if e.level != level {
			continue
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == key && e.args[i+1] == value {
				return true
			}
		}
	}
	return false
}
