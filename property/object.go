package property

import (
	"fmt"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/xmlnode"
)

// Object is the reference proxylist.Proxy: a typed bag of Values with an
// optional proxy-list domain per proxy-valued property.
type Object struct {
	group   string
	name    string
	id      proxylist.GlobalID
	hints   *xmlnode.Element
	order   []string
	values  map[string]*Value
	domains map[string]*proxylist.Domain
}

func newObject(def Definition, id proxylist.GlobalID) *Object {
	return &Object{
		group:   def.Group,
		name:    def.Name,
		id:      id,
		hints:   def.Hints.Clone(),
		values:  map[string]*Value{},
		domains: map[string]*proxylist.Domain{},
	}
}

func (o *Object) Group() string                { return o.group }
func (o *Object) Name() string                 { return o.name }
func (o *Object) GlobalID() proxylist.GlobalID { return o.id }
func (o *Object) Hints() *xmlnode.Element      { return o.hints }

// Property implements proxylist.Proxy.
func (o *Object) Property(name string) (proxylist.Property, bool) {
	v, ok := o.values[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// Value returns the named property with its concrete type.
func (o *Object) Value(name string) (*Value, bool) {
	v, ok := o.values[name]
	return v, ok
}

// PropertyNames returns property names in declaration order.
func (o *Object) PropertyNames() []string {
	return append([]string(nil), o.order...)
}

// Domain returns the proxy-list domain attached to the named property.
func (o *Object) Domain(property string) (*proxylist.Domain, bool) {
	d, ok := o.domains[property]
	return d, ok
}

// Set assigns the checked value of the named property.
func (o *Object) Set(name string, values ...any) error {
	v, ok := o.values[name]
	if !ok {
		return fmt.Errorf("property: %s/%s has no property %q", o.group, o.name, name)
	}
	return v.Set(values, false)
}

func (o *Object) addValue(v *Value) {
	o.order = append(o.order, v.name)
	o.values[v.name] = v
}

// close tears down every domain link held by the object.
func (o *Object) close() {
	for _, d := range o.domains {
		d.Close()
	}
}
