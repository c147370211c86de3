package property

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-proxylist/xmlnode"
)

// ErrInvalidDefinition reports a malformed definitions document.
var ErrInvalidDefinition = errors.New("property: invalid definition")

const (
	elementConfiguration = "ServerManagerConfiguration"
	elementProxyGroup    = "ProxyGroup"
	elementHints         = "Hints"
	elementListDomain    = "ProxyListDomain"
	attrName             = "name"
	attrDefaultValues    = "default_values"
)

// propertyElements maps definition tags to value types.
var propertyElements = map[string]ValueType{
	"DoubleVectorProperty": TypeDouble,
	"IntVectorProperty":    TypeInt,
	"StringVectorProperty": TypeString,
	"ProxyProperty":        TypeProxy,
	"InputProperty":        TypeProxy,
}

// Definition describes one proxy type.
type Definition struct {
	Group      string
	Name       string
	Properties []PropertyDefinition
	// Hints is copied onto every instance.
	Hints *xmlnode.Element
}

// PropertyDefinition describes one property of a proxy type.
type PropertyDefinition struct {
	Name     string
	Type     ValueType
	Defaults []string
	// Domain is the ProxyListDomain declaration of a proxy-valued property.
	Domain *xmlnode.Element
}

// ParseDefinitions reads a ServerManagerConfiguration document. Proxy types
// are the ProxyGroup children whose tag ends in "Proxy".
func ParseDefinitions(r io.Reader) ([]Definition, error) {
	root, err := xmlnode.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if root.Name != elementConfiguration {
		return nil, fmt.Errorf("%w: root element %q, want %q", ErrInvalidDefinition, root.Name, elementConfiguration)
	}

	var defs []Definition
	for _, groupEl := range root.ChildrenNamed(elementProxyGroup) {
		group, _ := groupEl.Attribute(attrName)
		if group == "" {
			return nil, fmt.Errorf("%w: ProxyGroup without name", ErrInvalidDefinition)
		}
		for _, proxyEl := range groupEl.Nested() {
			if proxyEl == nil || !strings.HasSuffix(proxyEl.Name, "Proxy") {
				continue
			}
			def, err := parseDefinition(group, proxyEl)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func parseDefinition(group string, el *xmlnode.Element) (Definition, error) {
	name, _ := el.Attribute(attrName)
	if name == "" {
		return Definition{}, fmt.Errorf("%w: %s in group %q without name", ErrInvalidDefinition, el.Name, group)
	}
	def := Definition{Group: group, Name: name}
	for _, child := range el.Nested() {
		if child == nil {
			continue
		}
		if child.Name == elementHints {
			def.Hints = child.Clone()
			continue
		}
		typ, ok := propertyElements[child.Name]
		if !ok {
			continue
		}
		propName, _ := child.Attribute(attrName)
		if propName == "" {
			return Definition{}, fmt.Errorf("%w: %s on %s/%s without name", ErrInvalidDefinition, child.Name, group, name)
		}
		prop := PropertyDefinition{Name: propName, Type: typ}
		if raw, ok := child.Attribute(attrDefaultValues); ok {
			prop.Defaults = splitDefaults(typ, raw)
		}
		if domain := child.FindNested(elementListDomain); domain != nil {
			prop.Domain = domain.Clone()
		}
		def.Properties = append(def.Properties, prop)
	}
	return def, nil
}

// splitDefaults splits numeric defaults on whitespace. String defaults are a
// single element.
func splitDefaults(typ ValueType, raw string) []string {
	switch typ {
	case TypeString:
		return []string{raw}
	case TypeProxy:
		return nil
	default:
		return strings.Fields(raw)
	}
}
