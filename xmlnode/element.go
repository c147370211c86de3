// Package xmlnode is a small attribute-and-children XML tree used for proxy
// definitions, hints and domain state. Character data is ignored.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Attr is one name/value attribute. Attribute order is preserved.
type Attr struct {
	Name  string
	Value string
}

// Element is a named node with ordered attributes and nested elements.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// New constructs an element with the given tag name.
func New(name string) *Element {
	return &Element{Name: name}
}

// Attribute returns the named attribute value.
func (e *Element) Attribute(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, attr := range e.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// UintAttribute parses the named attribute as a base-10 unsigned integer.
func (e *Element) UintAttribute(name string) (uint64, bool) {
	raw, ok := e.Attribute(name)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// SetAttribute adds or replaces the named attribute and returns e.
func (e *Element) SetAttribute(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// AddChild appends child and returns it.
func (e *Element) AddChild(child *Element) *Element {
	if child == nil {
		return nil
	}
	e.Children = append(e.Children, child)
	return child
}

// Nested returns the direct children. The returned slice must not be mutated.
func (e *Element) Nested() []*Element {
	if e == nil {
		return nil
	}
	return e.Children
}

// ChildrenNamed returns the direct children with the given tag name.
func (e *Element) ChildrenNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, child := range e.Children {
		if child != nil && child.Name == name {
			out = append(out, child)
		}
	}
	return out
}

// FindNested searches descendants depth-first and returns the first element
// with the given tag name. e itself is not considered.
func (e *Element) FindNested(name string) *Element {
	if e == nil {
		return nil
	}
	for _, child := range e.Children {
		if child == nil {
			continue
		}
		if child.Name == name {
			return child
		}
		if found := child.FindNested(name); found != nil {
			return found
		}
	}
	return nil
}

// Clone returns a deep copy of e.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{Name: e.Name}
	if len(e.Attrs) > 0 {
		out.Attrs = append([]Attr(nil), e.Attrs...)
	}
	for _, child := range e.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// UnmarshalXML implements xml.Unmarshaler.
func (e *Element) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	e.Name = start.Name.Local
	e.Attrs = e.Attrs[:0]
	for _, attr := range start.Attr {
		e.Attrs = append(e.Attrs, Attr{Name: attr.Name.Local, Value: attr.Value})
	}
	e.Children = nil
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			child := &Element{}
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			e.Children = append(e.Children, child)
		case xml.EndElement:
			return nil
		}
	}
}

// MarshalXML implements xml.Marshaler.
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, attr := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr.Name}, Value: attr.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range e.Children {
		if child == nil {
			continue
		}
		if err := enc.Encode(child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Parse decodes the first element read from r.
func Parse(r io.Reader) (*Element, error) {
	el := &Element{}
	if err := xml.NewDecoder(r).Decode(el); err != nil {
		return nil, fmt.Errorf("xmlnode: parse: %w", err)
	}
	return el, nil
}

// ParseString decodes the first element in s.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}

// Encode writes e to w, indenting nested elements with indent when non-empty.
func (e *Element) Encode(w io.Writer, indent string) error {
	enc := xml.NewEncoder(w)
	if indent != "" {
		enc.Indent("", indent)
	}
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("xmlnode: encode: %w", err)
	}
	return enc.Flush()
}

// String returns the compact XML encoding of e.
func (e *Element) String() string {
	if e == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := e.Encode(&buf, ""); err != nil {
		return ""
	}
	return buf.String()
}
