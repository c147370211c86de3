package proxylist

import (
	"github.com/goliatone/go-proxylist/xmlnode"
)

const (
	hintProxyList     = "ProxyList"
	hintLink          = "Link"
	hintAttrName      = "name"
	hintAttrWith      = "with_property"
	hintAttrTransform = "transform"
)

// linkedEvents are the owner notifications every link subscribes to.
var linkedEvents = [...]EventKind{PropertyModified, UncheckedPropertyModified}

// linkObserver copies one owner property into one candidate property. It is
// subscribed until stop is called and ignores notifications afterwards.
type linkObserver struct {
	target    Property
	transform *transform
	active    bool
}

func newLinkObserver(target Property, tr *transform) *linkObserver {
	return &linkObserver{target: target, transform: tr, active: true}
}

func (o *linkObserver) observe(source Property, _ EventKind) {
	if o == nil || !o.active || source == nil {
		return
	}
	o.sync(source)
}

// sync copies checked and unchecked values from source into the target.
func (o *linkObserver) sync(source Property) {
	if o.target == nil {
		return
	}
	if o.transform != nil {
		src, srcOK := source.(ValueProperty)
		dst, dstOK := o.target.(ValueProperty)
		if srcOK && dstOK {
			o.transform.apply(src, dst)
			return
		}
	}
	o.target.Copy(source)
}

func (o *linkObserver) stop() {
	if o != nil {
		o.active = false
	}
}

// LinkDeclarations returns the well-formed Link declarations found in the
// ProxyList block of hints. Declarations missing either attribute are dropped.
func LinkDeclarations(hints *xmlnode.Element) []LinkDeclaration {
	return parseLinks(hints, NoopLogger())
}

func parseLinks(hints *xmlnode.Element, logger Logger) []LinkDeclaration {
	block := hints.FindNested(hintProxyList)
	if block == nil {
		return nil
	}
	var out []LinkDeclaration
	for _, child := range block.Nested() {
		if child == nil || child.Name != hintLink {
			continue
		}
		target, hasTarget := child.Attribute(hintAttrName)
		source, hasSource := child.Attribute(hintAttrWith)
		if !hasTarget || !hasSource || target == "" || source == "" {
			logger.Debug("proxylist: skipping incomplete link hint", "element", child.String())
			continue
		}
		transform, _ := child.Attribute(hintAttrTransform)
		out = append(out, LinkDeclaration{Target: target, Source: source, Transform: transform})
	}
	return out
}
