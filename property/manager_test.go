package property

import (
	"errors"
	"strings"
	"testing"

	proxylist "github.com/goliatone/go-proxylist"
)

const glyphDefinitions = `<ServerManagerConfiguration>
  <ProxyGroup name="glyphs">
    <SourceProxy name="ArrowSource">
      <DoubleVectorProperty name="TipRadius" default_values="0.1"/>
    </SourceProxy>
    <SourceProxy name="SphereSource">
      <DoubleVectorProperty name="Radius" default_values="0.5"/>
      <IntVectorProperty name="Resolution" default_values="8 16"/>
      <Hints>
        <ProxyList>
          <Link name="Radius" with_property="Scale"/>
        </ProxyList>
      </Hints>
    </SourceProxy>
  </ProxyGroup>
  <ProxyGroup name="filters">
    <SourceProxy name="Glyph">
      <DoubleVectorProperty name="Scale" default_values="5.0"/>
      <StringVectorProperty name="Label" default_values="my glyph"/>
      <ProxyProperty name="GlyphType">
        <ProxyListDomain name="proxy_list">
          <Group name="glyphs"/>
        </ProxyListDomain>
      </ProxyProperty>
    </SourceProxy>
  </ProxyGroup>
</ServerManagerConfiguration>`

func newGlyphManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	if err := m.LoadDefinitions(strings.NewReader(glyphDefinitions)); err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	return m
}

func TestLoadDefinitionsRegistersGroupsInOrder(t *testing.T) {
	m := newGlyphManager(t)

	names, ok := m.ProxyNames("glyphs")
	if !ok || len(names) != 2 || names[0] != "ArrowSource" || names[1] != "SphereSource" {
		t.Fatalf("expected glyph names in order, got %v", names)
	}
	if _, ok := m.ProxyNames("missing"); ok {
		t.Fatalf("expected unknown group to report false")
	}
	groups := m.Groups()
	if len(groups) != 2 || groups[0] != "glyphs" || groups[1] != "filters" {
		t.Fatalf("expected groups in order, got %v", groups)
	}
	def, ok := m.Definition("glyphs", "SphereSource")
	if !ok || def.Hints == nil || len(def.Properties) != 2 {
		t.Fatalf("expected sphere definition with hints, got %+v", def)
	}
}

func TestCreateBuildsDefaultsAndDomain(t *testing.T) {
	m := newGlyphManager(t)
	glyph, err := m.Create("filters", "Glyph")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if glyph.GlobalID() != 1 {
		t.Fatalf("expected first id 1, got %d", glyph.GlobalID())
	}
	if m.Len() != 3 {
		t.Fatalf("expected owner plus 2 candidates, got %d", m.Len())
	}

	label, _ := glyph.Value("Label")
	if got := label.Values(false); len(got) != 1 || got[0] != "my glyph" {
		t.Fatalf("expected string default kept whole, got %v", got)
	}

	domain, ok := glyph.Domain("GlyphType")
	if !ok {
		t.Fatalf("expected GlyphType domain")
	}
	if domain.NumberOfProxies() != 2 {
		t.Fatalf("expected 2 candidates, got %d", domain.NumberOfProxies())
	}
	glyphType, _ := glyph.Value("GlyphType")
	selected := glyphType.Proxies(false)
	if len(selected) != 1 || selected[0].Name() != "ArrowSource" {
		t.Fatalf("expected first candidate selected, got %v", selected)
	}

	sphere, ok := domain.FindProxy("glyphs", "SphereSource")
	if !ok {
		t.Fatalf("expected sphere candidate")
	}
	radius, _ := sphere.Property("Radius")
	values := radius.(*Value).Values(false)
	if len(values) != 1 || values[0] != 5.0 {
		t.Fatalf("expected radius synced to 5.0, got %v", values)
	}
	resolution, _ := sphere.(*Object).Value("Resolution")
	if got := resolution.Values(false); len(got) != 2 || got[0] != 8 || got[1] != 16 {
		t.Fatalf("expected int defaults, got %v", got)
	}

	if err := glyph.Set("Scale", 10.0); err != nil {
		t.Fatalf("set scale: %v", err)
	}
	if got := radius.(*Value).Values(false); got[0] != 10.0 {
		t.Fatalf("expected radius 10.0 after scale change, got %v", got)
	}
}

func TestReleaseTearsDownLinks(t *testing.T) {
	m := newGlyphManager(t)
	glyph, err := m.Create("filters", "Glyph")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	scale, _ := glyph.Value("Scale")
	if scale.ObserverCount() != 2 {
		t.Fatalf("expected 2 link subscriptions, got %d", scale.ObserverCount())
	}

	if !m.Release(glyph.GlobalID()) {
		t.Fatalf("expected release")
	}
	if scale.ObserverCount() != 0 {
		t.Fatalf("expected subscriptions released, got %d", scale.ObserverCount())
	}
	if m.Len() != 0 {
		t.Fatalf("expected candidates released, got %d live", m.Len())
	}
	if m.Release(glyph.GlobalID()) {
		t.Fatalf("expected second release to report false")
	}
}

func TestManagerStateRoundTrip(t *testing.T) {
	m := newGlyphManager(t)
	glyph, err := m.Create("filters", "Glyph")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	domain, _ := glyph.Domain("GlyphType")
	state := domain.State()

	glyphType, _ := glyph.Value("GlyphType")
	restored := proxylist.New(proxylist.WithProperty(glyphType), proxylist.WithDefinitions(m))
	if err := restored.LoadState(state, m); err != nil {
		t.Fatalf("load state: %v", err)
	}
	if restored.NumberOfProxies() != 2 {
		t.Fatalf("expected 2 restored proxies, got %d", restored.NumberOfProxies())
	}
	for i := 0; i < 2; i++ {
		want, _ := domain.Proxy(i)
		got, _ := restored.Proxy(i)
		if want != got {
			t.Fatalf("proxy %d: expected %d, got %d", i, want.GlobalID(), got.GlobalID())
		}
	}
	restored.Close()
}

func TestCreateUnknownType(t *testing.T) {
	m := NewManager()
	if _, err := m.NewProxy("sources", "Missing"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, ok := m.LocateProxy(1); ok {
		t.Fatalf("expected nothing to locate")
	}
}

func TestRecursiveDefinitionIsSkipped(t *testing.T) {
	m := NewManager()
	err := m.LoadDefinitions(strings.NewReader(`<ServerManagerConfiguration>
  <ProxyGroup name="loop">
    <Proxy name="Self">
      <ProxyProperty name="Next">
        <ProxyListDomain name="proxy_list"><Proxy group="loop" name="Self"/></ProxyListDomain>
      </ProxyProperty>
    </Proxy>
  </ProxyGroup>
</ServerManagerConfiguration>`))
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	obj, err := m.Create("loop", "Self")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	domain, ok := obj.Domain("Next")
	if !ok || domain.NumberOfProxies() != 0 {
		t.Fatalf("expected empty domain for recursive type")
	}
	if m.Len() != 1 {
		t.Fatalf("expected only the owner live, got %d", m.Len())
	}
}

func TestInvalidDomainDeclarationLeavesPropertyPlain(t *testing.T) {
	m := NewManager()
	err := m.LoadDefinitions(strings.NewReader(`<ServerManagerConfiguration>
  <ProxyGroup name="filters">
    <Proxy name="Broken">
      <ProxyProperty name="Input"><ProxyListDomain name="proxy_list"/></ProxyProperty>
    </Proxy>
  </ProxyGroup>
</ServerManagerConfiguration>`))
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	obj, err := m.Create("filters", "Broken")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := obj.Domain("Input"); ok {
		t.Fatalf("expected no domain for invalid declaration")
	}
}

func TestParseDefinitionsRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"wrong root":      `<Other/>`,
		"unnamed group":   `<ServerManagerConfiguration><ProxyGroup/></ServerManagerConfiguration>`,
		"unnamed proxy":   `<ServerManagerConfiguration><ProxyGroup name="g"><Proxy/></ProxyGroup></ServerManagerConfiguration>`,
		"unnamed element": `<ServerManagerConfiguration><ProxyGroup name="g"><Proxy name="p"><IntVectorProperty/></Proxy></ProxyGroup></ServerManagerConfiguration>`,
		"not xml":         `<ServerManagerConfiguration>`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDefinitions(strings.NewReader(raw)); !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestDefineRequiresIdentity(t *testing.T) {
	if err := NewManager().Define(Definition{Name: "NoGroup"}); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}
