package activity

import (
	"strings"
	"time"
)

// Verbs emitted by proxy-list domains.
const (
	VerbProxyAdded   = "proxylist.proxy.added"
	VerbProxyRemoved = "proxylist.proxy.removed"
	VerbProxiesSet   = "proxylist.proxies.set"
	VerbStateLoaded  = "proxylist.state.loaded"

	// ObjectTypeDomain is the object type of every domain event.
	ObjectTypeDomain = "proxylist.domain"
)

// ProxyRef identifies one listed proxy inside an event.
type ProxyRef struct {
	Group string
	Name  string
	ID    uint64
}

// DomainEventInput describes the common fields for domain change events.
type DomainEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	DomainID       string
	DomainName     string
	Property       string
	Channel        string
	DefinitionCode string
	Proxies        []ProxyRef
	Count          int
	SnapshotID     string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// BuildProxyAddedEvent describes a proxy appended to a domain.
func BuildProxyAddedEvent(input DomainEventInput) Event {
	return buildDomainEvent(VerbProxyAdded, input)
}

// BuildProxyRemovedEvent describes a proxy removed from a domain.
func BuildProxyRemovedEvent(input DomainEventInput) Event {
	return buildDomainEvent(VerbProxyRemoved, input)
}

// BuildProxiesSetEvent describes a wholesale replacement of the listed proxies.
func BuildProxiesSetEvent(input DomainEventInput) Event {
	return buildDomainEvent(VerbProxiesSet, input)
}

// BuildStateLoadedEvent describes a domain restored from saved state.
func BuildStateLoadedEvent(input DomainEventInput) Event {
	return buildDomainEvent(VerbStateLoaded, input)
}

func buildDomainEvent(verb string, input DomainEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if name := strings.TrimSpace(input.DomainName); name != "" {
		metadata = ensureMetadata(metadata)
		metadata["domain"] = name
	}
	if property := strings.TrimSpace(input.Property); property != "" {
		metadata = ensureMetadata(metadata)
		metadata["property"] = property
	}
	if len(input.Proxies) > 0 {
		metadata = ensureMetadata(metadata)
		proxies := make([]map[string]any, 0, len(input.Proxies))
		for _, ref := range input.Proxies {
			proxies = append(proxies, map[string]any{
				"group": ref.Group,
				"name":  ref.Name,
				"id":    ref.ID,
			})
		}
		metadata["proxies"] = proxies
	}
	metadata = ensureMetadata(metadata)
	metadata["count"] = input.Count
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}

	objectID := strings.TrimSpace(input.DomainID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.DomainName)
	}
	if objectID == "" {
		objectID = ObjectTypeDomain
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeDomain,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

// ProxyRefs decodes the proxies listed in a domain event's metadata.
func ProxyRefs(event Event) []ProxyRef {
	raw, ok := event.Metadata["proxies"].([]map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	refs := make([]ProxyRef, 0, len(raw))
	for _, entry := range raw {
		ref := ProxyRef{}
		ref.Group, _ = entry["group"].(string)
		ref.Name, _ = entry["name"].(string)
		ref.ID, _ = entry["id"].(uint64)
		refs = append(refs, ref)
	}
	return refs
}
