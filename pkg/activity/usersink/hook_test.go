package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/pkg/activity"
	"github.com/goliatone/go-proxylist/pkg/activity/usersink"
	"github.com/goliatone/go-proxylist/xmlnode"
	usertypes "github.com/goliatone/go-users/pkg/types"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

type sinkProxy struct{ id proxylist.GlobalID }

func (p *sinkProxy) Group() string                              { return "sources" }
func (p *sinkProxy) Name() string                               { return "SphereSource" }
func (p *sinkProxy) GlobalID() proxylist.GlobalID               { return p.id }
func (p *sinkProxy) Property(string) (proxylist.Property, bool) { return nil, false }
func (p *sinkProxy) Hints() *xmlnode.Element                    { return nil }

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	objectID := uuid.New().String()

	event := activity.BuildProxyAddedEvent(activity.DomainEventInput{
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		DomainID:       objectID,
		DomainName:     "glyph_type",
		Channel:        "proxylist",
		DefinitionCode: "proxylist:add",
		Proxies:        []activity.ProxyRef{{Group: "sources", Name: "SphereSource", ID: 3}},
		Count:          1,
		OccurredAt:     now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identities: %+v", record)
	}
	if record.Verb != activity.VerbProxyAdded || record.ObjectType != activity.ObjectTypeDomain || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "proxylist" || record.OccurredAt != now {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["definition_code"] != "proxylist:add" || record.Data["domain"] != "glyph_type" {
		t.Fatalf("expected metadata passthrough, got %v", record.Data)
	}
	if _, ok := record.Data["proxies"]; ok {
		t.Fatalf("expected nested proxies flattened")
	}
	ids, ok := record.Data["proxy_ids"].([]uint64)
	if !ok || len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("expected proxy ids, got %v", record.Data["proxy_ids"])
	}
	names, ok := record.Data["proxy_names"].([]string)
	if !ok || len(names) != 1 || names[0] != "sources/SphereSource" {
		t.Fatalf("expected proxy names, got %v", record.Data["proxy_names"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookVerbFilterAndTenantFallback(t *testing.T) {
	sink := &recordingSink{}
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbStateLoaded}, TenantID: tenant}

	_ = hook.Notify(context.Background(), activity.BuildProxyAddedEvent(activity.DomainEventInput{DomainID: "d1"}))
	if len(sink.records) != 0 {
		t.Fatalf("expected filtered verb dropped")
	}

	if err := hook.Notify(context.Background(), activity.BuildStateLoadedEvent(activity.DomainEventInput{DomainID: "d1"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].TenantID != tenant {
		t.Fatalf("expected tenant fallback %s, got %s", tenant, sink.records[0].TenantID)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookReceivesDomainEvents(t *testing.T) {
	sink := &recordingSink{}
	domain := proxylist.New(
		proxylist.WithName("glyph_type"),
		proxylist.WithActivityHooks(activity.Hooks{usersink.Hook{Sink: sink}}),
	)
	p := &sinkProxy{id: 5}
	domain.AddProxy(p)
	domain.RemoveProxy(p)

	if len(sink.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(sink.records))
	}
	if sink.records[1].Verb != activity.VerbProxyRemoved || sink.records[1].ObjectID != domain.ID() {
		t.Fatalf("unexpected removal record: %+v", sink.records[1])
	}
	if sink.records[0].Data["count"] != 1 || sink.records[1].Data["count"] != 0 {
		t.Fatalf("expected list sizes recorded, got %v and %v", sink.records[0].Data["count"], sink.records[1].Data["count"])
	}
}
