package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/xmlnode"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted snapshot for one domain in one session.
type Ref struct {
	Session string
	Domain  string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Snapshotter is the part of a proxy-list domain the resolver needs.
type Snapshotter interface {
	// StateKey is unique per domain within a session.
	StateKey() string
	State() *xmlnode.Element
	LoadState(el *xmlnode.Element, loc proxylist.Locator) error
}

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	session := strings.TrimSpace(r.Session)
	if session == "" {
		return "", fmt.Errorf("state: session is required")
	}
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	return fmt.Sprintf("session/%s/%s", session, domain), nil
}

// Resolver saves and restores domain snapshots through a Store.
type Resolver struct {
	Store Store[*xmlnode.Element]
	// Now defaults to time.Now.
	Now func() time.Time
}

// RefFor builds the reference of domain within session, keyed by the
// domain's StateKey.
func RefFor(session string, domain Snapshotter) Ref {
	if domain == nil {
		return Ref{Session: session}
	}
	return Ref{Session: session, Domain: domain.StateKey()}
}

// Save writes the current state of domain. A non-empty meta.ETag must match
// the stored ETag. The returned Meta carries a fresh snapshot id and ETag.
func (r Resolver) Save(ctx context.Context, session string, domain Snapshotter, meta Meta) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if domain == nil {
		return Meta{}, fmt.Errorf("state: domain is required")
	}
	ref := RefFor(session, domain)
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}

	_, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q for session %q: %w", ref.Domain, ref.Session, err)
	}
	if !ok {
		loadedMeta = Meta{}
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = uuid.NewString()
	saveMeta.UpdatedAt = r.now()

	savedMeta, err := r.Store.Save(ctx, ref, domain.State(), saveMeta)
	if err != nil {
		return loadedMeta, fmt.Errorf("state: save %q for session %q: %w", ref.Domain, ref.Session, err)
	}
	return savedMeta, nil
}

// Restore loads the stored snapshot of domain and applies it through loc. It
// reports false, leaving domain untouched, when nothing was stored.
func (r Resolver) Restore(ctx context.Context, session string, domain Snapshotter, loc proxylist.Locator) (Meta, bool, error) {
	if r.Store == nil {
		return Meta{}, false, fmt.Errorf("state: store is required")
	}
	if domain == nil {
		return Meta{}, false, fmt.Errorf("state: domain is required")
	}
	ref := RefFor(session, domain)
	snapshot, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, false, fmt.Errorf("state: load %q for session %q: %w", ref.Domain, ref.Session, err)
	}
	if !ok {
		return Meta{}, false, nil
	}
	if err := domain.LoadState(snapshot, loc); err != nil {
		return meta, true, fmt.Errorf("state: restore %q for session %q: %w", ref.Domain, ref.Session, err)
	}
	return meta, true, nil
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
