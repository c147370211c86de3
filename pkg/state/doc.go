// Package state persists proxy-list domain snapshots per session.
//
// A snapshot is the Domain element produced by proxylist.Domain.State: the
// domain name plus one global id per listed proxy. Restoring needs a
// proxylist.Locator that maps those ids back to live proxies; Registry is a
// minimal one.
//
// Data flow:
//
//	Domain.State() -> Resolver.Save -> Store.Save
//	Store.Load -> Resolver.Restore -> Domain.LoadState(snapshot, locator)
//
// Store implementations only load/save one snapshot for one Ref. Concurrency
// control is optimistic: a Save carrying an ETag that differs from the stored
// one fails with ErrETagMismatch.
package state
