package proxylist

// subscription is one observer registration on an owner property.
type subscription struct {
	source   Property
	handle   Handle
	observer *linkObserver
}

// entry is one listed proxy plus the link subscriptions created for it.
type entry struct {
	proxy         Proxy
	subscriptions []subscription
}

// release unsubscribes every link created for the entry. It runs before the
// entry is dropped so no callback can reach the proxy afterwards.
func (e *entry) release() {
	for _, sub := range e.subscriptions {
		sub.observer.stop()
		if sub.source != nil {
			sub.source.Unsubscribe(sub.handle)
		}
	}
	e.subscriptions = nil
}
