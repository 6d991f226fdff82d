// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

// RemoveReason identifies why an entry left the pool, carried on every
// entry-removed notification.
type RemoveReason int

const (
	// RemoveUnknown covers removals that don't fit any of the reasons
	// below (tests exercising removeUnchecked directly, for instance).
	RemoveUnknown RemoveReason = iota

	// RemoveBlock: the entry's transaction was mined.
	RemoveBlock

	// RemoveConflict: the entry was evicted because a competing
	// transaction in a connecting block spent one of the same inputs.
	RemoveConflict

	// RemoveReorg: the entry failed final-ness re-validation (coinbase
	// maturity or a relative-locktime lock point) after a reorg.
	RemoveReorg

	// RemoveSizeLimit: the entry's package was evicted by trim_to_size
	// to keep the pool under its dynamic memory ceiling.
	RemoveSizeLimit

	// RemoveExpiry: the entry aged out past its configured expiry.
	RemoveExpiry

	// RemoveReplaced: the entry was evicted by a fee-bumping replacement
	// transaction. Replacement policy (BIP125) itself lives outside this
	// module, so nothing currently produces this reason, but it's part of
	// the removal-reason vocabulary collaborators can observe.
	RemoveReplaced
)

func (r RemoveReason) String() string {
	switch r {
	case RemoveBlock:
		return "block"
	case RemoveConflict:
		return "conflict"
	case RemoveReorg:
		return "reorg"
	case RemoveSizeLimit:
		return "size-limit"
	case RemoveExpiry:
		return "expiry"
	case RemoveReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// NotificationType identifies the kind of event carried by a Notification.
type NotificationType int

const (
	// NTEntryAdded fires after an entry is fully linked into the pool.
	// Data is *EntryAddedNotification.
	NTEntryAdded NotificationType = iota

	// NTEntryRemoved fires after an entry has been unlinked from the
	// pool. Data is *EntryRemovedNotification.
	NTEntryRemoved
)

var notificationTypeStrings = map[NotificationType]string{
	NTEntryAdded:   "NTEntryAdded",
	NTEntryRemoved: "NTEntryRemoved",
}

func (t NotificationType) String() string {
	if s, ok := notificationTypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

// EntryAddedNotification is the NTEntryAdded notification payload.
type EntryAddedNotification struct {
	Entry *Entry
}

// EntryRemovedNotification is the NTEntryRemoved notification payload.
type EntryRemovedNotification struct {
	Entry  *Entry
	Reason RemoveReason
}

// NotificationCallback is the shape of a pool event subscriber.
type NotificationCallback func(*Notification)

// Notification is delivered to every subscriber for each pool event, in the
// order the underlying mutation occurred, while the pool's lock is still
// held — per spec.md §5, subscribers must not call back into the pool.
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe registers callback to receive every future notification.
func (p *Pool) Subscribe(callback NotificationCallback) {
	p.notificationsLock.Lock()
	p.notifications = append(p.notifications, callback)
	p.notificationsLock.Unlock()
}

func (p *Pool) sendNotification(typ NotificationType, data interface{}) {
	n := Notification{Type: typ, Data: data}
	p.notificationsLock.RLock()
	for _, callback := range p.notifications {
		callback(&n)
	}
	p.notificationsLock.RUnlock()
}
