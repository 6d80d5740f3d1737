package bus

import (
	"container/list"
	"sync"
	"time"

	"oraclia-chat-platform/internal/domain/model"
)

// Dedupe is a TTL-based, size-limited seen-id cache. Subscribers wrap their
// listeners with it so a redelivery caused by reconnects or re-listing never
// becomes a semantic duplicate. Expired entries are evicted lazily on write;
// there is no background goroutine to leak.
type Dedupe struct {
	mu      sync.Mutex
	seen    map[string]*dedupeEntry
	order   *list.List // keys oldest-first
	ttl     time.Duration
	maxSize int
}

type dedupeEntry struct {
	at      time.Time
	element *list.Element
}

func NewDedupe(ttl time.Duration, maxSize int) *Dedupe {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Dedupe{
		seen:    make(map[string]*dedupeEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// CheckAndMark atomically reports whether the key was already seen and marks
// it otherwise. Atomicity avoids the check/mark race two deliveries of the
// same id could otherwise hit.
func (d *Dedupe) CheckAndMark(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok && time.Since(e.at) < d.ttl {
		return true
	}
	d.markLocked(key)
	return false
}

func (d *Dedupe) markLocked(key string) {
	now := time.Now()
	if e, ok := d.seen[key]; ok {
		e.at = now
		d.order.MoveToBack(e.element)
		return
	}
	d.evictLocked(now)
	elem := d.order.PushBack(key)
	d.seen[key] = &dedupeEntry{at: now, element: elem}
}

// evictLocked drops expired entries, then the oldest entry if still at
// capacity.
func (d *Dedupe) evictLocked(now time.Time) {
	for front := d.order.Front(); front != nil; front = d.order.Front() {
		key := front.Value.(string)
		if now.Sub(d.seen[key].at) < d.ttl {
			break
		}
		d.order.Remove(front)
		delete(d.seen, key)
	}
	if len(d.seen) >= d.maxSize {
		if front := d.order.Front(); front != nil {
			key := front.Value.(string)
			d.order.Remove(front)
			delete(d.seen, key)
		}
	}
}

// Len reports the current number of tracked ids.
func (d *Dedupe) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// DedupListener wraps fn so messages whose id was already delivered through
// this wrapper are dropped.
func DedupListener(d *Dedupe, fn Listener) Listener {
	return func(conversationID string, msg *model.Message) {
		if d.CheckAndMark(conversationID + "/" + msg.ID) {
			return
		}
		fn(conversationID, msg)
	}
}
