// Package response builds the Response<T> envelope every RTC reply carries:
// a value plus the filtered tail of the commit log since the caller's known
// watermark (spec §4.5).
package response

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/luxgraph/rtc/internal/datasource"
	"github.com/luxgraph/rtc/internal/session"
)

// TailItem is one record in a Response's commit tail: the resource it
// belongs to, its txid, and its prepared payload.
type TailItem struct {
	Resource string
	TxID     uint64
	Payload  []byte
}

// Filter decides whether a given txid on resource should be included in a
// commit tail. commitSingleResourceTransaction uses `txid < justCommitted`
// to exclude the record the caller itself just wrote (spec §4.4 step 4,
// scenario S6); most other operations pass AcceptAll.
type Filter func(resource string, txid uint64) bool

// AcceptAll is the identity Filter: every txid beyond the watermark passes.
func AcceptAll(string, uint64) bool { return true }

// Before returns a Filter that excludes txid itself and anything at or
// beyond it, matching the "item < txid" predicate in spec §4.4.
func Before(txid uint64) Filter {
	return func(_ string, candidate uint64) bool { return candidate < txid }
}

// Response is the envelope every RTC reply carries (spec §3, "Response<T>").
type Response[T any] struct {
	Value      T
	CommitTail []TailItem
}

type cacheKey struct {
	resource  string
	sinceTxID uint64
}

type cacheEntry struct {
	headTxID uint64
	records  []datasource.Record
}

// Packer is the external ResponsePacker collaborator (spec §2,
// "ResponsePacker (external)"). It caches recently-read tail segments keyed
// by (resource, sinceTxID); a cache hit is only honored while the source's
// HeadTxID has not advanced past what was cached, so a burst of idle slaves
// polling the same watermark do not each force a fresh log read, while any
// new commit invalidates the relevant entries implicitly (the next read
// observes a newer HeadTxID and misses).
type Packer struct {
	sources datasource.Set
	cache   *lru.Cache
}

// NewPacker returns a Packer backed by sources, caching up to cacheSize
// distinct (resource, watermark) tail segments.
func NewPacker(sources datasource.Set, cacheSize int) (*Packer, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("response: building tail cache: %w", err)
	}
	return &Packer{sources: sources, cache: c}, nil
}

// Pack builds a Response carrying value plus the commit tail for every
// resource resources beyond the session's known watermark, restricted to
// records filter accepts (spec §4.5, "pack(value, session, filter)").
// Resources are visited in the order given and each resource's records are
// ascending by txid, matching the ordering guarantee in §4.5.
func Pack[T any](ctx context.Context, p *Packer, value T, key session.Key, resources []string, filter Filter) (Response[T], error) {
	var tail []TailItem
	for _, resourceName := range resources {
		since, _ := key.WatermarkFor(resourceName)
		records, err := p.tailSince(ctx, resourceName, since)
		if err != nil {
			return Response[T]{}, err
		}
		for _, rec := range records {
			if rec.TxID <= since {
				continue
			}
			if !filter(resourceName, rec.TxID) {
				continue
			}
			tail = append(tail, TailItem{Resource: resourceName, TxID: rec.TxID, Payload: rec.Payload})
		}
	}
	return Response[T]{Value: value, CommitTail: tail}, nil
}

// PackWithoutStream builds a Response carrying only value, no commit tail,
// for calls that do not conceptually advance the caller's view (spec §4.5:
// id allocation, master-id lookup, shutdown).
func PackWithoutStream[T any](value T) Response[T] {
	return Response[T]{Value: value}
}

func (p *Packer) tailSince(ctx context.Context, resourceName string, since uint64) ([]datasource.Record, error) {
	src, ok := p.sources.ByName(resourceName)
	if !ok {
		// Unregistered resources simply contribute no tail; callers that
		// require the resource to exist (commitSingleResourceTransaction)
		// check ByName themselves before reaching here.
		return nil, nil
	}

	head, err := src.HeadTxID(ctx)
	if err != nil {
		return nil, err
	}

	key := cacheKey{resource: resourceName, sinceTxID: since}
	if cached, ok := p.cache.Get(key); ok {
		entry := cached.(cacheEntry)
		if entry.headTxID == head {
			return entry.records, nil
		}
	}

	records, err := src.Tail(ctx, since)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, cacheEntry{headTxID: head, records: records})
	return records, nil
}
