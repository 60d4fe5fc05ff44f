package refimpl

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/luxgraph/rtc/internal/datasource"
	"github.com/luxgraph/rtc/internal/session"
)

// Source is an in-memory append-only log: one per named resource (spec §2,
// "DataSourceSet (external)").
type Source struct {
	name string

	mu      sync.Mutex
	records []datasource.Record
}

// NewSource returns an empty Source named name.
func NewSource(name string) *Source {
	return &Source{name: name}
}

// Name implements datasource.Source.
func (s *Source) Name() string { return s.name }

// ApplyPrepared implements datasource.Source, assigning strictly
// increasing, monotone txids per resource (spec §8 invariant 5).
func (s *Source) ApplyPrepared(ctx context.Context, payload []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txid := uint64(len(s.records)) + 1
	s.records = append(s.records, datasource.Record{TxID: txid, Payload: payload})
	return txid, nil
}

// Tail implements datasource.Source.
func (s *Source) Tail(ctx context.Context, sinceTxID uint64) ([]datasource.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []datasource.Record
	for _, rec := range s.records {
		if rec.TxID > sinceTxID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// HeadTxID implements datasource.Source.
func (s *Source) HeadTxID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return 0, nil
	}
	return s.records[len(s.records)-1].TxID, nil
}

var _ datasource.Source = (*Source)(nil)

// Set is an in-memory DataSourceSet reference implementation, also
// implementing datasource.Copier so cmd/rtcd can wire one value for both
// roles.
type Set struct {
	masterEpoch uint64

	mu      sync.Mutex
	sources map[string]*Source
}

// NewSet returns an empty Set reporting masterEpoch for every historical
// commit lookup.
func NewSet(masterEpoch uint64) *Set {
	return &Set{masterEpoch: masterEpoch, sources: make(map[string]*Source)}
}

// Register adds src under its own name, for cmd/rtcd's startup wiring.
func (s *Set) Register(src *Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.Name()] = src
}

// ByName implements datasource.Set.
func (s *Set) ByName(resourceName string) (datasource.Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[resourceName]
	return src, ok
}

// GetMasterFor implements datasource.Set. The reference adapter has only
// ever had one master, so it always reports the same epoch and the
// requested txid minus one as the previous commit.
func (s *Set) GetMasterFor(ctx context.Context, txid uint64) (masterEpoch uint64, previousTxID uint64, err error) {
	if txid == 0 {
		return 0, 0, fmt.Errorf("refimpl: txid 0 has no master")
	}
	return s.masterEpoch, txid - 1, nil
}

// CopyStore implements datasource.Copier: it writes a trivial textual image
// of every resource's current head to w and returns each resource's current
// head as the post-rotation watermark (rotation itself is a no-op here,
// since the reference log never truncates).
func (s *Set) CopyStore(ctx context.Context, w io.Writer) ([]session.Watermark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	watermarks := make([]session.Watermark, 0, len(s.sources))
	for name, src := range s.sources {
		head, err := src.HeadTxID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintf(w, "%s:%d\n", name, head); err != nil {
			return nil, err
		}
		watermarks = append(watermarks, session.Watermark{Resource: name, TxID: head})
	}
	return watermarks, nil
}

var (
	_ datasource.Set    = (*Set)(nil)
	_ datasource.Copier = (*Set)(nil)
)
