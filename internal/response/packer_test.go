package response

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxgraph/rtc/internal/datasource"
	"github.com/luxgraph/rtc/internal/session"
)

type fakeSource struct {
	name    string
	records []datasource.Record
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) ApplyPrepared(ctx context.Context, payload []byte) (uint64, error) {
	txid := uint64(len(s.records)) + 1
	s.records = append(s.records, datasource.Record{TxID: txid, Payload: payload})
	return txid, nil
}

func (s *fakeSource) Tail(ctx context.Context, since uint64) ([]datasource.Record, error) {
	var out []datasource.Record
	for _, r := range s.records {
		if r.TxID > since {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSource) HeadTxID(ctx context.Context) (uint64, error) {
	if len(s.records) == 0 {
		return 0, nil
	}
	return s.records[len(s.records)-1].TxID, nil
}

type fakeSet struct {
	sources map[string]*fakeSource
}

func (s *fakeSet) ByName(name string) (datasource.Source, bool) {
	src, ok := s.sources[name]
	return src, ok
}

func (s *fakeSet) GetMasterFor(ctx context.Context, txid uint64) (uint64, uint64, error) {
	return 1, txid - 1, nil
}

// TestPackFiltersCommitTail is scenario S6: with txids {10,11,12} already on
// the log, watermark=10, and a just-committed txid of 13, the tail must
// surface exactly {11,12}.
func TestPackFiltersCommitTail(t *testing.T) {
	src := &fakeSource{name: "neostore"}
	for i := 0; i < 12; i++ {
		_, err := src.ApplyPrepared(context.Background(), []byte("seed"))
		require.NoError(t, err)
	}
	set := &fakeSet{sources: map[string]*fakeSource{"neostore": src}}
	packer, err := NewPacker(set, 16)
	require.NoError(t, err)

	const justCommitted = 13
	_, err = src.ApplyPrepared(context.Background(), []byte("commit-13"))
	require.NoError(t, err)

	key := session.NewKey(1, session.Empty.SessionNonce, session.Empty.EventSeq, []session.Watermark{
		{Resource: "neostore", TxID: 10},
	})

	resp, err := Pack(context.Background(), packer, uint64(justCommitted), key, []string{"neostore"}, Before(justCommitted))
	require.NoError(t, err)

	var txids []uint64
	for _, item := range resp.CommitTail {
		txids = append(txids, item.TxID)
	}
	require.Equal(t, []uint64{11, 12}, txids)
}

func TestPackWithoutStreamCarriesNoTail(t *testing.T) {
	resp := PackWithoutStream(42)
	require.Equal(t, 42, resp.Value)
	require.Empty(t, resp.CommitTail)
}

func TestPackSkipsUnregisteredResources(t *testing.T) {
	set := &fakeSet{sources: map[string]*fakeSource{}}
	packer, err := NewPacker(set, 4)
	require.NoError(t, err)

	resp, err := Pack(context.Background(), packer, "v", session.Empty, []string{"missing"}, AcceptAll)
	require.NoError(t, err)
	require.Empty(t, resp.CommitTail)
}

func TestTailCacheInvalidatesOnNewHead(t *testing.T) {
	src := &fakeSource{name: "neostore"}
	set := &fakeSet{sources: map[string]*fakeSource{"neostore": src}}
	packer, err := NewPacker(set, 4)
	require.NoError(t, err)

	key := session.Empty
	resp, err := Pack(context.Background(), packer, struct{}{}, key, []string{"neostore"}, AcceptAll)
	require.NoError(t, err)
	require.Empty(t, resp.CommitTail)

	_, err = src.ApplyPrepared(context.Background(), []byte("new"))
	require.NoError(t, err)

	resp, err = Pack(context.Background(), packer, struct{}{}, key, []string{"neostore"}, AcceptAll)
	require.NoError(t, err)
	require.Len(t, resp.CommitTail, 1)
}
