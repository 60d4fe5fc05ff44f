package session

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestKeyWatermarkOrderIndependence(t *testing.T) {
	nonce := uint256.NewInt(1)
	seq := uint256.NewInt(2)

	a := NewKey(7, *nonce, *seq, []Watermark{
		{Resource: "neostore", TxID: 10},
		{Resource: "neostore.propertystore", TxID: 3},
	})
	b := NewKey(7, *nonce, *seq, []Watermark{
		{Resource: "neostore.propertystore", TxID: 3},
		{Resource: "neostore", TxID: 10},
	})

	require.Equal(t, a, b, "watermark order must not affect key identity")
}

func TestKeyWatermarkFor(t *testing.T) {
	key := NewKey(1, uint256.Int{}, uint256.Int{}, []Watermark{
		{Resource: "neostore", TxID: 42},
	})

	txid, ok := key.WatermarkFor("neostore")
	require.True(t, ok)
	require.EqualValues(t, 42, txid)

	_, ok = key.WatermarkFor("unknown")
	require.False(t, ok)
}

func TestEmptyKeyHasNoWatermarks(t *testing.T) {
	require.Empty(t, Empty.Watermarks())
	_, ok := Empty.WatermarkFor("neostore")
	require.False(t, ok)
}

func TestKeyDistinctFieldsAreNotEqual(t *testing.T) {
	a := NewKey(1, uint256.Int{}, uint256.Int{}, nil)
	b := NewKey(2, uint256.Int{}, uint256.Int{}, nil)
	require.NotEqual(t, a, b)
}
