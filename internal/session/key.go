// Package session defines the remote-transaction identity (SessionKey),
// the master-side bookkeeping entry for it (Entry), and the concurrent
// Registry mapping one to the other.
package session

import (
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// Watermark is the last txid a slave has already ingested for one resource.
// The master consults it to decide which commit records to echo back in a
// reply's commit tail (see the response package).
type Watermark struct {
	Resource string
	TxID     uint64
}

// Key is the opaque, value-equal identity of a remote transaction. Two keys
// with equal fields denote the same session regardless of when or where they
// were constructed; Registry and its callers rely on Go's native struct
// comparability for this, so Key must stay free of slices or maps in its
// comparable core and carry watermarks out-of-line.
//
// sessionNonce and eventSeq are carried as uint256 rather than plain uint64
// because they travel over the wire as opaque 256-bit correlation fields in
// the surrounding protocol (the wire codec is an external collaborator, see
// spec §1); keeping their native width here avoids a truncating conversion
// at the RTC boundary.
type Key struct {
	OriginID     uint32
	SessionNonce uint256.Int
	EventSeq     uint256.Int
	watermarks   string // canonicalized "resource=txid,resource=txid" for comparability
}

// Empty is the stateless-query session key: no origin, no watermarks.
var Empty = Key{}

// NewKey builds a Key from its wire-level fields. Watermarks are
// canonicalized (sorted by resource name) so that two requests listing the
// same watermarks in different orders compare equal.
func NewKey(originID uint32, nonce, eventSeq uint256.Int, watermarks []Watermark) Key {
	return Key{
		OriginID:     originID,
		SessionNonce: nonce,
		EventSeq:     eventSeq,
		watermarks:   canonicalizeWatermarks(watermarks),
	}
}

// Watermarks decodes the canonicalized watermark string back into the
// (resource, txid) pairs the caller supplied, sorted by resource name.
func (k Key) Watermarks() []Watermark {
	if k.watermarks == "" {
		return nil
	}
	parts := strings.Split(k.watermarks, ",")
	out := make([]Watermark, 0, len(parts))
	for _, p := range parts {
		res, txidStr, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		var txid uint64
		for _, c := range txidStr {
			txid = txid*10 + uint64(c-'0')
		}
		out = append(out, Watermark{Resource: res, TxID: txid})
	}
	return out
}

// WatermarkFor returns the caller's known txid for resource, or 0 (and
// false) if the session has no watermark recorded for it.
func (k Key) WatermarkFor(resource string) (uint64, bool) {
	for _, w := range k.Watermarks() {
		if w.Resource == resource {
			return w.TxID, true
		}
	}
	return 0, false
}

func canonicalizeWatermarks(watermarks []Watermark) string {
	if len(watermarks) == 0 {
		return ""
	}
	sorted := make([]Watermark, len(watermarks))
	copy(sorted, watermarks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Resource < sorted[j].Resource })

	var b strings.Builder
	for i, w := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(w.Resource)
		b.WriteByte('=')
		writeUint64(&b, w.TxID)
	}
	return b.String()
}

func writeUint64(b *strings.Builder, v uint64) {
	if v == 0 {
		b.WriteByte('0')
		return
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	b.Write(digits[i:])
}
