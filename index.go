// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"crypto/rand"

	"github.com/aead/siphash"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// saltedIDHasher hashes an ID with a per-pool random salt, so that an
// adversary who can choose transaction ids (by grinding a transaction's
// non-malleable fields) cannot force every id into a single hash bucket.
// Mirrors Bitcoin Core's SaltedTxidHasher, which mixes two random uint64s
// into txid via SipHash; here the 16-byte SipHash key plays the role of
// (k0, k1).
type saltedIDHasher struct {
	key [16]byte
}

func newSaltedIDHasher() saltedIDHasher {
	var h saltedIDHasher
	// crypto/rand never fails on supported platforms; a zero salt would
	// only degrade adversarial resistance, not correctness, so a short
	// read is tolerated rather than propagated as a constructor error.
	_, _ = rand.Read(h.key[:])
	return h
}

func (h saltedIDHasher) hash(id ID) uint64 {
	return siphash.Sum64(h.key[:], id[:])
}

// idBucket chains entries that collide on the same salted hash.
type idBucket []*Entry

// idIndex is the multi-index's hashed-unique ordering by id (component C,
// ordering 1). It is a small separately-chained hash table rather
// than a plain Go map so the salted hash in spec.md §3 is the thing actually
// doing the bucketing, instead of the runtime's own (also randomized, but
// opaque) map hash.
type idIndex struct {
	hasher  saltedIDHasher
	buckets map[uint64]idBucket
	count   int
}

func newIDIndex() *idIndex {
	return &idIndex{
		hasher:  newSaltedIDHasher(),
		buckets: make(map[uint64]idBucket),
	}
}

func (idx *idIndex) get(id ID) (*Entry, bool) {
	bucket := idx.buckets[idx.hasher.hash(id)]
	for _, e := range bucket {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

func (idx *idIndex) has(id ID) bool {
	_, ok := idx.get(id)
	return ok
}

func (idx *idIndex) put(e *Entry) {
	h := idx.hasher.hash(e.id)
	idx.buckets[h] = append(idx.buckets[h], e)
	idx.count++
}

func (idx *idIndex) remove(id ID) {
	h := idx.hasher.hash(id)
	bucket := idx.buckets[h]
	for i, e := range bucket {
		if e.id == id {
			bucket[i] = bucket[len(bucket)-1]
			idx.buckets[h] = bucket[:len(bucket)-1]
			idx.count--
			return
		}
	}
}

func (idx *idIndex) size() int { return idx.count }

func (idx *idIndex) each(fn func(*Entry)) {
	for _, bucket := range idx.buckets {
		for _, e := range bucket {
			fn(e)
		}
	}
}

// modFeeAndSizeForDescendants returns the fee/size pair used to sort e by
// descendant score: max(feerate of e alone, feerate of e with descendants),
// per spec.md §3 ordering 2 and CompareTxMemPoolEntryByDescendantScore.
func modFeeAndSizeForDescendants(e *Entry) (modFee float64, size float64) {
	f1 := float64(e.ModifiedFee()) * float64(e.SizeWithDescendants())
	f2 := float64(e.ModFeesWithDescendants()) * float64(e.Size())
	if f2 > f1 {
		return float64(e.ModFeesWithDescendants()), float64(e.SizeWithDescendants())
	}
	return float64(e.ModifiedFee()), float64(e.Size())
}

// modFeeAndSizeForAncestors returns the fee/size pair used to sort e by
// ancestor score: min(feerate of e alone, feerate of e with ancestors), per
// spec.md §3 ordering 4 and CompareTxMemPoolEntryByAncestorFee.
func modFeeAndSizeForAncestors(e *Entry) (modFee float64, size float64) {
	f1 := float64(e.ModifiedFee()) * float64(e.SizeWithAncestors())
	f2 := float64(e.ModFeesWithAncestors()) * float64(e.Size())
	if f1 > f2 {
		return float64(e.ModFeesWithAncestors()), float64(e.SizeWithAncestors())
	}
	return float64(e.ModifiedFee()), float64(e.Size())
}

func idLess(a, b ID) bool {
	return a.String() < b.String()
}

// compareDescendantScore orders entries ascending by descendant score, with
// ties broken by older time first — spec.md §3 ordering 2. An id comparison
// is appended purely to give the backing tree a strict total order; it
// never fires unless both score and time already tie.
func compareDescendantScore(av, bv interface{}) int {
	a, b := av.(*Entry), bv.(*Entry)

	aFee, aSize := modFeeAndSizeForDescendants(a)
	bFee, bSize := modFeeAndSizeForDescendants(b)

	f1 := aFee * bSize
	f2 := aSize * bFee

	switch {
	case f1 < f2:
		return -1
	case f1 > f2:
		return 1
	}

	if a.Time() != b.Time() {
		if a.Time() < b.Time() {
			return -1
		}
		return 1
	}
	return idCompare(a.id, b.id)
}

// compareEntryTime orders entries ascending by admission time — spec.md §3
// ordering 3. The id comparison is again only a total-order tiebreak.
func compareEntryTime(av, bv interface{}) int {
	a, b := av.(*Entry), bv.(*Entry)
	if a.Time() != b.Time() {
		if a.Time() < b.Time() {
			return -1
		}
		return 1
	}
	return idCompare(a.id, b.id)
}

// compareAncestorScore orders entries *descending* by ancestor score, with
// ties broken by smaller id — spec.md §3 ordering 4.
func compareAncestorScore(av, bv interface{}) int {
	a, b := av.(*Entry), bv.(*Entry)

	aFee, aSize := modFeeAndSizeForAncestors(a)
	bFee, bSize := modFeeAndSizeForAncestors(b)

	f1 := aFee * bSize
	f2 := aSize * bFee

	switch {
	case f1 > f2:
		return -1
	case f1 < f2:
		return 1
	}
	return idCompare(a.id, b.id)
}

func idCompare(a, b ID) int {
	switch {
	case a == b:
		return 0
	case idLess(a, b):
		return -1
	default:
		return 1
	}
}

// multiIndex is the pool's live, four-way ordered view over its entries
// (component C): hashed-unique by id, plus three redblacktree orderings by
// descendant-score, entry-time, and ancestor-score. A balanced tree is the
// design alternative spec.md §9's Design Notes calls out explicitly for
// boost::multi_index's ordered_non_unique indexes.
type multiIndex struct {
	byID             *idIndex
	byDescendantScore *redblacktree.Tree
	byEntryTime       *redblacktree.Tree
	byAncestorScore   *redblacktree.Tree
}

func newMultiIndex() *multiIndex {
	return &multiIndex{
		byID:              newIDIndex(),
		byDescendantScore: redblacktree.NewWith(compareDescendantScore),
		byEntryTime:       redblacktree.NewWith(compareEntryTime),
		byAncestorScore:   redblacktree.NewWith(compareAncestorScore),
	}
}

// insert adds e to all four orderings. Callers must ensure e's id is not
// already present.
func (mi *multiIndex) insert(e *Entry) {
	mi.byID.put(e)
	mi.byDescendantScore.Put(e, e)
	mi.byEntryTime.Put(e, e)
	mi.byAncestorScore.Put(e, e)
}

// erase removes e from all four orderings.
func (mi *multiIndex) erase(e *Entry) {
	mi.byID.remove(e.id)
	mi.byDescendantScore.Remove(e)
	mi.byEntryTime.Remove(e)
	mi.byAncestorScore.Remove(e)
}

// modifyDescendantAggregates is the modify-in-place primitive spec.md §4.C
// requires for any mutation that can change the descendant-score key: the
// entry must be pulled out of that tree *before* its backing fields change
// (the tree was built from the old values, so a comparator reading the new
// values could walk the wrong path to find it), then reinserted under the
// new key.
func (mi *multiIndex) modifyDescendantAggregates(e *Entry, sizeDelta int64, feeDelta btcutil.Amount, countDelta int64) {
	mi.byDescendantScore.Remove(e)
	e.ApplyDescendantDelta(sizeDelta, feeDelta, countDelta)
	mi.byDescendantScore.Put(e, e)
}

// modifyAncestorAggregates is modifyDescendantAggregates's counterpart for
// the ancestor-score key.
func (mi *multiIndex) modifyAncestorAggregates(e *Entry, sizeDelta int64, feeDelta btcutil.Amount, countDelta, sigOpDelta int64) {
	mi.byAncestorScore.Remove(e)
	e.ApplyAncestorDelta(sizeDelta, feeDelta, countDelta, sigOpDelta)
	mi.byAncestorScore.Put(e, e)
}

// modifyFeeDelta changes e's prioritisation bias. ModifiedFee feeds both the
// descendant-score and ancestor-score comparators, so both trees must be
// pulled and reinserted around the mutation.
func (mi *multiIndex) modifyFeeDelta(e *Entry, newDelta btcutil.Amount) {
	mi.byDescendantScore.Remove(e)
	mi.byAncestorScore.Remove(e)
	e.UpdateFeeDelta(newDelta)
	mi.byDescendantScore.Put(e, e)
	mi.byAncestorScore.Put(e, e)
}

func (mi *multiIndex) get(id ID) (*Entry, bool) { return mi.byID.get(id) }
func (mi *multiIndex) has(id ID) bool           { return mi.byID.has(id) }
func (mi *multiIndex) size() int                { return mi.byID.size() }

// each iterates every entry; order is unspecified (it walks the id index's
// buckets).
func (mi *multiIndex) each(fn func(*Entry)) { mi.byID.each(fn) }

// ascendingByDescendantScore iterates entries from lowest to highest
// descendant score — the order trim_to_size (component E) evicts in.
func (mi *multiIndex) ascendingByDescendantScore(fn func(*Entry) bool) {
	it := mi.byDescendantScore.Iterator()
	for it.Next() {
		if !fn(it.Key().(*Entry)) {
			return
		}
	}
}

// ascendingByEntryTime iterates entries from oldest to newest — the order
// expire (component E) walks.
func (mi *multiIndex) ascendingByEntryTime(fn func(*Entry) bool) {
	it := mi.byEntryTime.Iterator()
	for it.Next() {
		if !fn(it.Key().(*Entry)) {
			return
		}
	}
}

// descendingByAncestorScore iterates entries from highest to lowest
// ancestor score — the order block assembly mines in.
func (mi *multiIndex) descendingByAncestorScore(fn func(*Entry) bool) {
	// compareAncestorScore already sorts the highest score first, so a
	// forward walk yields the mining order.
	it := mi.byAncestorScore.Iterator()
	for it.Next() {
		if !fn(it.Key().(*Entry)) {
			return
		}
	}
}

// descendantScorePosition reports e's rank (0 = lowest) in the ascending
// descendant-score tree, used by CompareDepthAndScore. The second return is
// false if e is absent from the index.
func (mi *multiIndex) descendantScorePosition(e *Entry) (int, bool) {
	if !mi.has(e.id) {
		return 0, false
	}
	pos := 0
	found := false
	mi.ascendingByDescendantScore(func(cur *Entry) bool {
		if cur.id == e.id {
			found = true
			return false
		}
		pos++
		return true
	})
	return pos, found
}
