// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ID uniquely identifies a transaction held by the pool. It is the
// transaction's (non-witness) hash.
type ID = chainhash.Hash

// BlockRef identifies a single block in the best-known chain by height and
// hash. It is the unit LockPoints anchors its validity to.
type BlockRef struct {
	Height int32
	Hash   chainhash.Hash
}

// LockPoints caches the height and median-time-past sufficient to satisfy an
// entry's relative-locktime (BIP68) constraints, along with the highest
// block height among the entry's inputs. As long as the current chain still
// descends from MaxInputBlock, the cached Height/Time remain valid across a
// reorg; otherwise they must be recomputed by the caller.
type LockPoints struct {
	Height       int32
	Time         int64
	MaxInputBlock BlockRef
}

// Entry is the pool's per-transaction record: an immutable identity plus the
// mutable ancestor/descendant aggregates component D maintains. An Entry is
// created once by admission and is only ever mutated through the four
// exported Apply*/Update* methods below, all of which the pool calls while
// holding its lock.
type Entry struct {
	tx            *btcutil.Tx
	id            ID
	witnessID     chainhash.Hash
	fee           btcutil.Amount
	weight        int64
	usageSize     int64
	time          int64
	height        int32
	spendsCoinbase bool
	sigOpCost     int64

	feeDelta   btcutil.Amount
	lockPoints LockPoints

	// Descendant aggregates, include the entry itself.
	countDesc   uint64
	sizeDesc    int64
	modFeesDesc btcutil.Amount

	// Ancestor aggregates, include the entry itself.
	countAnc   uint64
	sizeAnc    int64
	modFeesAnc btcutil.Amount
	sigOpsAnc  int64

	// witnessIdx is this entry's position in the pool's witness-hash
	// vector, maintained by the pool for O(1) removal.
	witnessIdx int
}

// NewEntry builds an Entry from a finished, already-validated transaction
// and the admission-time facts about it. Initial descendant aggregates are
// (1, size, modifiedFee); initial ancestor aggregates are
// (1, size, modifiedFee, sigOpCost), matching spec.md §4.A.
func NewEntry(tx *btcutil.Tx, fee btcutil.Amount, weight int64, entryTime int64,
	height int32, spendsCoinbase bool, sigOpCost int64, lp LockPoints) *Entry {

	size := VirtualSize(weight)
	e := &Entry{
		tx:             tx,
		id:             *tx.Hash(),
		witnessID:      *tx.WitnessHash(),
		fee:            fee,
		weight:         weight,
		time:           entryTime,
		height:         height,
		spendsCoinbase: spendsCoinbase,
		sigOpCost:      sigOpCost,
		feeDelta:       0,
		lockPoints:     lp,

		countDesc:   1,
		sizeDesc:    size,
		modFeesDesc: fee,

		countAnc:   1,
		sizeAnc:    size,
		modFeesAnc: fee,
		sigOpsAnc:  sigOpCost,
	}
	e.usageSize = int64(dynamicMemUsage(e))
	return e
}

// VirtualSize returns the witness-discounted size (in vbytes) for a
// transaction of the given weight, per BIP141.
func VirtualSize(weight int64) int64 {
	const witnessScaleFactor = 4
	return (weight + witnessScaleFactor - 1) / witnessScaleFactor
}

// Tx returns the entry's transaction handle.
func (e *Entry) Tx() *btcutil.Tx { return e.tx }

// ID returns the entry's identity (non-witness hash).
func (e *Entry) ID() ID { return e.id }

// WitnessID returns the entry's witness hash.
func (e *Entry) WitnessID() chainhash.Hash { return e.witnessID }

// Fee returns the entry's absolute, un-prioritised fee.
func (e *Entry) Fee() btcutil.Amount { return e.fee }

// ModifiedFee returns Fee()+feeDelta, the value used throughout sorting and
// aggregate maintenance.
func (e *Entry) ModifiedFee() btcutil.Amount { return e.fee + e.feeDelta }

// Size returns the entry's virtual size in bytes.
func (e *Entry) Size() int64 { return VirtualSize(e.weight) }

// Weight returns the entry's transaction weight.
func (e *Entry) Weight() int64 { return e.weight }

// Time returns the entry's admission wall-clock timestamp, in Unix seconds.
func (e *Entry) Time() int64 { return e.time }

// Height returns the chain height at admission.
func (e *Entry) Height() int32 { return e.height }

// SpendsCoinbase reports whether any input of the entry spends a coinbase
// output.
func (e *Entry) SpendsCoinbase() bool { return e.spendsCoinbase }

// SigOpCost returns the entry's total signature-operation cost.
func (e *Entry) SigOpCost() int64 { return e.sigOpCost }

// LockPoints returns the entry's cached lock points.
func (e *Entry) LockPoints() LockPoints { return e.lockPoints }

// DynamicMemoryUsage returns the entry's approximate heap footprint, cached
// at construction time.
func (e *Entry) DynamicMemoryUsage() int64 { return e.usageSize }

// CountWithDescendants returns the number of in-pool descendants, including
// the entry itself.
func (e *Entry) CountWithDescendants() uint64 { return e.countDesc }

// SizeWithDescendants returns the summed virtual size of the entry and its
// in-pool descendants.
func (e *Entry) SizeWithDescendants() int64 { return e.sizeDesc }

// ModFeesWithDescendants returns the summed modified fee of the entry and
// its in-pool descendants.
func (e *Entry) ModFeesWithDescendants() btcutil.Amount { return e.modFeesDesc }

// CountWithAncestors returns the number of in-pool ancestors, including the
// entry itself.
func (e *Entry) CountWithAncestors() uint64 { return e.countAnc }

// SizeWithAncestors returns the summed virtual size of the entry and its
// in-pool ancestors.
func (e *Entry) SizeWithAncestors() int64 { return e.sizeAnc }

// ModFeesWithAncestors returns the summed modified fee of the entry and its
// in-pool ancestors.
func (e *Entry) ModFeesWithAncestors() btcutil.Amount { return e.modFeesAnc }

// SigOpCostWithAncestors returns the summed signature-operation cost of the
// entry and its in-pool ancestors.
func (e *Entry) SigOpCostWithAncestors() int64 { return e.sigOpsAnc }

// WitnessIndex returns the entry's current slot in the pool's witness-hash
// vector.
func (e *Entry) WitnessIndex() int { return e.witnessIdx }

// SetWitnessIndex records the entry's slot in the pool's witness-hash
// vector. Only the pool calls this, after an insert or a swap-pop removal.
func (e *Entry) SetWitnessIndex(idx int) { e.witnessIdx = idx }

// ApplyDescendantDelta adjusts the entry's descendant aggregates. Called by
// the pool's aggregate-maintenance protocol (component D) for every
// ancestor of a transaction being added or removed.
func (e *Entry) ApplyDescendantDelta(sizeDelta int64, feeDelta btcutil.Amount, countDelta int64) {
	e.sizeDesc += sizeDelta
	e.modFeesDesc += feeDelta
	e.countDesc = uint64(int64(e.countDesc) + countDelta)
}

// ApplyAncestorDelta adjusts the entry's ancestor aggregates. Called by the
// pool's aggregate-maintenance protocol for every descendant of a
// transaction being removed, or to seed a newly admitted entry.
func (e *Entry) ApplyAncestorDelta(sizeDelta int64, feeDelta btcutil.Amount, countDelta, sigOpDelta int64) {
	e.sizeAnc += sizeDelta
	e.modFeesAnc += feeDelta
	e.countAnc = uint64(int64(e.countAnc) + countDelta)
	e.sigOpsAnc += sigOpDelta
}

// UpdateFeeDelta changes the entry's prioritisation bias. As specified by
// spec.md §4.A, this also shifts ModFeesWithDescendants by the change in
// delta, since that aggregate always includes the entry's own modified fee.
func (e *Entry) UpdateFeeDelta(newDelta btcutil.Amount) {
	change := newDelta - e.feeDelta
	e.feeDelta = newDelta
	e.modFeesDesc += change
}

// UpdateLockPoints replaces the entry's cached lock points. This is a
// key-change-free mutation: none of the four multi-index orderings sort on
// lock points, so callers never need to reindex after calling this.
func (e *Entry) UpdateLockPoints(lp LockPoints) {
	e.lockPoints = lp
}
