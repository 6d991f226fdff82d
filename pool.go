// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Pool is the transaction memory pool: unconfirmed transactions valid
// against the current best chain, candidates for the next block, along with
// the ancestor/descendant bookkeeping (components A-I) needed to admit,
// evict, and query them in sub-linear time. A Pool is safe for concurrent
// use; every exported method acquires mtx internally.
type Pool struct {
	mtx sync.RWMutex
	cfg Config

	index        *multiIndex
	links        *linkTable
	spenders     map[wire.OutPoint]*Entry
	deltas       *priorityDeltas
	minFee       *minFeeTracker
	disconnected *disconnectedBlockTransactions

	// witnessVec is the random-order witness-hash vector. Each live entry
	// caches its own slot so removal is a swap-with-last, never a scan.
	witnessVec []*Entry

	totalSize           int64
	cachedInnerUsage    int64
	transactionsUpdated uint64

	// checkFrequency, if nonzero, is compared against a fresh random
	// uint32 on every admission; a hit runs the full invariant check and
	// panics on violation. Zero (the default) disables this entirely.
	checkFrequency uint32

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback
}

// NewPool constructs an empty Pool from cfg.
func NewPool(cfg Config) *Pool {
	return &Pool{
		cfg:          cfg,
		index:        newMultiIndex(),
		links:        newLinkTable(),
		spenders:     make(map[wire.OutPoint]*Entry),
		deltas:       newPriorityDeltas(),
		minFee:       newMinFeeTracker(cfg.IncrementalRelayFee),
		disconnected: newDisconnectedBlockTransactions(),
	}
}

// SetCheckFrequency sets the probability (out of 2^32) that each admission
// triggers a full invariant check.
func (p *Pool) SetCheckFrequency(freq uint32) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.checkFrequency = freq
}

// Close asserts that the disconnected-block buffer has fully drained. A
// non-empty buffer here means some reorg's replay never finished — a logic
// bug, not a recoverable runtime condition.
func (p *Pool) Close() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if !p.disconnected.Empty() {
		panic("txpool: disconnected block buffer non-empty at shutdown")
	}
}

func txInputs(tx *btcutil.Tx) []wire.OutPoint {
	ins := tx.MsgTx().TxIn
	out := make([]wire.OutPoint, len(ins))
	for i, in := range ins {
		out[i] = in.PreviousOutPoint
	}
	return out
}

// calculateAncestors computes the full in-pool ancestor set of a prospective
// or already-admitted transaction identified by id, enforcing limits along
// the way (component D's calculate_ancestors). When searchParents is true,
// ins gives the candidate's own inputs and the parent set is seeded by
// looking each one up in the id index (id is not yet in the pool); when
// false, the parent set is seeded by reading the link table for an entry
// already in the pool, and ins/size are unused.
func (p *Pool) calculateAncestors(id ID, ins []wire.OutPoint, size int64, limits Limits, searchParents bool) (map[ID]*Entry, error) {
	parents := make(map[ID]*Entry)
	if searchParents {
		for _, op := range ins {
			if e, ok := p.index.get(op.Hash); ok {
				parents[e.ID()] = e
			}
		}
	} else if e, ok := p.index.get(id); ok {
		for _, parent := range p.links.parents(e) {
			parents[parent.ID()] = parent
		}
	}
	if limits.MaxAncestorCount > 0 && int64(len(parents)) > limits.MaxAncestorCount {
		return nil, ruleError(ErrTooManyAncestors, "too many unconfirmed parents")
	}

	ancestors := make(map[ID]*Entry, len(parents))
	worklist := make([]*Entry, 0, len(parents))
	for _, parent := range parents {
		worklist = append(worklist, parent)
	}

	var countAnc, sizeAnc int64
	for len(worklist) > 0 {
		P := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if _, seen := ancestors[P.ID()]; seen {
			continue
		}
		ancestors[P.ID()] = P

		countAnc++
		sizeAnc += P.Size()

		// +1 counts the candidate itself, as MaxAncestorCount does.
		if limits.MaxAncestorCount > 0 && countAnc+1 > limits.MaxAncestorCount {
			return nil, ruleError(ErrTooManyAncestors, "too many unconfirmed ancestors")
		}
		if limits.MaxDescendantCount > 0 && int64(P.CountWithDescendants())+1 > limits.MaxDescendantCount {
			return nil, ruleError(ErrTooManyDescendants, "too many descendants for in-pool ancestor")
		}
		if limits.MaxDescendantSize > 0 && P.SizeWithDescendants()+size > limits.MaxDescendantSize {
			return nil, ruleError(ErrDescendantSizeExceeded, "ancestor's descendant size limit exceeded")
		}
		if limits.MaxAncestorSize > 0 && sizeAnc > limits.MaxAncestorSize {
			return nil, ruleError(ErrAncestorSizeExceeded, "too much unconfirmed ancestor size")
		}

		for _, grandparent := range p.links.parents(P) {
			if _, seen := ancestors[grandparent.ID()]; !seen {
				worklist = append(worklist, grandparent)
			}
		}
	}

	return ancestors, nil
}

// ancestorsOf returns the full in-pool ancestor set of an already-admitted
// entry by walking the link table alone, with no limit checks. Used by
// removal paths, where the entry's presence already proves the limits were
// satisfied at some point and the only goal is finding everything that must
// be repaired.
func (p *Pool) ancestorsOf(e *Entry) map[ID]*Entry {
	acc := make(map[ID]*Entry)
	stack := []*Entry{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, parent := range p.links.parents(cur) {
			if _, ok := acc[parent.ID()]; ok {
				continue
			}
			acc[parent.ID()] = parent
			stack = append(stack, parent)
		}
	}
	return acc
}

// CalculateMempoolAncestors returns id's full in-pool ancestor set, subject
// to the pool's configured limits.
func (p *Pool) CalculateMempoolAncestors(id ID) (map[ID]*Entry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	e, ok := p.index.get(id)
	if !ok {
		return nil, fmt.Errorf("txpool: %s not found", id)
	}
	return p.calculateAncestors(id, nil, e.Size(), p.cfg.Limits, false)
}

// CalculateDescendants returns id's full in-pool descendant set, including
// id itself.
func (p *Pool) CalculateDescendants(id ID) (map[ID]*Entry, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	e, ok := p.index.get(id)
	if !ok {
		return nil, false
	}
	acc := make(map[ID]*Entry)
	p.links.calculateDescendants(e, acc)
	return acc, true
}

// AddUnchecked admits e into the pool (component E's add). If ancestors is
// nil, the pool computes e's ancestor set itself (and may reject e with a
// RuleError); otherwise ancestors is trusted as already-validated and used
// directly. e must not already be pooled.
func (p *Pool) AddUnchecked(e *Entry, ancestors map[ID]*Entry) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.addUnchecked(e, ancestors)
}

func (p *Pool) addUnchecked(e *Entry, ancestors map[ID]*Entry) error {
	if ancestors == nil {
		a, err := p.calculateAncestors(e.ID(), txInputs(e.Tx()), e.Size(), p.cfg.Limits, true)
		if err != nil {
			return err
		}
		ancestors = a
	}

	if delta := p.deltas.get(e.ID()); delta != 0 {
		e.UpdateFeeDelta(delta)
		// The ancestor aggregate includes the entry's own modified fee
		// too; e is not indexed yet, so it is adjusted directly.
		e.ApplyAncestorDelta(0, delta, 0, 0)
	}

	p.index.insert(e)

	for _, in := range e.Tx().MsgTx().TxIn {
		p.spenders[in.PreviousOutPoint] = e
		if parent, ok := p.index.get(in.PreviousOutPoint.Hash); ok {
			p.links.link(parent, e)
		}
	}

	for _, a := range ancestors {
		p.index.modifyDescendantAggregates(a, e.Size(), e.ModifiedFee(), 1)
	}

	var sizeAnc, countAnc, sigopsAnc int64
	var feeAnc btcutil.Amount
	for _, a := range ancestors {
		sizeAnc += a.Size()
		feeAnc += a.ModifiedFee()
		sigopsAnc += a.SigOpCost()
		countAnc++
	}
	p.index.modifyAncestorAggregates(e, sizeAnc, feeAnc, countAnc, sigopsAnc)

	p.totalSize += e.Size()
	p.cachedInnerUsage += e.DynamicMemoryUsage()
	p.transactionsUpdated++

	e.SetWitnessIndex(len(p.witnessVec))
	p.witnessVec = append(p.witnessVec, e)

	if p.cfg.FeeEstimator != nil {
		p.cfg.FeeEstimator.ObserveTransaction(e)
	}

	p.sendNotification(NTEntryAdded, &EntryAddedNotification{Entry: e})

	if p.checkFrequency > 0 && rand.Uint32() < p.checkFrequency {
		if err := p.checkLocked(p.cfg.CoinView); err != nil {
			panic(fmt.Sprintf("txpool: invariant violation: %v", err))
		}
	}

	return nil
}

// removeUnchecked physically removes e, assuming its aggregates have already
// been repaired by updateForRemoveFromMempool. Component E's remove_unchecked.
func (p *Pool) removeUnchecked(e *Entry, reason RemoveReason) {
	p.index.erase(e)

	for _, in := range e.Tx().MsgTx().TxIn {
		if cur, ok := p.spenders[in.PreviousOutPoint]; ok && cur.ID() == e.ID() {
			delete(p.spenders, in.PreviousOutPoint)
		}
	}

	idx := e.WitnessIndex()
	last := len(p.witnessVec) - 1
	if idx != last {
		moved := p.witnessVec[last]
		p.witnessVec[idx] = moved
		moved.SetWitnessIndex(idx)
	}
	p.witnessVec = p.witnessVec[:last]

	p.links.drop(e)

	p.totalSize -= e.Size()
	p.cachedInnerUsage -= e.DynamicMemoryUsage()
	p.transactionsUpdated++

	if p.cfg.FeeEstimator != nil && reason != RemoveBlock {
		p.cfg.FeeEstimator.ObserveRemoved(e, 0)
	}

	p.sendNotification(NTEntryRemoved, &EntryRemovedNotification{Entry: e, Reason: reason})
}

// updateForRemoveFromMempool repairs aggregates before a set of entries is
// physically destroyed (component D). When updateDescendants is true (block
// connection), every confirmed entry's in-pool descendants that are not
// themselves being removed must shed that entry's contribution to their
// ancestor aggregates. In every case, each removed entry's contribution is
// subtracted from the descendant aggregates of its ancestors that survive.
func (p *Pool) updateForRemoveFromMempool(set map[ID]*Entry, updateDescendants bool) {
	if updateDescendants {
		for _, e := range set {
			descendants := make(map[ID]*Entry)
			p.links.calculateDescendants(e, descendants)
			for did, d := range descendants {
				if did == e.ID() {
					continue
				}
				if _, inSet := set[did]; inSet {
					continue
				}
				p.index.modifyAncestorAggregates(d, -e.Size(), -e.ModifiedFee(), -1, -e.SigOpCost())
			}
		}
	}

	for _, e := range set {
		for aid, a := range p.ancestorsOf(e) {
			if _, inSet := set[aid]; inSet {
				continue
			}
			p.index.modifyDescendantAggregates(a, -e.Size(), -e.ModifiedFee(), -1)
		}

		for pid, parent := range p.links.parents(e) {
			if _, inSet := set[pid]; !inSet {
				p.links.sever(parent, e)
			}
		}
		for cid, child := range p.links.children(e) {
			if _, inSet := set[cid]; !inSet {
				p.links.sever(e, child)
			}
		}
	}
}

// RemoveRecursive removes tx and everything that descends from it, with the
// given removal reason.
func (p *Pool) RemoveRecursive(tx *btcutil.Tx, reason RemoveReason) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.removeRecursive(tx, reason)
}

func (p *Pool) removeRecursive(tx *btcutil.Tx, reason RemoveReason) {
	e, ok := p.index.get(*tx.Hash())
	if !ok {
		return
	}

	set := make(map[ID]*Entry)
	p.links.calculateDescendants(e, set)
	p.updateForRemoveFromMempool(set, false)
	for _, d := range set {
		p.removeUnchecked(d, reason)
	}
}

// removeConflicts recursively removes any pool entry that spends an output
// also spent by tx, with reason CONFLICT.
func (p *Pool) removeConflicts(tx *btcutil.Tx) {
	for _, in := range tx.MsgTx().TxIn {
		if spender, ok := p.spenders[in.PreviousOutPoint]; ok {
			p.removeRecursive(spender.Tx(), RemoveConflict)
		}
	}
}

// RemoveForBlock walks vtx in order: each transaction present in the pool is
// reported to the fee estimator as mined and removed (reason BLOCK), and then
// anything left in the pool that conflicts with it is removed (reason
// CONFLICT). Finally it tells the rolling-fee tracker that a block has
// connected.
func (p *Pool) RemoveForBlock(vtx []*btcutil.Tx, height int32) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, tx := range vtx {
		if e, ok := p.index.get(*tx.Hash()); ok {
			set := map[ID]*Entry{e.ID(): e}
			p.updateForRemoveFromMempool(set, true)
			if p.cfg.FeeEstimator != nil {
				p.cfg.FeeEstimator.ObserveMined(e, height)
			}
			p.removeUnchecked(e, RemoveBlock)
		}
		p.removeConflicts(tx)
	}

	p.minFee.blockConnected()
}

// RemoveForReorg drops every entry that fails final-ness re-validation
// against the new tip: coinbase-spending entries whose cached input height
// hasn't reached maturity, and entries whose cached lock points are no
// longer anchored to an ancestor of the new tip (as judged by isAncestorOfTip)
// and fail recheckLockPoints. Entries that pass the lock-point check simply
// get their lock points refreshed in place.
func (p *Pool) RemoveForReorg(tipHeight, coinbaseMaturity int32, isAncestorOfTip func(BlockRef) bool, recheckLockPoints func(*Entry) (LockPoints, bool)) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var stale []*Entry
	p.index.each(func(e *Entry) {
		lp := e.LockPoints()

		if e.SpendsCoinbase() && lp.MaxInputBlock.Height+coinbaseMaturity > tipHeight+1 {
			stale = append(stale, e)
			return
		}

		if isAncestorOfTip(lp.MaxInputBlock) {
			return
		}
		newLP, ok := recheckLockPoints(e)
		if !ok {
			stale = append(stale, e)
			return
		}
		e.UpdateLockPoints(newLP)
	})

	for _, e := range stale {
		if _, ok := p.index.get(e.ID()); ok {
			p.removeRecursive(e.Tx(), RemoveReorg)
		}
	}
}

// Expire removes every entry admitted before cutoff (a Unix timestamp),
// along with their descendants, with reason EXPIRY. Returns the number of
// entries removed.
func (p *Pool) Expire(cutoff int64) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var stale []*Entry
	p.index.ascendingByEntryTime(func(e *Entry) bool {
		if e.Time() >= cutoff {
			return false
		}
		stale = append(stale, e)
		return true
	})

	removed := make(map[ID]*Entry)
	for _, e := range stale {
		if _, ok := removed[e.ID()]; ok {
			continue
		}
		if _, ok := p.index.get(e.ID()); !ok {
			continue
		}

		set := make(map[ID]*Entry)
		p.links.calculateDescendants(e, set)
		p.updateForRemoveFromMempool(set, false)
		for _, d := range set {
			removed[d.ID()] = d
			p.removeUnchecked(d, RemoveExpiry)
		}
	}
	return len(removed)
}

// TrimToSize evicts lowest-descendant-score packages until the pool's
// dynamic memory usage no longer exceeds limit, bumping the rolling minimum
// feerate for each package evicted. If collectNoSpends is true, it also
// returns the inputs of evicted entries whose funding transaction is not in
// the pool outside the evicted package at the time that package is evicted —
// useful for a wallet or relay layer to drop now-stale watches. A funding
// transaction evicted by a later package does not add its children's inputs
// retroactively.
func (p *Pool) TrimToSize(limit int64, collectNoSpends bool) []wire.OutPoint {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var noSpends []wire.OutPoint

	for p.cachedInnerUsage > limit && p.index.size() > 0 {
		var worst *Entry
		p.index.ascendingByDescendantScore(func(e *Entry) bool {
			worst = e
			return false
		})
		if worst == nil {
			break
		}

		pkg := make(map[ID]*Entry)
		p.links.calculateDescendants(worst, pkg)

		var pkgSize int64
		var pkgFee btcutil.Amount
		for _, e := range pkg {
			pkgSize += e.Size()
			pkgFee += e.ModifiedFee()
		}
		var rate btcutil.Amount
		if pkgSize > 0 {
			rate = btcutil.Amount(float64(pkgFee) / float64(pkgSize) * 1000)
		}
		p.minFee.trackPackageRemoved(p.cfg.clockOrDefault().Now(), rate)

		if collectNoSpends {
			for _, e := range pkg {
				for _, in := range e.Tx().MsgTx().TxIn {
					stillInPool := false
					if _, ok := p.index.get(in.PreviousOutPoint.Hash); ok {
						if _, inPkg := pkg[in.PreviousOutPoint.Hash]; !inPkg {
							stillInPool = true
						}
					}
					if !stillInPool {
						noSpends = append(noSpends, in.PreviousOutPoint)
					}
				}
			}
		}

		p.updateForRemoveFromMempool(pkg, false)
		for _, e := range pkg {
			p.removeUnchecked(e, RemoveSizeLimit)
		}
	}

	return noSpends
}

// Prioritise adds delta to id's persistent fee bias. If id names a pooled
// entry, the bias is applied immediately: the entry's own modified fee
// shifts, the ancestor aggregates of the entry and every in-pool descendant
// shift by delta to match, and the descendant aggregates of every in-pool
// ancestor shift by delta too.
func (p *Pool) Prioritise(id ID, delta btcutil.Amount) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	newTotal := p.deltas.get(id) + delta
	p.deltas.set(id, newTotal)

	e, ok := p.index.get(id)
	if !ok {
		return
	}

	p.index.modifyFeeDelta(e, newTotal)

	affected := map[ID]*Entry{e.ID(): e}
	p.links.calculateDescendants(e, affected)
	for _, d := range affected {
		p.index.modifyAncestorAggregates(d, 0, delta, 0, 0)
	}

	for _, a := range p.ancestorsOf(e) {
		p.index.modifyDescendantAggregates(a, 0, delta, 0)
	}
}

// ApplyDelta adds id's stored prioritisation bias onto *fee.
func (p *Pool) ApplyDelta(id ID, fee *btcutil.Amount) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	p.deltas.applyDelta(id, fee)
}

// ClearPrioritisation forgets id's stored fee bias.
func (p *Pool) ClearPrioritisation(id ID) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.deltas.clear(id)
}

// ReadmitForReorg re-admits e during reorg replay without establishing its
// link-table parent/child edges: per spec.md's staged-update model, the link
// table is deliberately left inconsistent for entries admitted this way
// until UpdateTransactionsFromBlock reconciles it. Nothing should walk B for
// e between this call and that one.
func (p *Pool) ReadmitForReorg(e *Entry) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.index.insert(e)
	for _, in := range e.Tx().MsgTx().TxIn {
		p.spenders[in.PreviousOutPoint] = e
	}

	p.totalSize += e.Size()
	p.cachedInnerUsage += e.DynamicMemoryUsage()
	p.transactionsUpdated++

	e.SetWitnessIndex(len(p.witnessVec))
	p.witnessVec = append(p.witnessVec, e)

	if p.cfg.FeeEstimator != nil {
		p.cfg.FeeEstimator.ObserveTransaction(e)
	}
}

// UpdateTransactionsFromBlock replays ancestor- and descendant-aggregate
// propagation for a set of ids re-admitted via ReadmitForReorg. It first
// links each of those ids to its in-pool parents, found by looking up each
// of its inputs' transaction hashes in the id index (ReadmitForReorg left
// these edges out), then, for every id, seeds its ancestor aggregates from
// its now-reconciled in-pool ancestor set (mirroring Core's
// UpdateEntryForAncestors), and finally, in reverse of the order given,
// walks descendants in B for each id, applying their size/fee onto that
// id's descendant aggregates.
func (p *Pool) UpdateTransactionsFromBlock(readmitted []ID) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, id := range readmitted {
		e, ok := p.index.get(id)
		if !ok {
			continue
		}
		for _, in := range e.Tx().MsgTx().TxIn {
			if parent, ok := p.index.get(in.PreviousOutPoint.Hash); ok {
				p.links.link(parent, e)
			}
		}
	}

	for _, id := range readmitted {
		e, ok := p.index.get(id)
		if !ok {
			continue
		}
		p.updateForAncestors(e)
	}

	cache := newDescendantCache()
	for i := len(readmitted) - 1; i >= 0; i-- {
		e, ok := p.index.get(readmitted[i])
		if !ok {
			continue
		}
		p.updateForDescendants(e, cache)
		cache.prune()
	}
}

// updateForAncestors seeds e's ancestor aggregates from its full in-pool
// ancestor set. ReadmitForReorg seeds a freshly re-admitted entry's ancestor
// aggregates to just itself, so this is purely additive over e's ancestors'
// own raw size/fee/sigop values — safe regardless of call order, since it
// never reads another entry's aggregate fields.
func (p *Pool) updateForAncestors(e *Entry) {
	for _, a := range p.ancestorsOf(e) {
		p.index.modifyAncestorAggregates(e, a.Size(), a.ModifiedFee(), 1, a.SigOpCost())
	}
}

// updateForDescendants applies every one of e's in-pool descendants onto e's
// own descendant aggregates. e's aggregates were seeded to just itself by
// ReadmitForReorg, so this is purely additive — safe to call once per id in
// the reverse-order loop above, since a descendant's own aggregates were
// already corrected in an earlier iteration (it sits later in readmitted
// than its ancestors) before this call reads its Size/ModifiedFee.
func (p *Pool) updateForDescendants(e *Entry, cache *descendantCache) {
	descendants, ok := cache.get(e.ID())
	if !ok {
		descendants = make(map[ID]*Entry)
		p.links.calculateDescendants(e, descendants)
		cache.put(e.ID(), descendants)
	}

	for did, d := range descendants {
		if did == e.ID() {
			continue
		}
		p.index.modifyDescendantAggregates(e, d.Size(), d.ModifiedFee(), 1)
	}
}

// AddDisconnected stages tx for reorg replay.
func (p *Pool) AddDisconnected(tx *btcutil.Tx) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.disconnected.Add(tx)
}

// RemoveDisconnectedForBlock drops every transaction in vtx from the staging
// buffer: called once the new best chain has reconfirmed them, so they are
// not replayed a second time.
func (p *Pool) RemoveDisconnectedForBlock(vtx []*btcutil.Tx) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.disconnected.RemoveForBlock(vtx)
}

// ClearDisconnected empties the staging buffer.
func (p *Pool) ClearDisconnected() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.disconnected.Clear()
}

// DisconnectedTransactions returns the staged transactions oldest-first.
func (p *Pool) DisconnectedTransactions() []*btcutil.Tx {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.disconnected.InOrder()
}

// DisconnectedEmpty reports whether the staging buffer currently holds
// nothing.
func (p *Pool) DisconnectedEmpty() bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.disconnected.Empty()
}

// Exists reports whether id names a pooled entry.
func (p *Pool) Exists(id ID) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.index.has(id)
}

// Get returns id's entry, if pooled.
func (p *Pool) Get(id ID) (*Entry, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.index.get(id)
}

// Info is an alias for Get: both answer "what do we know about id", the
// distinction in spec.md §6 being purely one of external naming convention.
func (p *Pool) Info(id ID) (*Entry, bool) { return p.Get(id) }

// InfoAll returns every pooled entry, in unspecified order.
func (p *Pool) InfoAll() []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	out := make([]*Entry, 0, p.index.size())
	p.index.each(func(e *Entry) { out = append(out, e) })
	return out
}

// Size returns the number of pooled entries.
func (p *Pool) Size() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.index.size()
}

// TotalTxSize returns the summed virtual size of every pooled entry.
func (p *Pool) TotalTxSize() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.totalSize
}

// DynamicMemoryUsage returns the pool's approximate heap footprint.
func (p *Pool) DynamicMemoryUsage() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.cachedInnerUsage
}

// TransactionsUpdated returns the monotonically increasing mutation counter
// a block-template builder polls to detect pool staleness.
func (p *Pool) TransactionsUpdated() uint64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.transactionsUpdated
}

// QueryHashes returns the id of every pooled entry, in unspecified order.
func (p *Pool) QueryHashes() []ID {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	out := make([]ID, 0, p.index.size())
	p.index.each(func(e *Entry) { out = append(out, e.ID()) })
	return out
}

// HasNoInputsOf reports whether none of tx's inputs spend a pooled entry.
func (p *Pool) HasNoInputsOf(tx *btcutil.Tx) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	for _, in := range tx.MsgTx().TxIn {
		if _, ok := p.index.get(in.PreviousOutPoint.Hash); ok {
			return false
		}
	}
	return true
}

// IsSpent reports whether some pooled entry already spends outpoint.
func (p *Pool) IsSpent(outpoint wire.OutPoint) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	_, ok := p.spenders[outpoint]
	return ok
}

// TransactionWithinChainLimit reports whether id's in-pool ancestor and
// descendant counts are both within limit. An absent id trivially satisfies
// any limit.
func (p *Pool) TransactionWithinChainLimit(id ID, limit int64) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	e, ok := p.index.get(id)
	if !ok {
		return true
	}
	return int64(e.CountWithAncestors()) <= limit && int64(e.CountWithDescendants()) <= limit
}

// GetMinFee returns the feerate (satoshis per kilobyte) a transaction must
// clear to be admitted right now, decaying the rolling minimum first if the
// pool sits under sizeLimit.
func (p *Pool) GetMinFee(sizeLimit int64) btcutil.Amount {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.minFee.getMinFee(p.cfg.clockOrDefault().Now(), p.cachedInnerUsage, sizeLimit)
}

// CompareDepthAndScore orders a and b by their position in the
// descendant-score ordering (component C), ascending. Reports false if
// either id is absent from the pool.
func (p *Pool) CompareDepthAndScore(a, b ID) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	ea, okA := p.index.get(a)
	eb, okB := p.index.get(b)
	if !okA || !okB {
		return false
	}

	posA, _ := p.index.descendantScorePosition(ea)
	posB, _ := p.index.descendantScorePosition(eb)
	return posA < posB
}

// Check re-verifies the pool's invariants against its current state: every
// entry's descendant and ancestor aggregates, that every parent lists the
// entry as a child, that the spender map names the entry for each of its
// inputs, that coinView (which may be nil, skipping this check) reports each
// of the entry's outputs it knows at MempoolHeight, and that TotalTxSize is
// the sum of entry sizes. It does not check the child-to-parent direction of
// the link table or the dynamic memory counter.
func (p *Pool) Check(coinView CoinView) error {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.checkLocked(coinView)
}

func (p *Pool) checkLocked(coinView CoinView) error {
	var sumSize int64
	var checkErr error

	p.index.each(func(e *Entry) {
		if checkErr != nil {
			return
		}

		descendants := make(map[ID]*Entry)
		p.links.calculateDescendants(e, descendants)
		var countDesc uint64
		var sizeDesc int64
		var feeDesc btcutil.Amount
		for _, d := range descendants {
			countDesc++
			sizeDesc += d.Size()
			feeDesc += d.ModifiedFee()
		}
		if e.CountWithDescendants() != countDesc ||
			e.SizeWithDescendants() != sizeDesc ||
			e.ModFeesWithDescendants() != feeDesc {
			checkErr = fmt.Errorf("txpool: entry %s: descendant aggregate mismatch", e.ID())
			return
		}

		var countAnc uint64 = 1
		sizeAnc := e.Size()
		feeAnc := e.ModifiedFee()
		sigopsAnc := e.SigOpCost()
		for _, a := range p.ancestorsOf(e) {
			countAnc++
			sizeAnc += a.Size()
			feeAnc += a.ModifiedFee()
			sigopsAnc += a.SigOpCost()
		}
		if e.CountWithAncestors() != countAnc ||
			e.SizeWithAncestors() != sizeAnc ||
			e.ModFeesWithAncestors() != feeAnc ||
			e.SigOpCostWithAncestors() != sigopsAnc {
			checkErr = fmt.Errorf("txpool: entry %s: ancestor aggregate mismatch", e.ID())
			return
		}

		for _, parent := range p.links.parents(e) {
			if !p.links.children(parent).has(e) {
				checkErr = fmt.Errorf("txpool: entry %s: link table not closed with parent %s", e.ID(), parent.ID())
				return
			}
		}

		for _, in := range e.Tx().MsgTx().TxIn {
			spender, ok := p.spenders[in.PreviousOutPoint]
			if !ok || spender.ID() != e.ID() {
				checkErr = fmt.Errorf("txpool: entry %s: spender map missing input %s", e.ID(), in.PreviousOutPoint)
				return
			}
		}

		if coinView != nil {
			for idx := range e.Tx().MsgTx().TxOut {
				outpoint := wire.OutPoint{Hash: e.ID(), Index: uint32(idx)}
				coin, ok := coinView.GetCoin(outpoint)
				if ok && coin.Height != MempoolHeight {
					checkErr = fmt.Errorf("txpool: entry %s: output %d not surfaced at MempoolHeight", e.ID(), idx)
					return
				}
			}
		}

		sumSize += e.Size()
	})
	if checkErr != nil {
		return checkErr
	}

	if sumSize != p.totalSize {
		return fmt.Errorf("txpool: total_tx_size mismatch: got %d want %d", p.totalSize, sumSize)
	}
	return nil
}
