// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestPoolChainAggregatesPropagate(t *testing.T) {
	p := testPool()

	t1Tx := buildTx(nil, 1)
	t2Tx := buildTx(spending(t1Tx), 1)
	t3Tx := buildTx(spending(t2Tx), 1)

	e1 := buildEntry(t1Tx, 1000, 0, 0)
	e2 := buildEntry(t2Tx, 2000, 0, 0)
	e3 := buildEntry(t3Tx, 3000, 0, 0)

	for _, e := range []*Entry{e1, e2, e3} {
		require.NoError(t, p.AddUnchecked(e, nil), "AddUnchecked(%s)", e.ID())
	}

	gotE1, ok := p.Get(e1.ID())
	require.True(t, ok)
	require.Equal(t, uint64(3), gotE1.CountWithDescendants())
	wantSize := e1.Size() + e2.Size() + e3.Size()
	require.Equal(t, wantSize, gotE1.SizeWithDescendants())
	wantFee := e1.ModifiedFee() + e2.ModifiedFee() + e3.ModifiedFee()
	require.Equal(t, wantFee, gotE1.ModFeesWithDescendants())

	gotE3, ok := p.Get(e3.ID())
	require.True(t, ok)
	require.Equal(t, uint64(3), gotE3.CountWithAncestors())
	require.Equal(t, wantSize, gotE3.SizeWithAncestors())
	require.Equal(t, wantFee, gotE3.ModFeesWithAncestors())

	require.NoError(t, p.Check(nil))
}

func TestPoolBlockConnectionLeavesChildlessParentGap(t *testing.T) {
	p := testPool()

	parentTx := buildTx(nil, 1)
	childTx := buildTx(spending(parentTx), 1)
	parent := buildEntry(parentTx, 1000, 0, 0)
	child := buildEntry(childTx, 1000, 0, 0)

	require.NoError(t, p.AddUnchecked(parent, nil))
	require.NoError(t, p.AddUnchecked(child, nil))

	p.RemoveForBlock([]*btcutil.Tx{childTx}, 101)

	require.True(t, p.Exists(parent.ID()), "parent should remain pooled after only the child is mined")
	require.False(t, p.Exists(child.ID()), "child should be gone after being mined")

	gotParent, ok := p.Get(parent.ID())
	require.True(t, ok)
	require.Equal(t, uint64(1), gotParent.CountWithDescendants())
	require.Equal(t, parent.Size(), gotParent.SizeWithDescendants())

	require.NoError(t, p.Check(nil))
}

func TestPoolRemoveForBlockEvictsConflicts(t *testing.T) {
	p := testPool()

	var removed []RemoveReason
	p.Subscribe(func(n *Notification) {
		if n.Type == NTEntryRemoved {
			removed = append(removed, n.Data.(*EntryRemovedNotification).Reason)
		}
	})

	fundingTx := buildTx(nil, 1)
	fundingOutpoint := outpoint(fundingTx, 0)

	// Two transactions both spend the same outpoint; only one can ever
	// confirm. The other must be recognized as a conflict once the block
	// containing its rival arrives.
	confirmedTx := buildTx([]wire.OutPoint{fundingOutpoint}, 1)
	conflictingTx := buildTx([]wire.OutPoint{fundingOutpoint}, 1)

	conflicting := buildEntry(conflictingTx, 1000, 0, 0)
	require.NoError(t, p.AddUnchecked(conflicting, nil))

	p.RemoveForBlock([]*btcutil.Tx{confirmedTx}, 200)

	require.False(t, p.Exists(conflicting.ID()), "conflicting entry should have been evicted")

	require.Contains(t, removed, RemoveConflict)
}

func TestPoolPrioritisePropagatesThroughAggregates(t *testing.T) {
	p := testPool()

	parentTx := buildTx(nil, 1)
	childTx := buildTx(spending(parentTx), 1)
	parent := buildEntry(parentTx, 1000, 0, 0)
	child := buildEntry(childTx, 1000, 0, 0)

	require.NoError(t, p.AddUnchecked(parent, nil))
	require.NoError(t, p.AddUnchecked(child, nil))

	beforeParentDesc, ok := p.Get(parent.ID())
	require.True(t, ok)
	descFeeBefore := beforeParentDesc.ModFeesWithDescendants()
	beforeChildAnc, ok := p.Get(child.ID())
	require.True(t, ok)
	ancFeeBefore := beforeChildAnc.ModFeesWithAncestors()

	p.Prioritise(parent.ID(), 5000)

	afterParent, ok := p.Get(parent.ID())
	require.True(t, ok)
	require.Equal(t, parent.Fee()+5000, afterParent.ModifiedFee())
	require.Equal(t, descFeeBefore+5000, afterParent.ModFeesWithDescendants())

	afterChild, ok := p.Get(child.ID())
	require.True(t, ok)
	require.Equal(t, ancFeeBefore+5000, afterChild.ModFeesWithAncestors())

	require.NoError(t, p.Check(nil))
}

func TestPoolPrioritiseDescendantPropagatesToAncestorDescendantAggregates(t *testing.T) {
	p := testPool()

	parentTx := buildTx(nil, 1)
	childTx := buildTx(spending(parentTx), 1)
	parent := buildEntry(parentTx, 1000, 0, 0)
	child := buildEntry(childTx, 1000, 0, 0)

	require.NoError(t, p.AddUnchecked(parent, nil))
	require.NoError(t, p.AddUnchecked(child, nil))

	beforeParent, ok := p.Get(parent.ID())
	require.True(t, ok)
	descFeeBefore := beforeParent.ModFeesWithDescendants()

	// Prioritising the descendant must still bump the ancestor's
	// descendant-fee aggregate, not just the descendant's own ancestor
	// aggregate.
	p.Prioritise(child.ID(), 1000)

	afterParent, ok := p.Get(parent.ID())
	require.True(t, ok)
	require.Equal(t, descFeeBefore+1000, afterParent.ModFeesWithDescendants())

	require.NoError(t, p.Check(nil))
}

func TestPoolTrimToSizeEvictsLowestPackageScoreFirst(t *testing.T) {
	p := testPool()

	// A large, low-fee parent/child chain: poor feerate, big footprint.
	chainParentTx := buildTx(nil, 1)
	chainChildTx := buildTx(spending(chainParentTx), 1)
	chainParent := buildEntry(chainParentTx, 100, 0, 0)
	chainChild := buildEntry(chainChildTx, 100, 0, 0)

	// An unrelated, high-fee single transaction.
	richTx := buildTx(nil, 1)
	rich := buildEntry(richTx, 1000000, 0, 0)

	for _, e := range []*Entry{chainParent, chainChild, rich} {
		require.NoError(t, p.AddUnchecked(e, nil))
	}

	// A limit below the pool's current usage but big enough to survive
	// losing only the low-fee chain.
	usage := p.DynamicMemoryUsage()
	chainUsage := chainParent.DynamicMemoryUsage() + chainChild.DynamicMemoryUsage()
	limit := usage - chainUsage

	p.TrimToSize(limit, false)

	require.False(t, p.Exists(chainParent.ID()), "the low-feerate chain should have been evicted first")
	require.False(t, p.Exists(chainChild.ID()), "the low-feerate chain should have been evicted first")
	require.True(t, p.Exists(rich.ID()), "the high-fee independent transaction should have survived")
}

func TestPoolReorgReplayPropagatesDescendantAggregates(t *testing.T) {
	p := testPool()

	t1Tx := buildTx(nil, 1)
	t2Tx := buildTx(spending(t1Tx), 1)
	t1 := buildEntry(t1Tx, 1000, 0, 0)
	t2 := buildEntry(t2Tx, 1000, 0, 0)

	// Re-admission during replay intentionally bypasses link-table
	// wiring until UpdateTransactionsFromBlock reconciles it.
	p.ReadmitForReorg(t1)
	p.ReadmitForReorg(t2)

	mid, ok := p.Get(t1.ID())
	require.True(t, ok)
	require.Equal(t, uint64(1), mid.CountWithDescendants(), "before replay, link table is not yet reconciled")

	p.UpdateTransactionsFromBlock([]ID{t1.ID(), t2.ID()})

	after, ok := p.Get(t1.ID())
	require.True(t, ok)
	require.Equal(t, uint64(2), after.CountWithDescendants())
	require.Equal(t, t1.Size()+t2.Size(), after.SizeWithDescendants())

	afterT2, ok := p.Get(t2.ID())
	require.True(t, ok)
	require.Equal(t, uint64(2), afterT2.CountWithAncestors())
	require.Equal(t, t1.Size()+t2.Size(), afterT2.SizeWithAncestors())
	require.Equal(t, t1.ModifiedFee()+t2.ModifiedFee(), afterT2.ModFeesWithAncestors())

	require.NoError(t, p.Check(nil))
}

func TestPoolExpireRemovesOldEntries(t *testing.T) {
	p := testPool()

	oldTx := buildTx(nil, 1)
	freshTx := buildTx(nil, 1)
	old := buildEntry(oldTx, 1000, 0, 100)
	fresh := buildEntry(freshTx, 1000, 0, 500)

	require.NoError(t, p.AddUnchecked(old, nil))
	require.NoError(t, p.AddUnchecked(fresh, nil))

	removed := p.Expire(300)
	require.Equal(t, 1, removed)
	require.False(t, p.Exists(old.ID()), "old entry should have expired")
	require.True(t, p.Exists(fresh.ID()), "fresh entry should still be pooled")
}
