// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/lru"
)

// descendantCacheLimit bounds how many in-flight BFS results
// updateTransactionsFromBlock keeps memoized while replaying a reorg. The
// cache only needs to survive a single replay pass, so a modest limit is
// plenty; it exists to cap memory on a pathologically large disconnected
// block (UpdateTransactionsFromBlock prunes after every id), not to persist
// across calls.
const descendantCacheLimit = 4096

// descendantCache memoizes per-id descendant sets computed during reorg
// replay. It pairs an lru.Cache (bounding which ids are considered "hot")
// with a plain map holding the actual sets, since lru.Cache itself only
// tracks membership, not arbitrary values. A set can transiently outlive its
// lru entry until the next prune call; that's acceptable here because the
// cache's whole lifetime is a single replay pass.
type descendantCache struct {
	seen lru.Cache
	sets map[ID]map[ID]*Entry
}

func newDescendantCache() *descendantCache {
	return &descendantCache{
		seen: lru.NewCache(descendantCacheLimit),
		sets: make(map[ID]map[ID]*Entry),
	}
}

func (c *descendantCache) get(id ID) (map[ID]*Entry, bool) {
	if !c.seen.Contains(id) {
		return nil, false
	}
	s, ok := c.sets[id]
	return s, ok
}

func (c *descendantCache) put(id ID, set map[ID]*Entry) {
	c.seen.Add(id)
	c.sets[id] = set
}

// prune drops any cached set whose id has fallen out of the lru's hot set.
func (c *descendantCache) prune() {
	for id := range c.sets {
		if !c.seen.Contains(id) {
			delete(c.sets, id)
		}
	}
}

// disconnectedEntry is one staged transaction in the disconnected-block
// buffer: the raw transaction plus the sequence number that orders it
// relative to its buffer-mates.
type disconnectedEntry struct {
	tx  *btcutil.Tx
	seq uint64
}

// disconnectedBlockTransactions is component I: the staging area a reorg
// drains disconnected-block transactions into, so they can be replayed back
// into the pool (oldest block first, and within a block, in the order they
// appeared) once the new tip is known. Indexed both by id (uniqueness) and
// by insertion sequence (replay order), mirroring the two-index shape spec.md
// §4.I describes for DisconnectedBlockTransactions.
type disconnectedBlockTransactions struct {
	byID    map[ID]*disconnectedEntry
	bySeq   map[uint64]*disconnectedEntry
	nextSeq uint64
	usage   int64
}

func newDisconnectedBlockTransactions() *disconnectedBlockTransactions {
	return &disconnectedBlockTransactions{
		byID:  make(map[ID]*disconnectedEntry),
		bySeq: make(map[uint64]*disconnectedEntry),
	}
}

// Add stages tx for later replay, unless its id is already present.
func (d *disconnectedBlockTransactions) Add(tx *btcutil.Tx) {
	id := *tx.Hash()
	if _, ok := d.byID[id]; ok {
		return
	}
	e := &disconnectedEntry{tx: tx, seq: d.nextSeq}
	d.nextSeq++
	d.byID[id] = e
	d.bySeq[e.seq] = e
	d.usage += int64(dynamicMemUsage(tx))
}

// RemoveForBlock drops every transaction in vtx from the buffer: called once
// the new best chain has reconfirmed them, so they are not replayed into the
// pool.
func (d *disconnectedBlockTransactions) RemoveForBlock(vtx []*btcutil.Tx) {
	for _, tx := range vtx {
		d.removeByID(*tx.Hash())
	}
}

func (d *disconnectedBlockTransactions) removeByID(id ID) {
	e, ok := d.byID[id]
	if !ok {
		return
	}
	delete(d.byID, id)
	delete(d.bySeq, e.seq)
	d.usage -= int64(dynamicMemUsage(e.tx))
}

// Clear empties the buffer. Called once a reorg's replay has fully drained
// it.
func (d *disconnectedBlockTransactions) Clear() {
	d.byID = make(map[ID]*disconnectedEntry)
	d.bySeq = make(map[uint64]*disconnectedEntry)
	d.usage = 0
}

// Empty reports whether the buffer currently holds no staged transactions. A
// node normally asserts this at shutdown: anything left over means a reorg's
// replay never completed.
func (d *disconnectedBlockTransactions) Empty() bool { return len(d.byID) == 0 }

// Len returns the number of staged transactions.
func (d *disconnectedBlockTransactions) Len() int { return len(d.byID) }

// DynamicMemoryUsage returns the buffer's approximate heap footprint.
func (d *disconnectedBlockTransactions) DynamicMemoryUsage() int64 { return d.usage }

// InOrder returns the buffer's staged transactions ordered oldest-disconnected
// first, the order a reorg must replay them in so a child is never re-admitted
// before its parent.
func (d *disconnectedBlockTransactions) InOrder() []*btcutil.Tx {
	out := make([]*btcutil.Tx, 0, len(d.bySeq))
	for seq := uint64(0); seq < d.nextSeq; seq++ {
		if e, ok := d.bySeq[seq]; ok {
			out = append(out, e.tx)
		}
	}
	return out
}
