// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
)

func TestDisconnectedBlockTransactionsAddAndOrder(t *testing.T) {
	d := newDisconnectedBlockTransactions()

	t1 := buildTx(nil, 1)
	t2 := buildTx(spending(t1), 1)
	t3 := buildTx(spending(t2), 1)

	d.Add(t1)
	d.Add(t2)
	d.Add(t3)

	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3", d.Len())
	}

	order := d.InOrder()
	if len(order) != 3 {
		t.Fatalf("InOrder returned %d transactions, want 3", len(order))
	}
	want := []*btcutil.Tx{t1, t2, t3}
	for i, tx := range want {
		if *order[i].Hash() != *tx.Hash() {
			t.Errorf("InOrder()[%d] = %s, want %s", i, order[i].Hash(), tx.Hash())
		}
	}
}

func TestDisconnectedBlockTransactionsAddIsIdempotent(t *testing.T) {
	d := newDisconnectedBlockTransactions()
	tx := buildTx(nil, 1)

	d.Add(tx)
	d.Add(tx)

	if d.Len() != 1 {
		t.Errorf("Len after adding the same tx twice = %d, want 1", d.Len())
	}
}

func TestDisconnectedBlockTransactionsRemoveForBlock(t *testing.T) {
	d := newDisconnectedBlockTransactions()

	t1 := buildTx(nil, 1)
	t2 := buildTx(nil, 1)
	d.Add(t1)
	d.Add(t2)

	d.RemoveForBlock([]*btcutil.Tx{t1})

	if d.Len() != 1 {
		t.Fatalf("Len after removing one of two = %d, want 1", d.Len())
	}
	order := d.InOrder()
	if len(order) != 1 || *order[0].Hash() != *t2.Hash() {
		t.Errorf("InOrder after removal = %v, want only t2", order)
	}
}

func TestDisconnectedBlockTransactionsClearAndEmpty(t *testing.T) {
	d := newDisconnectedBlockTransactions()
	if !d.Empty() {
		t.Fatal("a freshly constructed buffer should be Empty")
	}

	d.Add(buildTx(nil, 1))
	if d.Empty() {
		t.Fatal("buffer should not be Empty after Add")
	}

	d.Clear()
	if !d.Empty() {
		t.Fatal("buffer should be Empty after Clear")
	}
	if d.DynamicMemoryUsage() != 0 {
		t.Errorf("DynamicMemoryUsage after Clear = %d, want 0", d.DynamicMemoryUsage())
	}
}

func TestDescendantCachePutGetAndPrune(t *testing.T) {
	c := newDescendantCache()

	tx := buildTx(nil, 1)
	id := *tx.Hash()
	set := map[ID]*Entry{id: buildEntry(tx, 1000, 0, 0)}

	if _, ok := c.get(id); ok {
		t.Fatal("get on an empty cache should report false")
	}

	c.put(id, set)
	got, ok := c.get(id)
	if !ok {
		t.Fatal("get after put should report true")
	}
	if len(got) != 1 {
		t.Errorf("cached set has %d entries, want 1", len(got))
	}

	c.prune()
	if _, ok := c.get(id); !ok {
		t.Error("prune should not drop an id still tracked by the lru")
	}
}
