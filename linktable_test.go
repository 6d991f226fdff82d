// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import "testing"

func TestLinkTableLinkAndSever(t *testing.T) {
	lt := newLinkTable()

	parentTx := buildTx(nil, 1)
	parent := buildEntry(parentTx, 1000, 0, 0)
	childTx := buildTx(spending(parentTx), 1)
	child := buildEntry(childTx, 1000, 0, 0)

	lt.link(parent, child)

	if !lt.parents(child).has(parent) {
		t.Error("child's parent set should contain parent after link")
	}
	if !lt.children(parent).has(child) {
		t.Error("parent's child set should contain child after link")
	}

	lt.sever(parent, child)

	if lt.parents(child).has(parent) {
		t.Error("child's parent set should not contain parent after sever")
	}
	if lt.children(parent).has(child) {
		t.Error("parent's child set should not contain child after sever")
	}
}

func TestLinkTableDrop(t *testing.T) {
	lt := newLinkTable()

	parentTx := buildTx(nil, 1)
	parent := buildEntry(parentTx, 1000, 0, 0)
	lt.ensure(parent)

	lt.drop(parent)

	if lt.parents(parent) != nil {
		t.Error("parents of a dropped entry's row should be nil, not an empty set")
	}
}

func TestLinkTableCalculateDescendants(t *testing.T) {
	lt := newLinkTable()

	t1Tx := buildTx(nil, 1)
	t1 := buildEntry(t1Tx, 1000, 0, 0)

	t2Tx := buildTx(spending(t1Tx), 1)
	t2 := buildEntry(t2Tx, 1000, 0, 0)

	t3Tx := buildTx(spending(t2Tx), 1)
	t3 := buildEntry(t3Tx, 1000, 0, 0)

	lt.link(t1, t2)
	lt.link(t2, t3)

	acc := make(map[ID]*Entry)
	lt.calculateDescendants(t1, acc)

	if len(acc) != 3 {
		t.Fatalf("calculateDescendants(t1) returned %d entries, want 3", len(acc))
	}
	for _, want := range []*Entry{t1, t2, t3} {
		if _, ok := acc[want.ID()]; !ok {
			t.Errorf("calculateDescendants(t1) missing %s", want.ID())
		}
	}
}
