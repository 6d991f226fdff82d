// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import "github.com/btcsuite/btcd/btcutil"

// priorityDeltas is component G: a persistent map of fee biases keyed by id,
// outliving the entries they apply to so a delta set before a transaction is
// seen still takes effect the moment it is admitted.
type priorityDeltas struct {
	deltas map[ID]btcutil.Amount
}

func newPriorityDeltas() *priorityDeltas {
	return &priorityDeltas{deltas: make(map[ID]btcutil.Amount)}
}

// get returns the stored delta for id, or 0 if none has been prioritised.
func (p *priorityDeltas) get(id ID) btcutil.Amount {
	return p.deltas[id]
}

// set records delta as id's total prioritisation bias, replacing any prior
// value.
func (p *priorityDeltas) set(id ID, delta btcutil.Amount) {
	p.deltas[id] = delta
}

// clear removes id's stored delta, called once its transaction is mined and
// the bias no longer matters.
func (p *priorityDeltas) clear(id ID) {
	delete(p.deltas, id)
}

// applyDelta adds id's stored bias onto fee, for external mining-score
// callers that want prioritisation without consulting an Entry.
func (p *priorityDeltas) applyDelta(id ID, fee *btcutil.Amount) {
	*fee += p.deltas[id]
}
