// Copyright (C) 2022-2026 Kestrel Labs, Inc.
// This file is part of go-kestrel
//
// go-kestrel is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-kestrel is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-kestrel.  If not, see <https://www.gnu.org/licenses/>.

package ledger

import (
	"sort"

	"github.com/kestrelchain/go-kestrel/data/basics"
)

// endIndex marks a cursor positioned one past the last activation record.
const endIndex = -1

// ActivationCursor is a bidirectional cursor over the ordered activation
// history of an ActivationManager.  Cursors are values; two cursors over the
// same manager compare equal with == iff they reference the same position.
//
// Dereferencing or stepping a cursor out of range is a programming defect:
// those methods panic with an IteratorError rather than return one.
type ActivationCursor struct {
	mgr   *ActivationManager
	index int
}

// First returns a cursor at the earliest activation, or End() if no features
// have been activated.
func (m *ActivationManager) First() ActivationCursor {
	if len(m.activations) == 0 {
		return m.End()
	}
	return ActivationCursor{mgr: m, index: 0}
}

// End returns the cursor one past the last activation record.
func (m *ActivationManager) End() ActivationCursor {
	return ActivationCursor{mgr: m, index: endIndex}
}

// AtActivationOrdinal returns a cursor at the given zero-based position of
// the activation history, or End() if the ordinal is out of range.
func (m *ActivationManager) AtActivationOrdinal(activationOrdinal int) ActivationCursor {
	if activationOrdinal < 0 || activationOrdinal >= len(m.activations) {
		return m.End()
	}
	return ActivationCursor{mgr: m, index: activationOrdinal}
}

// LowerBound returns a cursor at the first activation whose block number is
// >= blockNum, or End() if there is none.  The binary search is valid
// because the history's block numbers are non-decreasing.
func (m *ActivationManager) LowerBound(blockNum basics.Round) ActivationCursor {
	i := sort.Search(len(m.activations), func(i int) bool {
		return m.activations[i].activationBlockNum >= blockNum
	})
	return m.AtActivationOrdinal(i)
}

// UpperBound returns a cursor at the first activation whose block number is
// strictly greater than blockNum, or End() if there is none.
func (m *ActivationManager) UpperBound(blockNum basics.Round) ActivationCursor {
	i := sort.Search(len(m.activations), func(i int) bool {
		return m.activations[i].activationBlockNum > blockNum
	})
	return m.AtActivationOrdinal(i)
}

func (c ActivationCursor) check(op string) {
	if c.mgr == nil {
		panic(IteratorError{Msg: "called " + op + " on singular cursor"})
	}
	if c.index == endIndex {
		panic(IteratorError{Msg: "called " + op + " on end cursor"})
	}
}

// ActivationOrdinal returns the zero-based position of the referenced record
// in the chronological activation history.
func (c ActivationCursor) ActivationOrdinal() int {
	c.check("ActivationOrdinal()")
	return c.index
}

// ActivationBlockNum returns the block number at which the referenced
// feature activated.
func (c ActivationCursor) ActivationBlockNum() basics.Round {
	c.check("ActivationBlockNum()")
	return c.mgr.activations[c.index].activationBlockNum
}

// Feature returns the recognized feature the cursor references.
func (c ActivationCursor) Feature() RecognizedFeature {
	c.check("Feature()")
	return *c.mgr.activations[c.index].feature
}

// Next advances the cursor; advancing past the last record positions it at
// End().  Advancing an end cursor panics.
func (c *ActivationCursor) Next() {
	c.check("Next()")
	c.index++
	if c.index >= len(c.mgr.activations) {
		c.index = endIndex
	}
}

// Prev steps the cursor back; stepping back from End() positions it at the
// last record.  Stepping before the first record panics.
func (c *ActivationCursor) Prev() {
	if c.mgr == nil {
		panic(IteratorError{Msg: "called Prev() on singular cursor"})
	}
	if c.index == endIndex {
		if len(c.mgr.activations) == 0 {
			panic(IteratorError{Msg: "cannot step back from end cursor when no features have been activated"})
		}
		c.index = len(c.mgr.activations) - 1
		return
	}
	if c.index == 0 {
		panic(IteratorError{Msg: "cannot step back from the beginning of the activation history"})
	}
	c.index--
}
