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
	"fmt"
	"math"

	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
	"github.com/kestrelchain/go-kestrel/logging"
	"github.com/kestrelchain/go-kestrel/protocol"
)

// notActive marks a builtin slot whose feature has not activated.
const notActive = basics.Round(math.MaxUint64)

// noPrevious terminates the linked stack of activated builtin slots.
const noPrevious = -1

// builtinActivationSlot is the per-codename sidecar giving O(1) "is active
// as of block N" queries.  Active slots form a singly linked stack ordered
// by activation, rooted at the manager's head index, so rollback pops them
// in reverse activation order.
type builtinActivationSlot struct {
	activationBlockNum basics.Round
	previous           int
}

// activationRecord is one entry of the ordered activation history.
type activationRecord struct {
	feature            *RecognizedFeature
	activationBlockNum basics.Round
}

// StoredActivation is one persisted entry of the activation log replayed by
// Init.
type StoredActivation struct {
	FeatureDigest      crypto.Digest
	ActivationBlockNum basics.Round
}

// ActivationLog is the collaborator-owned source of persisted activations:
// a repeatable sequence ascending by block number, consumed exactly once at
// initialization.
type ActivationLog interface {
	ActivatedFeatures() ([]StoredActivation, error)
}

// ActivationManager tracks which recognized protocol features have activated
// and at which block, in strict block-number order, and rolls activations
// back when the chain reorganizes.
//
// The manager is a single-writer structure tied 1:1 to one chain-state
// instance.  No internal locking is provided; the block-processing path must
// serialize all mutating calls, and the manager must not be shared across
// chain-state forks without its own copy.
type ActivationManager struct {
	pfs *ProtocolFeatureSet
	log logging.Logger

	// activations is the ordered history; block numbers are non-decreasing.
	activations []activationRecord

	// builtinSlots is indexed by codename ordinal, sized from the feature
	// set at construction.
	builtinSlots []builtinActivationSlot

	// head indexes the most recently activated slot, or noPrevious.
	head int

	initialized bool
}

// MakeActivationManager constructs an uninitialized manager over a finalized
// feature set.
func MakeActivationManager(pfs *ProtocolFeatureSet, log logging.Logger) *ActivationManager {
	slots := make([]builtinActivationSlot, pfs.builtinIndexSize())
	for i := range slots {
		slots[i] = builtinActivationSlot{activationBlockNum: notActive, previous: noPrevious}
	}
	return &ActivationManager{
		pfs:          pfs,
		log:          log,
		builtinSlots: slots,
		head:         noPrevious,
	}
}

// IsInitialized reports whether Init has completed successfully.
func (m *ActivationManager) IsInitialized() bool {
	return m.initialized
}

// Init replays the persisted activation log, in stored order, through
// ActivateFeature.  The stored order must already be ascending by block
// number; the first out-of-order record trips the monotonicity check and
// initialization aborts, reverting the manager to uninitialized.  Init may
// complete successfully only once.
func (m *ActivationManager) Init(store ActivationLog) error {
	if m.initialized {
		return StateError{Op: "already initialized"}
	}

	records, err := store.ActivatedFeatures()
	if err != nil {
		return StateError{Op: "init failed reading activation log", Err: err}
	}

	m.initialized = true
	for _, rec := range records {
		if aerr := m.ActivateFeature(rec.FeatureDigest, rec.ActivationBlockNum); aerr != nil {
			m.reset()
			return StateError{Op: "init failed replaying activation log", Err: aerr}
		}
	}

	m.log.Infof("activation manager initialized with %d persisted feature activations", len(records))
	return nil
}

// reset reverts the manager to its uninitialized, empty state.
func (m *ActivationManager) reset() {
	m.activations = nil
	for i := range m.builtinSlots {
		m.builtinSlots[i] = builtinActivationSlot{activationBlockNum: notActive, previous: noPrevious}
	}
	m.head = noPrevious
	m.initialized = false
}

// ActivateFeature records that the feature with the given digest activated
// at blockNum.  A failure must abort the enclosing block-validation
// operation; the manager state is unchanged on failure.
func (m *ActivationManager) ActivateFeature(featureDigest crypto.Digest, blockNum basics.Round) error {
	if !m.initialized {
		return StateError{Op: "not yet initialized"}
	}

	entry, ok := m.pfs.lookup(featureDigest)
	if !ok {
		return NotFoundError{FeatureDigest: featureDigest}
	}

	if n := len(m.activations); n > 0 {
		last := m.activations[n-1].activationBlockNum
		if blockNum < last {
			return OrderError{LastBlockNum: last, BlockNum: blockNum}
		}
	}

	if !entry.IsBuiltin() {
		return UnsupportedError{FeatureDigest: featureDigest}
	}

	indx := int(entry.BuiltinCodename)
	if indx >= len(m.builtinSlots) {
		// The feature set was mutated after this manager was constructed;
		// that breaks the single finalized set contract.
		panic(fmt.Sprintf("invariant failure activating feature %s: builtin slot %d out of range %d",
			featureDigest, indx, len(m.builtinSlots)))
	}

	slot := &m.builtinSlots[indx]
	if slot.activationBlockNum != notActive {
		return AlreadyActiveError{FeatureDigest: featureDigest, ActivatedAt: slot.activationBlockNum}
	}

	m.activations = append(m.activations, activationRecord{feature: entry, activationBlockNum: blockNum})
	slot.previous = m.head
	slot.activationBlockNum = blockNum
	m.head = indx

	m.log.With("codename", entry.BuiltinCodename.String()).Debugf(
		"activated protocol feature %s at block %d", featureDigest, blockNum)
	return nil
}

// PoppedBlocksTo rolls back every activation introduced above blockNum,
// leaving the slot array and the ordered history agreeing on exactly the
// same activation set.  Activations at or below blockNum are never removed.
func (m *ActivationManager) PoppedBlocksTo(blockNum basics.Round) error {
	if !m.initialized {
		return StateError{Op: "not yet initialized"}
	}

	popped := 0
	for m.head != noPrevious {
		slot := &m.builtinSlots[m.head]
		if slot.activationBlockNum <= blockNum {
			break
		}
		m.head = slot.previous
		slot.previous = noPrevious
		slot.activationBlockNum = notActive
		popped++
	}

	for len(m.activations) > 0 && m.activations[len(m.activations)-1].activationBlockNum > blockNum {
		m.activations = m.activations[:len(m.activations)-1]
	}

	if popped > 0 {
		m.log.Debugf("rolled back %d protocol feature activations above block %d", popped, blockNum)
	}
	return nil
}

// IsBuiltinActivated reports whether the builtin feature with the given
// codename was active as of currentBlockNum.  Unknown codenames and
// codenames outside the slot array report false.
func (m *ActivationManager) IsBuiltinActivated(codename protocol.FeatureCodename, currentBlockNum basics.Round) bool {
	indx := int(codename)
	if indx < 0 || indx >= len(m.builtinSlots) {
		return false
	}
	blockNum := m.builtinSlots[indx].activationBlockNum
	return blockNum != notActive && blockNum <= currentBlockNum
}
