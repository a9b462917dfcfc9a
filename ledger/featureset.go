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
	"github.com/algorand/go-deadlock"

	"github.com/kestrelchain/go-kestrel/config"
	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
	"github.com/kestrelchain/go-kestrel/protocol"
)

// RecognizedFeature is the entry stored in a ProtocolFeatureSet once a
// feature definition has been validated.  The feature digest is the primary
// key.
type RecognizedFeature struct {
	FeatureDigest     crypto.Digest
	DescriptionDigest crypto.Digest
	Dependencies      []crypto.Digest

	EarliestAllowedActivationTime basics.TimePoint
	PreactivationRequired         bool
	Enabled                       bool

	// BuiltinCodename is protocol.InvalidFeatureCodename for features of a
	// non-builtin kind.  Only builtin features exist in this build.
	BuiltinCodename protocol.FeatureCodename
}

// IsBuiltin reports whether the feature has a builtin codename.
func (f *RecognizedFeature) IsBuiltin() bool {
	return f.BuiltinCodename.IsValid()
}

// Recognition is the outcome of querying whether a feature digest is
// recognized and currently allowed to activate.
type Recognition int

// Recognition outcomes; exactly one applies to any (digest, now) query.
const (
	// RecognitionUnrecognized means the digest is not in the set.
	RecognitionUnrecognized Recognition = iota
	// RecognitionDisabled means the feature is recognized but disabled by
	// subjective configuration.
	RecognitionDisabled
	// RecognitionTooEarly means the feature is enabled but its earliest
	// allowed activation time is still in the future.
	RecognitionTooEarly
	// RecognitionReady means the feature may activate now.
	RecognitionReady
)

// String returns a human-readable name for the recognition outcome.
func (r Recognition) String() string {
	switch r {
	case RecognitionUnrecognized:
		return "unrecognized"
	case RecognitionDisabled:
		return "disabled"
	case RecognitionTooEarly:
		return "too_early"
	case RecognitionReady:
		return "ready"
	default:
		return "invalid"
	}
}

// ProtocolFeatureSet is the validated registry of recognized protocol
// features for a running node.  It is assembled once during node
// configuration by repeated AddFeature calls and treated as read-only
// afterwards; reads are safe from multiple validation contexts.
type ProtocolFeatureSet struct {
	mu deadlock.RWMutex

	// recognized maps feature digest to the stored entry.
	recognized map[crypto.Digest]*RecognizedFeature

	// builtinIndex is a dense array indexed by codename ordinal, grown on
	// demand; nil marks an absent builtin.
	builtinIndex []*RecognizedFeature

	// specs is the builtin feature registry the set validates against.
	specs map[protocol.FeatureCodename]config.FeatureSpec
}

// MakeProtocolFeatureSet returns an empty feature set validating against the
// build's builtin feature registry.
func MakeProtocolFeatureSet() *ProtocolFeatureSet {
	return makeProtocolFeatureSetWithSpecs(config.Features)
}

func makeProtocolFeatureSetWithSpecs(specs map[protocol.FeatureCodename]config.FeatureSpec) *ProtocolFeatureSet {
	return &ProtocolFeatureSet{
		recognized:   make(map[crypto.Digest]*RecognizedFeature, len(specs)),
		builtinIndex: make([]*RecognizedFeature, 0, len(specs)),
		specs:        specs,
	}
}

// AddFeature validates a feature definition and inserts it into the set.
//
// Validation order: the codename must be known and not already present, every
// dependency digest must already be recognized (producer before consumer),
// the codenames of the satisfied dependencies must cover the spec's full
// builtin dependency set, and the computed digest must be new.
func (pfs *ProtocolFeatureSet) AddFeature(def FeatureDefinition) (RecognizedFeature, error) {
	pfs.mu.Lock()
	defer pfs.mu.Unlock()

	spec, ok := pfs.specs[def.Codename]
	if !ok {
		return RecognizedFeature{}, ValidationError{
			Codename: def.Codename.String(),
			Reason:   "unsupported builtin feature codename",
		}
	}

	indx := int(def.Codename)
	if indx < len(pfs.builtinIndex) && pfs.builtinIndex[indx] != nil {
		return RecognizedFeature{}, ConflictError{Codename: def.Codename.String()}
	}

	featureDigest := def.Digest()

	satisfied := make(map[protocol.FeatureCodename]bool, len(spec.BuiltinDependencies))
	for _, d := range def.Dependencies {
		entry, ok := pfs.recognized[d]
		if !ok {
			return RecognizedFeature{}, NotFoundError{
				FeatureDigest:     d,
				DependentCodename: def.Codename.String(),
			}
		}
		if entry.IsBuiltin() {
			satisfied[entry.BuiltinCodename] = true
		}
	}

	var missing []string
	for _, dep := range spec.BuiltinDependencies {
		if !satisfied[dep] {
			missing = append(missing, dep.String())
		}
	}
	if len(missing) > 0 {
		return RecognizedFeature{}, ValidationError{
			Codename:            def.Codename.String(),
			MissingDependencies: missing,
		}
	}

	if _, ok := pfs.recognized[featureDigest]; ok {
		return RecognizedFeature{}, ConflictError{
			Codename:      def.Codename.String(),
			FeatureDigest: featureDigest,
			DigestClash:   true,
		}
	}

	entry := &RecognizedFeature{
		FeatureDigest:                 featureDigest,
		DescriptionDigest:             def.DescriptionDigest,
		Dependencies:                  def.Dependencies,
		EarliestAllowedActivationTime: def.Restrictions.EarliestAllowedActivationTime,
		PreactivationRequired:         def.Restrictions.PreactivationRequired,
		Enabled:                       def.Restrictions.Enabled,
		BuiltinCodename:               def.Codename,
	}
	pfs.recognized[featureDigest] = entry

	for len(pfs.builtinIndex) <= indx {
		pfs.builtinIndex = append(pfs.builtinIndex, nil)
	}
	pfs.builtinIndex[indx] = entry

	return *entry, nil
}

// IsRecognized reports whether the feature digest refers to a recognized
// feature that would be allowed to activate at time now.
func (pfs *ProtocolFeatureSet) IsRecognized(featureDigest crypto.Digest, now basics.TimePoint) Recognition {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()

	entry, ok := pfs.recognized[featureDigest]
	if !ok {
		return RecognitionUnrecognized
	}
	if !entry.Enabled {
		return RecognitionDisabled
	}
	if entry.EarliestAllowedActivationTime.After(now) {
		return RecognitionTooEarly
	}
	return RecognitionReady
}

// GetBuiltinDigest returns the digest of the recognized builtin feature with
// the given codename; the second return is false if none has been added.
func (pfs *ProtocolFeatureSet) GetBuiltinDigest(codename protocol.FeatureCodename) (crypto.Digest, bool) {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()

	indx := int(codename)
	if indx < 0 || indx >= len(pfs.builtinIndex) || pfs.builtinIndex[indx] == nil {
		return crypto.Digest{}, false
	}
	return pfs.builtinIndex[indx].FeatureDigest, true
}

// GetProtocolFeature returns the recognized feature with the given digest,
// failing with a NotFoundError if absent.
func (pfs *ProtocolFeatureSet) GetProtocolFeature(featureDigest crypto.Digest) (RecognizedFeature, error) {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()

	entry, ok := pfs.recognized[featureDigest]
	if !ok {
		return RecognizedFeature{}, NotFoundError{FeatureDigest: featureDigest}
	}
	return *entry, nil
}

// ValidateDependencies returns false if the digest is not recognized;
// otherwise it returns true iff the validator holds for every direct
// dependency digest.  No transitive closure is taken; callers compose this
// themselves if they need one.
func (pfs *ProtocolFeatureSet) ValidateDependencies(featureDigest crypto.Digest,
	validator func(crypto.Digest) bool) bool {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()

	entry, ok := pfs.recognized[featureDigest]
	if !ok {
		return false
	}
	for _, d := range entry.Dependencies {
		if !validator(d) {
			return false
		}
	}
	return true
}

// MakeDefaultBuiltinFeatureDefinition is the canonical bootstrap helper: it
// looks up the codename's spec, resolves each declared builtin dependency to
// a concrete digest through handleDependency (typically the digest of the
// already-added feature with that codename), and returns a ready-to-insert
// definition carrying the spec's default restrictions.
func (pfs *ProtocolFeatureSet) MakeDefaultBuiltinFeatureDefinition(codename protocol.FeatureCodename,
	handleDependency func(protocol.FeatureCodename) (crypto.Digest, error)) (FeatureDefinition, error) {
	pfs.mu.RLock()
	spec, ok := pfs.specs[codename]
	pfs.mu.RUnlock()

	if !ok {
		return FeatureDefinition{}, ValidationError{
			Codename: codename.String(),
			Reason:   "unsupported builtin feature codename",
		}
	}

	dependencies := make([]crypto.Digest, 0, len(spec.BuiltinDependencies))
	for _, dep := range spec.BuiltinDependencies {
		d, err := handleDependency(dep)
		if err != nil {
			return FeatureDefinition{}, err
		}
		dependencies = append(dependencies, d)
	}

	return FeatureDefinition{
		Codename:          codename,
		DescriptionDigest: spec.DescriptionDigest,
		Dependencies:      normalizeDigestSet(dependencies),
		Restrictions:      spec.Restrictions,
	}, nil
}

// lookup returns the stored entry pointer for a digest.  The pointer stays
// valid for the lifetime of the set; the activation manager keeps it in its
// history records.
func (pfs *ProtocolFeatureSet) lookup(featureDigest crypto.Digest) (*RecognizedFeature, bool) {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()
	entry, ok := pfs.recognized[featureDigest]
	return entry, ok
}

// builtinIndexSize reports the current size of the dense builtin index; the
// activation manager sizes its slot array from it.
func (pfs *ProtocolFeatureSet) builtinIndexSize() int {
	pfs.mu.RLock()
	defer pfs.mu.RUnlock()
	return len(pfs.builtinIndex)
}
