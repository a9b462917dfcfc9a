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
	"bytes"
	"sort"

	"github.com/kestrelchain/go-kestrel/config"
	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/protocol"
)

// featureTypeBuiltin is the wire tag for the builtin feature kind.  The
// digest and dependency machinery is generic over the kind, but builtin is
// the only kind this build implements.
const featureTypeBuiltin = "builtin"

// FeatureDefinition is a concrete builtin protocol feature instance: a
// FeatureSpec plus the resolved dependency set expressed as digests.  The
// digest form is the universal identifier shared with any future non-builtin
// feature kind, which is why dependencies are not kept as codenames here.
type FeatureDefinition struct {
	Codename          protocol.FeatureCodename
	DescriptionDigest crypto.Digest

	// Dependencies is a set: sorted and deduplicated by the constructor.
	Dependencies []crypto.Digest

	Restrictions config.SubjectiveRestrictions
}

// MakeFeatureDefinition assembles a builtin feature definition, normalizing
// the dependency digests into sorted-set form so that the same dependencies
// supplied in any order produce the same definition (and hence the same
// digest).  It fails with a ValidationError if the codename is unknown.
func MakeFeatureDefinition(codename protocol.FeatureCodename, descriptionDigest crypto.Digest,
	dependencies []crypto.Digest, restrictions config.SubjectiveRestrictions) (FeatureDefinition, error) {
	if _, ok := config.Features[codename]; !ok {
		return FeatureDefinition{}, ValidationError{
			Codename: codename.String(),
			Reason:   "unsupported builtin feature codename",
		}
	}

	return FeatureDefinition{
		Codename:          codename,
		DescriptionDigest: descriptionDigest,
		Dependencies:      normalizeDigestSet(dependencies),
		Restrictions:      restrictions,
	}, nil
}

// normalizeDigestSet returns a sorted copy of digests with duplicates
// removed.
func normalizeDigestSet(digests []crypto.Digest) []crypto.Digest {
	set := make([]crypto.Digest, len(digests))
	copy(set, digests)
	sort.Slice(set, func(i, j int) bool {
		return bytes.Compare(set[i][:], set[j][:]) < 0
	})

	out := set[:0]
	for i, d := range set {
		if i > 0 && d == set[i-1] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// featureDigestPreimage is the canonical input to the feature digest.  The
// subjective restrictions are deliberately absent: they are node-local
// configuration, not part of the feature's network-wide identity.
type featureDigestPreimage struct {
	Type              string          `codec:"type"`
	DescriptionDigest crypto.Digest   `codec:"description_digest"`
	Dependencies      []crypto.Digest `codec:"dependencies"`
	Codename          uint64          `codec:"codename"`
}

// ToBeHashed implements crypto.Hashable.  The preimage is the canonical
// msgpack encoding of the feature's type tag, description digest, sorted
// dependency digests, and codename ordinal.
func (def FeatureDefinition) ToBeHashed() (protocol.HashID, []byte) {
	preimage := featureDigestPreimage{
		Type:              featureTypeBuiltin,
		DescriptionDigest: def.DescriptionDigest,
		Dependencies:      def.Dependencies,
		Codename:          uint64(def.Codename),
	}
	return protocol.FeatureDefinition, protocol.EncodeReflect(preimage)
}

// Digest computes the canonical identity digest of the feature definition.
func (def FeatureDefinition) Digest() crypto.Digest {
	return crypto.HashObj(def)
}
