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
	"github.com/kestrelchain/go-kestrel/config"
	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
	"github.com/kestrelchain/go-kestrel/protocol"
)

// SpecificationEntry is one kind-specific {name, value} parameter of a
// feature's introspection record.
type SpecificationEntry struct {
	Name  string `codec:"name"`
	Value string `codec:"value"`
}

// RestrictionsVariant is the subjective_restrictions sub-record of a feature
// variant.
type RestrictionsVariant struct {
	Enabled                       bool             `codec:"enabled"`
	PreactivationRequired         bool             `codec:"preactivation_required"`
	EarliestAllowedActivationTime basics.TimePoint `codec:"earliest_allowed_activation_time"`
}

// FeatureVariant is the structured introspection record of a recognized
// protocol feature, rendered to JSON with protocol.EncodeJSON.  The layout
// is additive-stable: new keys may appear in future versions, but existing
// keys keep their meaning, since external tooling and light clients consume
// this record.
type FeatureVariant struct {
	FeatureDigest          crypto.Digest        `codec:"feature_digest"`
	SubjectiveRestrictions *RestrictionsVariant `codec:"subjective_restrictions,omitempty"`
	DescriptionDigest      crypto.Digest        `codec:"description_digest"`
	Dependencies           []crypto.Digest      `codec:"dependencies"`
	ProtocolFeatureType    string               `codec:"protocol_feature_type"`
	Specification          []SpecificationEntry `codec:"specification"`
}

// Variant produces the introspection record of the feature, optionally
// including the node-local subjective restrictions.
func (f RecognizedFeature) Variant(includeSubjectiveRestrictions bool) FeatureVariant {
	v := FeatureVariant{
		FeatureDigest:       f.FeatureDigest,
		DescriptionDigest:   f.DescriptionDigest,
		Dependencies:        f.Dependencies,
		ProtocolFeatureType: featureTypeBuiltin,
		Specification: []SpecificationEntry{
			{Name: "builtin_feature_codename", Value: f.BuiltinCodename.String()},
		},
	}
	if includeSubjectiveRestrictions {
		v.SubjectiveRestrictions = &RestrictionsVariant{
			Enabled:                       f.Enabled,
			PreactivationRequired:         f.PreactivationRequired,
			EarliestAllowedActivationTime: f.EarliestAllowedActivationTime,
		}
	}
	return v
}

// DecodeFeatureDefinition decodes a JSON feature variant back into a
// definition.  The type tag is read first and dispatched to the matching
// kind's constructor, and the digest is recomputed and compared against the
// serialized one; a deserialized digest is never trusted as-is.
func DecodeFeatureDefinition(data []byte) (FeatureDefinition, error) {
	var v FeatureVariant
	if err := protocol.DecodeJSON(data, &v); err != nil {
		return FeatureDefinition{}, ValidationError{Reason: err.Error()}
	}

	if v.ProtocolFeatureType != featureTypeBuiltin {
		return FeatureDefinition{}, ValidationError{
			Reason: "unsupported protocol feature type: " + v.ProtocolFeatureType,
		}
	}

	var codenameValue string
	for _, entry := range v.Specification {
		if entry.Name == "builtin_feature_codename" {
			codenameValue = entry.Value
		}
	}
	codename, ok := protocol.FeatureCodenameByName(codenameValue)
	if !ok {
		return FeatureDefinition{}, ValidationError{
			Codename: codenameValue,
			Reason:   "unsupported builtin feature codename",
		}
	}

	// Subjective restrictions are node-local configuration; a serialized
	// definition must carry them explicitly rather than inherit an unstated
	// default.
	if v.SubjectiveRestrictions == nil {
		return FeatureDefinition{}, ValidationError{
			Codename: codenameValue,
			Reason:   "missing subjective_restrictions",
		}
	}

	def, err := MakeFeatureDefinition(codename, v.DescriptionDigest, v.Dependencies,
		config.SubjectiveRestrictions{
			EarliestAllowedActivationTime: v.SubjectiveRestrictions.EarliestAllowedActivationTime,
			PreactivationRequired:         v.SubjectiveRestrictions.PreactivationRequired,
			Enabled:                       v.SubjectiveRestrictions.Enabled,
		})
	if err != nil {
		return FeatureDefinition{}, err
	}

	if computed := def.Digest(); computed != v.FeatureDigest {
		return FeatureDefinition{}, ValidationError{
			Codename: codenameValue,
			Reason: "feature digest mismatch: serialized " + v.FeatureDigest.String() +
				", computed " + computed.String(),
		}
	}

	return def, nil
}
