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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/protocol"
	"github.com/kestrelchain/go-kestrel/testpartitioning"
)

func recognizedForVariantTest(t *testing.T) RecognizedFeature {
	t.Helper()
	pfs := MakeProtocolFeatureSet()
	addBuiltin(t, pfs, protocol.ReplaceDeferred)
	return addBuiltin(t, pfs, protocol.NoDuplicateDeferredTransactions)
}

func TestVariantLayout(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)

	v := entry.Variant(true)
	require.Equal(t, entry.FeatureDigest, v.FeatureDigest)
	require.Equal(t, entry.DescriptionDigest, v.DescriptionDigest)
	require.Equal(t, entry.Dependencies, v.Dependencies)
	require.Equal(t, "builtin", v.ProtocolFeatureType)
	require.Equal(t, []SpecificationEntry{
		{Name: "builtin_feature_codename", Value: "NO_DUPLICATE_DEFERRED_TRANSACTIONS"},
	}, v.Specification)
	require.NotNil(t, v.SubjectiveRestrictions)
	require.Equal(t, entry.Enabled, v.SubjectiveRestrictions.Enabled)
	require.Equal(t, entry.PreactivationRequired, v.SubjectiveRestrictions.PreactivationRequired)
	require.Equal(t, entry.EarliestAllowedActivationTime, v.SubjectiveRestrictions.EarliestAllowedActivationTime)

	enc := string(protocol.EncodeJSON(v))
	for _, key := range []string{
		"feature_digest", "subjective_restrictions", "enabled", "preactivation_required",
		"earliest_allowed_activation_time", "description_digest", "dependencies",
		"protocol_feature_type", "specification", "builtin_feature_codename",
	} {
		require.Contains(t, enc, key)
	}
	require.Contains(t, enc, entry.FeatureDigest.String())
}

func TestVariantWithoutRestrictions(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)

	v := entry.Variant(false)
	require.Nil(t, v.SubjectiveRestrictions)

	enc := string(protocol.EncodeJSON(v))
	require.NotContains(t, enc, "subjective_restrictions")
}

func TestDecodeFeatureDefinitionRoundtrip(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)
	enc := protocol.EncodeJSON(entry.Variant(true))

	def, err := DecodeFeatureDefinition(enc)
	require.NoError(t, err)
	require.Equal(t, protocol.NoDuplicateDeferredTransactions, def.Codename)
	require.Equal(t, entry.Dependencies, def.Dependencies)
	require.Equal(t, entry.FeatureDigest, def.Digest())
}

func TestDecodeFeatureDefinitionRejectsTamperedDigest(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)
	v := entry.Variant(true)
	v.FeatureDigest = crypto.Hash([]byte("tampered"))

	_, err := DecodeFeatureDefinition(protocol.EncodeJSON(v))
	require.Error(t, err)
	verr, ok := err.(ValidationError)
	require.True(t, ok)
	require.Contains(t, verr.Reason, "digest mismatch")
}

func TestDecodeFeatureDefinitionRejectsUnknownType(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)
	v := entry.Variant(true)
	v.ProtocolFeatureType = "wasm_extension"

	_, err := DecodeFeatureDefinition(protocol.EncodeJSON(v))
	require.Error(t, err)
	require.IsType(t, ValidationError{}, err)
}

func TestDecodeFeatureDefinitionRejectsUnknownCodename(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)
	v := entry.Variant(true)
	v.Specification = []SpecificationEntry{{Name: "builtin_feature_codename", Value: "NOT_A_FEATURE"}}

	_, err := DecodeFeatureDefinition(protocol.EncodeJSON(v))
	require.Error(t, err)
	require.IsType(t, ValidationError{}, err)
}

func TestDecodeFeatureDefinitionRequiresRestrictions(t *testing.T) {
	testpartitioning.PartitionTest(t)

	entry := recognizedForVariantTest(t)
	v := entry.Variant(false)

	_, err := DecodeFeatureDefinition(protocol.EncodeJSON(v))
	require.Error(t, err)
	verr, ok := err.(ValidationError)
	require.True(t, ok)
	require.Contains(t, verr.Reason, "subjective_restrictions")
}

func TestRecognitionString(t *testing.T) {
	testpartitioning.PartitionTest(t)

	require.Equal(t, "unrecognized", RecognitionUnrecognized.String())
	require.Equal(t, "disabled", RecognitionDisabled.String())
	require.Equal(t, "too_early", RecognitionTooEarly.String())
	require.Equal(t, "ready", RecognitionReady.String())
}
