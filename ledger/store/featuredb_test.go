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

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/ledger"
	"github.com/kestrelchain/go-kestrel/logging"
	"github.com/kestrelchain/go-kestrel/protocol"
	"github.com/kestrelchain/go-kestrel/testpartitioning"
)

func openTestStore(t *testing.T) *FeatureStore {
	t.Helper()
	fs, err := OpenFeatureStore(t.Name(), true, logging.TestingLog(t))
	require.NoError(t, err)
	t.Cleanup(fs.Close)
	require.NoError(t, fs.ResetDB())
	return fs
}

func TestFeatureStoreEmpty(t *testing.T) {
	testpartitioning.PartitionTest(t)

	fs := openTestStore(t)
	records, err := fs.ActivatedFeatures()
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFeatureStoreRoundtrip(t *testing.T) {
	testpartitioning.PartitionTest(t)

	fs := openTestStore(t)

	want := []ledger.StoredActivation{
		{FeatureDigest: crypto.Hash([]byte("f1")), ActivationBlockNum: 10},
		{FeatureDigest: crypto.Hash([]byte("f2")), ActivationBlockNum: 10},
		{FeatureDigest: crypto.Hash([]byte("f3")), ActivationBlockNum: 42},
	}
	for _, rec := range want {
		require.NoError(t, fs.RecordActivation(rec.FeatureDigest, rec.ActivationBlockNum))
	}

	got, err := fs.ActivatedFeatures()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFeatureStoreTrimAfter(t *testing.T) {
	testpartitioning.PartitionTest(t)

	fs := openTestStore(t)

	require.NoError(t, fs.RecordActivation(crypto.Hash([]byte("f1")), 10))
	require.NoError(t, fs.RecordActivation(crypto.Hash([]byte("f2")), 20))
	require.NoError(t, fs.RecordActivation(crypto.Hash([]byte("f3")), 30))

	require.NoError(t, fs.TrimAfter(15))

	got, err := fs.ActivatedFeatures()
	require.NoError(t, err)
	require.Equal(t, []ledger.StoredActivation{
		{FeatureDigest: crypto.Hash([]byte("f1")), ActivationBlockNum: 10},
	}, got)

	// trimming at or above the highest stored block removes nothing
	require.NoError(t, fs.TrimAfter(10))
	got, err = fs.ActivatedFeatures()
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestManagerInitFromFeatureStore(t *testing.T) {
	testpartitioning.PartitionTest(t)

	fs := openTestStore(t)

	pfs := ledger.MakeProtocolFeatureSet()
	var digests []crypto.Digest
	for c := protocol.FeatureCodename(0); c.IsValid(); c++ {
		def, err := pfs.MakeDefaultBuiltinFeatureDefinition(c,
			func(dep protocol.FeatureCodename) (crypto.Digest, error) {
				d, ok := pfs.GetBuiltinDigest(dep)
				require.True(t, ok)
				return d, nil
			})
		require.NoError(t, err)
		entry, err := pfs.AddFeature(def)
		require.NoError(t, err)
		digests = append(digests, entry.FeatureDigest)
	}

	require.NoError(t, fs.RecordActivation(digests[0], 10))
	require.NoError(t, fs.RecordActivation(digests[1], 25))

	mgr := ledger.MakeActivationManager(pfs, logging.TestingLog(t))
	require.NoError(t, mgr.Init(fs))

	require.True(t, mgr.IsBuiltinActivated(protocol.FeatureCodename(0), 10))
	require.True(t, mgr.IsBuiltinActivated(protocol.FeatureCodename(1), 25))
	require.False(t, mgr.IsBuiltinActivated(protocol.FeatureCodename(1), 24))

	// a fork switch trims durable state the same way PoppedBlocksTo trims
	// in-memory state
	require.NoError(t, mgr.PoppedBlocksTo(15))
	require.NoError(t, fs.TrimAfter(15))

	records, err := fs.ActivatedFeatures()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.False(t, mgr.IsBuiltinActivated(protocol.FeatureCodename(1), 1000))
}
