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

// Package store persists the protocol feature activation log in sqlite.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
	"github.com/kestrelchain/go-kestrel/ledger"
	"github.com/kestrelchain/go-kestrel/logging"
	"github.com/kestrelchain/go-kestrel/util/db"
)

var featureSchema = []string{
	`CREATE TABLE IF NOT EXISTS activatedfeatures (
		ord integer primary key,
		digest blob,
		blocknum integer)`,
}

var featureResetExprs = []string{
	`DROP TABLE IF EXISTS activatedfeatures`,
}

// activationRow mirrors one row of the activatedfeatures table.
type activationRow struct {
	Ord      int64  `db:"ord"`
	Digest   []byte `db:"digest"`
	BlockNum uint64 `db:"blocknum"`
}

// FeatureStore is the sqlite-backed persisted activation log.  Rows are
// appended in activation order, so reading them back by ordinal yields the
// ascending-by-block-number sequence the activation manager replays.
type FeatureStore struct {
	dbs db.Accessor
	log logging.Logger
}

// OpenFeatureStore opens (and if needed creates) the activation log database.
func OpenFeatureStore(dbfilename string, inMemory bool, log logging.Logger) (*FeatureStore, error) {
	dbs, err := db.MakeAccessor(dbfilename, false, inMemory)
	if err != nil {
		return nil, err
	}
	dbs.SetLogger(log)

	fs := &FeatureStore{dbs: dbs, log: log}
	err = fs.dbs.Atomic("featureInit", func(tx *sqlx.Tx) error {
		for _, tableCreate := range featureSchema {
			if _, err := tx.Exec(tableCreate); err != nil {
				return fmt.Errorf("featuredb could not create table %v", err)
			}
		}
		return nil
	})
	if err != nil {
		dbs.Close()
		return nil, err
	}
	return fs, nil
}

// Close closes the underlying database.
func (fs *FeatureStore) Close() {
	fs.dbs.Close()
}

// ResetDB drops and recreates the activation log, for tooling use.
func (fs *FeatureStore) ResetDB() error {
	return fs.dbs.Atomic("featureReset", func(tx *sqlx.Tx) error {
		for _, stmt := range append(featureResetExprs, featureSchema...) {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ActivatedFeatures returns the persisted activation log in stored order.
// It implements ledger.ActivationLog.
func (fs *FeatureStore) ActivatedFeatures() ([]ledger.StoredActivation, error) {
	var rows []activationRow
	err := fs.dbs.Atomic("featureLoad", func(tx *sqlx.Tx) error {
		rows = nil
		return tx.Select(&rows, "SELECT ord, digest, blocknum FROM activatedfeatures ORDER BY ord ASC")
	})
	if err != nil {
		return nil, err
	}

	out := make([]ledger.StoredActivation, 0, len(rows))
	for _, row := range rows {
		var d crypto.Digest
		if len(row.Digest) != len(d) {
			return nil, fmt.Errorf("featuredb row %d has malformed digest of %d bytes", row.Ord, len(row.Digest))
		}
		copy(d[:], row.Digest)
		out = append(out, ledger.StoredActivation{
			FeatureDigest:      d,
			ActivationBlockNum: basics.Round(row.BlockNum),
		})
	}
	return out, nil
}

// RecordActivation appends one activation to the persisted log.  The caller
// drives this from the same block-processing path that calls
// ActivateFeature, so stored order matches activation order.
func (fs *FeatureStore) RecordActivation(featureDigest crypto.Digest, blockNum basics.Round) error {
	return fs.dbs.Atomic("featureRecord", func(tx *sqlx.Tx) error {
		_, err := tx.Exec("INSERT INTO activatedfeatures (digest, blocknum) VALUES (?, ?)",
			featureDigest[:], uint64(blockNum))
		return err
	})
}

// TrimAfter removes every persisted activation above blockNum, mirroring
// PoppedBlocksTo on durable state during a fork switch.
func (fs *FeatureStore) TrimAfter(blockNum basics.Round) error {
	return fs.dbs.Atomic("featureTrim", func(tx *sqlx.Tx) error {
		res, err := tx.Exec("DELETE FROM activatedfeatures WHERE blocknum > ?", uint64(blockNum))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			fs.log.Debugf("featuredb trimmed %d activations above block %d", n, blockNum)
		}
		return nil
	})
}
