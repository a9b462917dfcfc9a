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

// Package ledger implements the protocol feature registry and activation
// tracking of the chain state: the validated set of recognized protocol
// features, and the block-indexed history of which ones have gone live.
package ledger

import (
	"fmt"
	"strings"

	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
)

// ValidationError is returned when a feature definition is malformed or
// incomplete at registration time: an unknown codename, a builtin dependency
// that the resolved digest dependencies do not cover, or a serialized
// definition whose digest does not match its contents.  It indicates a
// build or version mismatch and is fatal at node startup.
type ValidationError struct {
	Codename            string
	MissingDependencies []string
	Reason              string
}

// Error satisfies builtin interface `error`
func (err ValidationError) Error() string {
	if len(err.MissingDependencies) > 0 {
		return fmt.Sprintf("not all builtin dependencies of builtin protocol feature with codename '%s' were satisfied: missing %s",
			err.Codename, strings.Join(err.MissingDependencies, ", "))
	}
	return fmt.Sprintf("invalid protocol feature definition for codename '%s': %s", err.Codename, err.Reason)
}

// ConflictError is returned when adding a feature whose digest or builtin
// codename has already been recognized.
type ConflictError struct {
	Codename      string
	FeatureDigest crypto.Digest
	DigestClash   bool
}

// Error satisfies builtin interface `error`
func (err ConflictError) Error() string {
	if err.DigestClash {
		return fmt.Sprintf("builtin protocol feature with codename '%s' has a digest of %s but another feature with the same digest has already been added",
			err.Codename, err.FeatureDigest)
	}
	return fmt.Sprintf("builtin protocol feature with codename '%s' already added", err.Codename)
}

// NotFoundError is returned when a digest is not recognized: queried,
// activated, or referenced as a dependency of a feature being added.
type NotFoundError struct {
	FeatureDigest crypto.Digest

	// DependentCodename is set when the digest was hit while validating the
	// dependencies of a feature being added.
	DependentCodename string
}

// Error satisfies builtin interface `error`
func (err NotFoundError) Error() string {
	if err.DependentCodename != "" {
		return fmt.Sprintf("builtin protocol feature with codename '%s' has a dependency on a protocol feature with digest %s that is not recognized",
			err.DependentCodename, err.FeatureDigest)
	}
	return fmt.Sprintf("unrecognized protocol feature with digest: %s", err.FeatureDigest)
}

// UnsupportedError is returned when activation is attempted for a feature
// kind other than builtin.  Non-builtin activation is reserved for a future
// feature kind.
type UnsupportedError struct {
	FeatureDigest crypto.Digest
}

// Error satisfies builtin interface `error`
func (err UnsupportedError) Error() string {
	return fmt.Sprintf("cannot activate non-builtin protocol feature with digest: %s", err.FeatureDigest)
}

// OrderError is returned when an activation block number regresses below the
// most recently appended activation.
type OrderError struct {
	LastBlockNum basics.Round
	BlockNum     basics.Round
}

// Error satisfies builtin interface `error`
func (err OrderError) Error() string {
	return fmt.Sprintf("last protocol feature activation block num is %d yet attempting to activate at block num %d",
		err.LastBlockNum, err.BlockNum)
}

// AlreadyActiveError is returned on a double activation of a builtin
// feature.
type AlreadyActiveError struct {
	FeatureDigest crypto.Digest
	ActivatedAt   basics.Round
}

// Error satisfies builtin interface `error`
func (err AlreadyActiveError) Error() string {
	return fmt.Sprintf("cannot activate already activated builtin feature with digest %s (activated at block %d)",
		err.FeatureDigest, err.ActivatedAt)
}

// StateError is returned on use of an uninitialized activation manager, a
// double initialization, or a failed initialization.  The caller must not
// proceed with an uninitialized manager.
type StateError struct {
	Op  string
	Err error
}

// Error satisfies builtin interface `error`
func (err StateError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("activation manager %s: %v", err.Op, err.Err)
	}
	return fmt.Sprintf("activation manager %s", err.Op)
}

// Unwrap returns the underlying cause, if any.
func (err StateError) Unwrap() error {
	return err.Err
}

// IteratorError reports misuse of an activation cursor: dereferencing or
// stepping out of range.  It is a programming defect, so cursor methods
// panic with it rather than return it.
type IteratorError struct {
	Msg string
}

// Error satisfies builtin interface `error`
func (err IteratorError) Error() string {
	return err.Msg
}
