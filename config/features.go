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

package config

import (
	"github.com/kestrelchain/go-kestrel/crypto"
	"github.com/kestrelchain/go-kestrel/data/basics"
	"github.com/kestrelchain/go-kestrel/protocol"
)

// SubjectiveRestrictions are per-node gates on when a recognized protocol
// feature may activate.  They are subjective: two nodes may configure them
// differently without disagreeing on the feature's identity, which is why
// they are excluded from the feature digest.
type SubjectiveRestrictions struct {
	// EarliestAllowedActivationTime rejects activation before the given
	// moment (the feature reports "too early" until then).
	EarliestAllowedActivationTime basics.TimePoint

	// PreactivationRequired demands the feature be preactivated before the
	// block that formally activates it.
	PreactivationRequired bool

	// Enabled gates the feature entirely; a disabled feature is recognized
	// but can never activate on this node.
	Enabled bool
}

// FeatureSpec is the build-time specification of a builtin protocol feature.
// The description text is pinned here and hashed into DescriptionDigest, so
// the identity of a feature is permanently bound to its documented behavior;
// even a typo fix to the text produces a different feature digest.
type FeatureSpec struct {
	Codename protocol.FeatureCodename

	// Description is the immutable specification text.  Do not modify the
	// text of a released feature.
	Description string

	DescriptionDigest crypto.Digest

	// BuiltinDependencies are the codenames of builtin features that must be
	// recognized (through resolved digest dependencies) before this one.
	BuiltinDependencies []protocol.FeatureCodename

	// Restrictions are the default subjective restrictions of the feature.
	// Every spec states them explicitly; there is no implicit default.
	Restrictions SubjectiveRestrictions
}

// Features holds the specifications of every builtin protocol feature this
// build knows about, keyed by codename.  It is initialized once at startup
// and never modified afterwards.
var Features map[protocol.FeatureCodename]FeatureSpec

func initFeatureSpecs() {
	Features = make(map[protocol.FeatureCodename]FeatureSpec)

	addSpec := func(codename protocol.FeatureCodename, description string,
		dependencies []protocol.FeatureCodename, restrictions SubjectiveRestrictions) {
		Features[codename] = FeatureSpec{
			Codename:            codename,
			Description:         description,
			DescriptionDigest:   crypto.Hash([]byte(description)),
			BuiltinDependencies: dependencies,
			Restrictions:        restrictions,
		}
	}

	// PREACTIVATE_FEATURE is enabled without preactivation and ready to go
	// at any time; it is the bootstrap feature the rest of the preactivation
	// mechanism depends on.
	addSpec(protocol.PreactivateFeature,
		`Builtin protocol feature: PREACTIVATE_FEATURE

Adds a privileged intrinsic to enable a contract to pre-activate a protocol
feature specified by its digest. Pre-activated protocol features must be
activated in the next block.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         false,
			Enabled:                       true,
		})

	addSpec(protocol.OnlyLinkToExistingPermission,
		`Builtin protocol feature: ONLY_LINK_TO_EXISTING_PERMISSION

Disallows linking an action to a non-existing permission.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.ReplaceDeferred,
		`Builtin protocol feature: REPLACE_DEFERRED

Fixes the bug in the RAM billing of replacing a deferred transaction and
allows a contract to replace a deferred transaction that it previously sent.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.NoDuplicateDeferredTransactions,
		`Builtin protocol feature: NO_DUPLICATE_DEFERRED_TRANSACTIONS

Ensures transactions generated by contracts for deferred execution are
adequately distinguished from other transactions, so that any transaction
within the blockchain is unique.

Depends on: REPLACE_DEFERRED
`,
		[]protocol.FeatureCodename{protocol.ReplaceDeferred},
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.FixLinkauthRestriction,
		`Builtin protocol feature: FIX_LINKAUTH_RESTRICTION

Removes the restriction on using the link-authorization intrinsics with the
special built-in action names.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.DisallowEmptyProducerSchedule,
		`Builtin protocol feature: DISALLOW_EMPTY_PRODUCER_SCHEDULE

Disallows proposing an empty producer schedule.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.RestrictActionToSelf,
		`Builtin protocol feature: RESTRICT_ACTION_TO_SELF

Disallows bypassing the authorization checks by sending actions to oneself.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.OnlyBillFirstAuthorizer,
		`Builtin protocol feature: ONLY_BILL_FIRST_AUTHORIZER

Adds CPU and network bandwidth usage to only the first authorizer of a
transaction.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.RAMRestrictions,
		`Builtin protocol feature: RAM_RESTRICTIONS

Modifies the restrictions on operations within actions that increase RAM
usage of accounts other than the receiver.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.WebAuthnKey,
		`Builtin protocol feature: WEBAUTHN_KEY

Adds support for WebAuthn keys and signatures.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.WtmsigBlockSignatures,
		`Builtin protocol feature: WTMSIG_BLOCK_SIGNATURES

Allows producers to specify a multisig of weighted keys as the authority for
signing blocks.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})

	addSpec(protocol.GetSender,
		`Builtin protocol feature: GET_SENDER

Allows contracts to determine which account is the sender of an inline
action.
`,
		nil,
		SubjectiveRestrictions{
			EarliestAllowedActivationTime: 0,
			PreactivationRequired:         true,
			Enabled:                       true,
		})
}

func init() {
	initFeatureSpecs()
}
