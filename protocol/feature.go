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

package protocol

// FeatureCodename identifies a builtin protocol feature whose logic ships
// with the node binary.  The ordinal of a codename is consensus-relevant:
// it is bound into the feature digest and indexes the dense activation
// tables, so entries must only ever be appended.
type FeatureCodename int

// Builtin protocol feature codenames.
const (
	PreactivateFeature FeatureCodename = iota
	OnlyLinkToExistingPermission
	ReplaceDeferred
	NoDuplicateDeferredTransactions
	FixLinkauthRestriction
	DisallowEmptyProducerSchedule
	RestrictActionToSelf
	OnlyBillFirstAuthorizer
	RAMRestrictions
	WebAuthnKey
	WtmsigBlockSignatures
	GetSender

	numFeatureCodenames // must remain last
)

// InvalidFeatureCodename is the sentinel for "no builtin codename", used by
// recognized features of a non-builtin kind.
const InvalidFeatureCodename FeatureCodename = -1

var featureCodenameNames = [numFeatureCodenames]string{
	PreactivateFeature:              "PREACTIVATE_FEATURE",
	OnlyLinkToExistingPermission:    "ONLY_LINK_TO_EXISTING_PERMISSION",
	ReplaceDeferred:                 "REPLACE_DEFERRED",
	NoDuplicateDeferredTransactions: "NO_DUPLICATE_DEFERRED_TRANSACTIONS",
	FixLinkauthRestriction:          "FIX_LINKAUTH_RESTRICTION",
	DisallowEmptyProducerSchedule:   "DISALLOW_EMPTY_PRODUCER_SCHEDULE",
	RestrictActionToSelf:            "RESTRICT_ACTION_TO_SELF",
	OnlyBillFirstAuthorizer:         "ONLY_BILL_FIRST_AUTHORIZER",
	RAMRestrictions:                 "RAM_RESTRICTIONS",
	WebAuthnKey:                     "WEBAUTHN_KEY",
	WtmsigBlockSignatures:           "WTMSIG_BLOCK_SIGNATURES",
	GetSender:                       "GET_SENDER",
}

// IsValid returns true if the codename refers to a known builtin feature.
func (c FeatureCodename) IsValid() bool {
	return c >= 0 && c < numFeatureCodenames
}

// String returns the canonical human-readable name of the codename.
func (c FeatureCodename) String() string {
	if !c.IsValid() {
		return "UNKNOWN_FEATURE_CODENAME"
	}
	return featureCodenameNames[c]
}

// NumFeatureCodenames reports how many builtin feature codenames this build
// knows about.
func NumFeatureCodenames() int {
	return int(numFeatureCodenames)
}

// FeatureCodenameByName resolves a canonical name back to its codename; the
// second return is false if the name is not a known builtin feature.
func FeatureCodenameByName(name string) (FeatureCodename, bool) {
	for c, n := range featureCodenameNames {
		if n == name {
			return FeatureCodename(c), true
		}
	}
	return InvalidFeatureCodename, false
}
