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

package crypto

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kestrelchain/go-kestrel/protocol"
)

// DigestSize is the number of bytes in the preferred hash Digest used here.
const DigestSize = sha512.Size256

// Digest represents a SHA512_256 hash
type Digest [DigestSize]byte

// String returns the digest in hex encoding
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero returns true if the digest contains only zeros, false otherwise
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// DigestFromString converts a hex string to a Digest
func DigestFromString(str string) (d Digest, err error) {
	decoded, err := hex.DecodeString(str)
	if err != nil {
		return d, err
	}
	if len(decoded) != len(d) {
		return d, fmt.Errorf("expected %d bytes of digest, got %d", len(d), len(decoded))
	}
	copy(d[:], decoded)
	return d, nil
}

// MustDigestFromString converts a hex string to a Digest and panics on failure.
// It is meant for digest constants fixed at build time.
func MustDigestFromString(str string) Digest {
	d, err := DigestFromString(str)
	if err != nil {
		panic(err)
	}
	return d
}

// MarshalText implements encoding.TextMarshaler
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Digest) UnmarshalText(text []byte) error {
	dd, err := DigestFromString(string(text))
	if err != nil {
		return err
	}
	*d = dd
	return nil
}

// MarshalJSON encodes the digest as a hex string
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the digest from a hex string
func (d *Digest) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	dd, err := DigestFromString(str)
	if err != nil {
		return err
	}
	*d = dd
	return nil
}

// Hash computes the SHA512_256 hash of an array of bytes
func Hash(data []byte) Digest {
	return sha512.Sum512_256(data)
}

// Hashable is an interface implemented by an object that can be represented
// with a sequence of bytes to be hashed or signed, together with a type ID
// to distinguish different types of objects.
type Hashable interface {
	ToBeHashed() (protocol.HashID, []byte)
}

// HashRep appends the correct hashid before the message to be hashed.
func HashRep(h Hashable) []byte {
	hashid, data := h.ToBeHashed()
	return append([]byte(hashid), data...)
}

// HashObj computes a hash of a Hashable object and its type
func HashObj(h Hashable) Digest {
	return Hash(HashRep(h))
}
