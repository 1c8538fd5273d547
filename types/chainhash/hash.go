// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"encoding/hex"
	"fmt"
)

// HashSize of the array used to store hashes.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified
// a hash string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v chars", MaxHashStringSize)

// Hash is used in several of the settlement messages and common
// structures. It typically represents a merkle leaf, node or root.
type Hash [HashSize]byte

// ZeroHash is the all-zeroes hash, used as the "no value" marker.
var ZeroHash Hash

// String returns the Hash as the hexadecimal string of the byte-encoded
// hash.
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// MarshalText implements encoding.TextMarshaler, so hashes serialize
// as hexadecimal strings in JSON and YAML documents.
func (hash Hash) MarshalText() ([]byte, error) {
	return []byte(hash.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (hash *Hash) UnmarshalText(text []byte) error {
	return Decode(hash, string(text))
}

// CloneBytes returns a copy of the bytes which represent the hash.
//
// NOTE: It is generally cheaper to just slice the hash directly thereby
// reusing the same bytes rather than calling this method.
func (hash *Hash) CloneBytes() []byte {
	newHash := make([]byte, HashSize)
	copy(newHash, hash[:])
	return newHash
}

// SetBytes sets the bytes which represent the hash.  An error is
// returned if the number of bytes passed in is not HashSize.
func (hash *Hash) SetBytes(newHash []byte) error {
	nhlen := len(newHash)
	if nhlen != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", nhlen, HashSize)
	}
	copy(hash[:], newHash)

	return nil
}

// IsEqual returns true if target is the same as hash.
func (hash *Hash) IsEqual(target *Hash) bool {
	if hash == nil && target == nil {
		return true
	}
	if hash == nil || target == nil {
		return false
	}
	return *hash == *target
}

// IsZero reports whether the hash is all zeroes.
func (hash *Hash) IsZero() bool {
	return *hash == ZeroHash
}

// NewHash returns a new Hash from a byte slice.  An error is returned if
// the number of bytes passed in is not HashSize.
func NewHash(newHash []byte) (*Hash, error) {
	var sh Hash
	err := sh.SetBytes(newHash)
	if err != nil {
		return nil, err
	}
	return &sh, err
}

// NewHashFromStr creates a Hash from a hash string.  The string should
// be the hexadecimal string of a byte-encoded hash.
func NewHashFromStr(src string) (*Hash, error) {
	ret := new(Hash)
	err := Decode(ret, src)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode decodes the byte-encoded hash from the passed hexadecimal
// string into the destination.
func Decode(dst *Hash, src string) error {
	if len(src) != MaxHashStringSize {
		if len(src) > MaxHashStringSize {
			return ErrHashStrSize
		}
		return fmt.Errorf("short hash string length %v, want %v", len(src), MaxHashStringSize)
	}

	var buf [HashSize]byte
	if _, err := hex.Decode(buf[:], []byte(src)); err != nil {
		return err
	}

	copy(dst[:], buf[:])
	return nil
}
