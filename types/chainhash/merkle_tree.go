// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"bytes"

	"github.com/pkg/errors"
)

// ErrLeafIndexOutOfRange is returned by BuildMerkleTreeProof when the
// requested leaf index does not exist in the bottom layer.
var ErrLeafIndexOutOfRange = errors.New("leaf index out of range")

// The settlement merkle tree uses one pairing rule everywhere: a parent
// is the hash of its two children concatenated in sorted byte order.
// Sorted pairs make verification commutative, so an inclusion proof is
// just a flat list of sibling hashes with no position bits, which is
// the format on-chain claim verifiers consume.
//
// A layer with an odd element count promotes its last hash unchanged to
// the next layer. No duplication, no padding: promotion adds nothing to
// the proof at that level, and the fold in ValidateMerkleTreeProof
// stays in sync because the promoted hash simply meets its next sibling
// one layer higher.

// HashMerkleBranches combines two child hashes into their parent.
func HashMerkleBranches(left, right *Hash) *Hash {
	var buf [HashSize * 2]byte
	if bytes.Compare(left[:], right[:]) <= 0 {
		copy(buf[:HashSize], left[:])
		copy(buf[HashSize:], right[:])
	} else {
		copy(buf[:HashSize], right[:])
		copy(buf[HashSize:], left[:])
	}

	newHash := HashH(buf[:])
	return &newHash
}

// BuildMerkleTreeLayers builds the complete tree over the ordered
// leaves and returns every layer, bottom first. Layer 0 is a copy of
// the leaves; the last layer holds the single root. The layers are what
// a batch persists so that proofs are generated from the exact tree
// that produced the committed root, never a recomputation.
//
// An empty leaf set yields nil; callers are expected to reject empty
// batches before ever reaching tree construction.
func BuildMerkleTreeLayers(leaves []Hash) [][]Hash {
	if len(leaves) == 0 {
		return nil
	}

	bottom := make([]Hash, len(leaves))
	copy(bottom, leaves)

	layers := [][]Hash{bottom}
	for current := bottom; len(current) > 1; {
		next := make([]Hash, 0, (len(current)+1)/2)
		for i := 0; i+1 < len(current); i += 2 {
			next = append(next, *HashMerkleBranches(&current[i], &current[i+1]))
		}
		if len(current)%2 == 1 {
			// Odd element: promoted unchanged.
			next = append(next, current[len(current)-1])
		}
		layers = append(layers, next)
		current = next
	}

	return layers
}

// MerkleTreeRoot computes the root over the ordered leaves. A single
// leaf is its own root. The result for the same leaves in the same
// order is always byte-identical.
func MerkleTreeRoot(leaves []Hash) Hash {
	layers := BuildMerkleTreeLayers(leaves)
	if layers == nil {
		return ZeroHash
	}
	return layers[len(layers)-1][0]
}

// BuildMerkleTreeProof collects the sibling hashes proving that the
// leaf at leafIndex belongs to the tree described by layers. Levels at
// which the walked node was promoted contribute no sibling.
func BuildMerkleTreeProof(layers [][]Hash, leafIndex uint32) ([]Hash, error) {
	if len(layers) == 0 || uint64(leafIndex) >= uint64(len(layers[0])) {
		return nil, ErrLeafIndexOutOfRange
	}

	proof := make([]Hash, 0, len(layers)-1)
	idx := int(leafIndex)
	for _, layer := range layers[:len(layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}

	return proof, nil
}

// ValidateMerkleTreeProof folds the leaf hash with each sibling in
// order and reports whether the result matches the expected root. It is
// a pure predicate: malformed or mismatching proofs yield false, never
// an error.
func ValidateMerkleTreeProof(leaf Hash, proof []Hash, root Hash) bool {
	computed := leaf
	for i := range proof {
		computed = *HashMerkleBranches(&computed, &proof[i])
	}
	return computed == root
}
