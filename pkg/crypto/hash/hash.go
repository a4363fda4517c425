/*
Package hash contains the hash function used to address trie nodes and values.
*/
package hash

import (
	"crypto/sha256"

	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}
