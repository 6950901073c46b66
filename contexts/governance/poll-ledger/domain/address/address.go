// Package address derives deterministic account addresses from typed seed
// tuples. Any party can compute where an account must live before it exists,
// which is what makes create-if-absent the double-vote and duplicate-name
// guard: at most one account can ever occupy a derived address.
package address

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Namespace tags. One per account kind; changing a tag changes every address
// in that namespace.
const (
	NamespacePoll      = "poll"
	NamespaceCandidate = "candidate"
	NamespaceReceipt   = "receipt"
)

// Size is the address length in bytes (SHA-256 output).
const Size = sha256.Size

// Address identifies exactly one account in the ledger.
type Address [Size]byte

var ErrInvalidAddress = errors.New("invalid address encoding")

// Derive hashes the namespace tag and each seed part into an Address.
// Every element is length-prefixed so that ("ab","c") and ("a","bc") can
// never produce the same digest.
func Derive(namespace string, parts ...[]byte) Address {
	h := sha256.New()
	writeLengthPrefixed(h, []byte(namespace))
	for _, part := range parts {
		writeLengthPrefixed(h, part)
	}
	var addr Address
	h.Sum(addr[:0])
	return addr
}

// ForPoll derives the poll account address for a caller-chosen poll ID.
func ForPoll(pollID uint64) Address {
	return Derive(NamespacePoll, Uint64Seed(pollID))
}

// ForCandidate derives the candidate account address. The candidate name is
// part of the seed tuple, so names are unique per poll by construction.
func ForCandidate(pollID uint64, name string) Address {
	return Derive(NamespaceCandidate, Uint64Seed(pollID), []byte(name))
}

// ForReceipt derives the voter receipt address for a (poll, voter) pair.
func ForReceipt(pollID uint64, voter string) Address {
	return Derive(NamespaceReceipt, Uint64Seed(pollID), []byte(voter))
}

// Uint64Seed encodes an integer seed as 8 little-endian bytes.
func Uint64Seed(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero value, which no
// derivation can produce.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Parse decodes the hex form produced by String.
func Parse(s string) (Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != Size {
		return Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, Size, len(raw))
	}
	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

func writeLengthPrefixed(h interface{ Write([]byte) (int, error) }, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	_, _ = h.Write(length[:])
	_, _ = h.Write(data)
}
