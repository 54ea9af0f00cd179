package sim

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of a simulator address.
const AddressLength = 20

// Address is an opaque identifier for an account or contract. Addresses compare
// by value. They are derived deterministically from a per-simulator allocation
// counter, so repeated test runs produce identical identities.
type Address [AddressLength]byte

// deriveAddress computes the address of the id-th account allocated by a
// simulator instance. The counter is hashed so addresses stay opaque and
// uniformly distributed while remaining reproducible.
func deriveAddress(id uint64) Address {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], id)
	digest := sha3.Sum256(seed[:])

	// Take the trailing bytes of the digest as the address body.
	var address Address
	copy(address[:], digest[len(digest)-AddressLength:])
	return address
}

// HexToAddress parses a 0x-prefixed hex string into an Address. The input must
// decode to exactly AddressLength bytes.
func HexToAddress(s string) (Address, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, errors.WithStack(err)
	}
	if len(decoded) != AddressLength {
		return Address{}, errors.Errorf("address hex must decode to %d bytes, got %d", AddressLength, len(decoded))
	}
	var address Address
	copy(address[:], decoded)
	return address, nil
}

// Hex returns the address as a 0x-prefixed hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}
