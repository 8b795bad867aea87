package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the bech32 human-readable part of an address.
type AddressPrefix string

const (
	RicksPrefix  AddressPrefix = "rks"
	ModulePrefix AddressPrefix = "rksmod"
)

// AddressLength is the size of every account address in bytes.
const AddressLength = 20

var (
	ErrAddressLength = errors.New("crypto: address must be 20 bytes")
	ErrUnknownPrefix = errors.New("crypto: unknown address prefix")
)

// Address is a 20-byte account identifier rendered as bech32.
type Address struct {
	prefix AddressPrefix
	raw    [AddressLength]byte
}

// NewAddress copies b into an address with the given prefix.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("%w: got %d", ErrAddressLength, len(b))
	}
	addr := Address{prefix: prefix}
	copy(addr.raw[:], b)
	return addr, nil
}

// FromRaw wraps the fixed-size form used by the native modules.
func FromRaw(raw [AddressLength]byte) Address {
	return Address{prefix: RicksPrefix, raw: raw}
}

// ModuleAddress derives the account owned by a native module. The same name
// always yields the same address.
func ModuleAddress(name string) Address {
	hash := ethcrypto.Keccak256([]byte("ricks/module/" + name))
	addr := Address{prefix: ModulePrefix}
	copy(addr.raw[:], hash[len(hash)-AddressLength:])
	return addr
}

// DecodeAddress parses a bech32 address carrying one of the known prefixes.
func DecodeAddress(encoded string) (Address, error) {
	hrp, data, err := bech32.Decode(strings.TrimSpace(encoded))
	if err != nil {
		return Address{}, fmt.Errorf("crypto: decode address: %w", err)
	}
	prefix := AddressPrefix(hrp)
	if prefix != RicksPrefix && prefix != ModulePrefix {
		return Address{}, fmt.Errorf("%w %q", ErrUnknownPrefix, hrp)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: decode address: %w", err)
	}
	return NewAddress(prefix, payload)
}

func (a Address) String() string {
	if a.prefix == "" {
		return ""
	}
	data, err := bech32.ConvertBits(a.raw[:], 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(string(a.prefix), data)
	if err != nil {
		return ""
	}
	return encoded
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a.raw[:])
	return out
}

// Raw returns the fixed-size representation of the address.
func (a Address) Raw() [AddressLength]byte { return a.raw }

func (a Address) Prefix() AddressPrefix { return a.prefix }

// IsZero reports whether every byte of the address is zero.
func (a Address) IsZero() bool { return a.raw == [AddressLength]byte{} }
