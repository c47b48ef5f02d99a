package domain

import (
	"strings"

	"github.com/mr-tron/base58"
)

// AddressValidator reports whether an address string is well formed for
// one chain. Validators are pure and carry no state so a single
// instance is shared across goroutines.
type AddressValidator interface {
	Valid(address string) bool
}

// ValidatorFor returns the address validator for a chain. Unknown
// chains get a validator that rejects everything, so candidates for
// unmapped chains never survive a merge.
func ValidatorFor(chain Chain) AddressValidator {
	switch chain {
	case ChainSolana:
		return solanaValidator{}
	case ChainEthereum, ChainBSC, ChainBase:
		return evmValidator{}
	default:
		return rejectValidator{}
	}
}

type solanaValidator struct{}

// Valid accepts base58 strings of 32-44 characters that decode to a
// 32-byte key. EVM-style 0x addresses and path-like identifiers are
// rejected outright even when they happen to be base58-decodable.
func (solanaValidator) Valid(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	if strings.HasPrefix(address, "0x") || strings.ContainsAny(address, "/\\.") {
		return false
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

type evmValidator struct{}

func (evmValidator) Valid(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

type rejectValidator struct{}

func (rejectValidator) Valid(string) bool { return false }
