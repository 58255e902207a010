package ecdsa

import (
	"fmt"
	"math"
	"math/big"
)

// Kind selects the recovery id convention of the payload being signed.
type Kind int

const (
	// KindMessage is used for personal messages and typed data: v = 27 + raw.
	KindMessage Kind = iota
	// KindLegacy is a legacy transaction without replay protection: v = 27 + raw.
	KindLegacy
	// KindEIP155 is a legacy transaction bound to a chain: v = 2·chainID + 35 + raw.
	KindEIP155
	// KindDynamicFee is an EIP-1559 transaction, v is the raw id.
	KindDynamicFee
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindLegacy:
		return "legacy"
	case KindEIP155:
		return "eip155"
	case KindDynamicFee:
		return "eip1559"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// chainOffset returns 2·chainID + 35, checking that chainOffset+1 fits in a uint64.
func chainOffset(chainID *big.Int) (uint64, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return 0, fmt.Errorf("%w: eip155 requires a positive chain id", ErrInvalidRecoveryID)
	}
	if !chainID.IsUint64() || chainID.Uint64() > (math.MaxUint64-36)/2 {
		return 0, fmt.Errorf("%w: chain id %s too large", ErrInvalidRecoveryID, chainID)
	}
	return 2*chainID.Uint64() + 35, nil
}

// RawRecoveryID extracts the raw recovery id {0, 1} from v.
//
// v may already be a raw id, the 27/28 form, or under KindEIP155 the chain bound form.
func RawRecoveryID(v uint64, kind Kind, chainID *big.Int) (uint64, error) {
	switch {
	case v <= 1:
		return v, nil
	case v == 27 || v == 28:
		return v - 27, nil
	}
	if kind == KindEIP155 {
		offset, err := chainOffset(chainID)
		if err != nil {
			return 0, err
		}
		if v == offset || v == offset+1 {
			return v - offset, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidRecoveryID, v)
}

// Normalize applies the convention of kind to the recovery id v.
//
// Applying Normalize twice with the same kind and chain id gives the same result.
// chainID is only read for KindEIP155.
func Normalize(v uint64, kind Kind, chainID *big.Int) (uint64, error) {
	raw, err := RawRecoveryID(v, kind, chainID)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindMessage, KindLegacy:
		return raw + 27, nil
	case KindEIP155:
		offset, err := chainOffset(chainID)
		if err != nil {
			return 0, err
		}
		return offset + raw, nil
	case KindDynamicFee:
		return raw, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %s", ErrInvalidRecoveryID, kind)
	}
}
