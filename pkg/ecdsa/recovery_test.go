package ecdsa

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Golden(t *testing.T) {
	chain := big.NewInt(5)
	cases := []struct {
		kind Kind
		raw  uint64
		want uint64
	}{
		{KindEIP155, 0, 45},
		{KindEIP155, 1, 46},
		{KindMessage, 0, 27},
		{KindMessage, 1, 28},
		{KindLegacy, 0, 27},
		{KindLegacy, 1, 28},
		{KindDynamicFee, 0, 0},
		{KindDynamicFee, 1, 1},
	}
	for _, c := range cases {
		got, err := Normalize(c.raw, c.kind, chain)
		require.NoError(t, err, c.kind)
		assert.Equal(t, c.want, got, "%s raw %d", c.kind, c.raw)
	}

	mainnet, err := Normalize(1, KindEIP155, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(38), mainnet)
}

func TestNormalize_Idempotent(t *testing.T) {
	chain := big.NewInt(5)
	for _, kind := range []Kind{KindMessage, KindLegacy, KindEIP155, KindDynamicFee} {
		for raw := uint64(0); raw <= 1; raw++ {
			once, err := Normalize(raw, kind, chain)
			require.NoError(t, err)
			twice, err := Normalize(once, kind, chain)
			require.NoError(t, err)
			assert.Equal(t, once, twice, kind)

			back, err := RawRecoveryID(once, kind, chain)
			require.NoError(t, err)
			assert.Equal(t, raw, back)
		}
	}
}

func TestNormalize_KindsDiffer(t *testing.T) {
	chain := big.NewInt(5)
	for raw := uint64(0); raw <= 1; raw++ {
		legacy, err := Normalize(raw, KindEIP155, chain)
		require.NoError(t, err)
		typed, err := Normalize(raw, KindDynamicFee, chain)
		require.NoError(t, err)
		message, err := Normalize(raw, KindMessage, chain)
		require.NoError(t, err)
		assert.NotEqual(t, legacy, typed)
		assert.NotEqual(t, legacy, message)
		assert.NotEqual(t, typed, message)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize(2, KindMessage, nil)
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	_, err = Normalize(0, KindEIP155, nil)
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	_, err = Normalize(0, KindEIP155, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	_, err = Normalize(0, KindEIP155, new(big.Int).SetUint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	_, err = Normalize(0, Kind(42), nil)
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	// a chain bound v is only understood with its chain
	_, err = Normalize(45, KindDynamicFee, big.NewInt(5))
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
	_, err = Normalize(45, KindEIP155, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidRecoveryID)
}
