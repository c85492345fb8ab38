package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerContext(t *testing.T) {
	s := NewSignerContext(common.HexToAddress("0x01"), big.NewInt(1337), nil, 7)

	require.NoError(t, s.Acquire())
	assert.ErrorIs(t, s.Acquire(), ErrSignerInUse)

	assert.Equal(t, uint64(7), s.Nonce())
	s.Advance()
	s.Advance()
	assert.Equal(t, uint64(9), s.Nonce())

	s.Release()
	require.NoError(t, s.Acquire())
	assert.Equal(t, uint64(9), s.Nonce(), "nonce survives a release")
}
