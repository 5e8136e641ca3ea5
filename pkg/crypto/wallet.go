package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrBadChecksum    = errors.New("wallet address checksum mismatch")
)

// ParseWallet parses a 0x-prefixed 20-byte hex address.
// All-lower or all-upper hex is accepted as is; mixed case must carry a valid EIP-55 checksum.
func ParseWallet(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("%w: missing 0x prefix: %q", ErrInvalidAddress, s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("%w: %q", ErrBadChecksum, s)
	}
	return addr, nil
}

// NewWalletAddress derives a fresh random address from a new secp256k1 key.
// The key is discarded; used for demo users only.
func NewWalletAddress() (common.Address, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey), nil
}
