package domain

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// User is the identity behind a wallet address.
type User struct {
	ID        string
	Address   string
	CreatedAt time.Time
}

// NewUser returns a user for the given wallet address.
func NewUser(address string, now time.Time) (*User, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:        uuid.New().String(),
		Address:   addr,
		CreatedAt: now,
	}, nil
}

// NormalizeAddress validates a 0x-prefixed hex wallet address and returns it
// lower-cased.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", ErrInvalidAddress
	}
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// IsValidTxHash returns whether the given string is a 0x-prefixed 32-byte
// hex transaction hash.
func IsValidTxHash(hash string) bool {
	buf, err := hexutil.Decode(hash)
	if err != nil {
		return false
	}
	return len(buf) == common.HashLength
}
