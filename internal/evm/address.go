// Package evm validates and normalizes EVM contract addresses.
package evm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"banjocap/internal/domain"
)

// addressPattern requires the 0x prefix; common.IsHexAddress alone also accepts bare hex.
var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether s is 0x followed by exactly 40 hex characters.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s) && common.IsHexAddress(s)
}

// NormalizeAddress validates s and returns its EIP-55 checksum form.
// Surrounding whitespace is ignored. Invalid input wraps domain.ErrInvalidAddress.
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsValidAddress(s) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
