package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CryptoDrawer draws ballots from crypto/rand
type CryptoDrawer struct{}

// Draw returns a uniformly random index in [0, n)
func (CryptoDrawer) Draw(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("cannot draw among %d ballots", n)
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to draw ballot: %w", err)
	}
	return int(idx.Int64()), nil
}
