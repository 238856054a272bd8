package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// DefaultTokenPrefix starts every daily token.
const DefaultTokenPrefix = "F1"

// NewDailyToken builds prefix + DD + MM + a random two-digit suffix.
func NewDailyToken(prefix string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", fmt.Errorf("token suffix: %w", err)
	}
	return fmt.Sprintf("%s%02d%02d%02d", prefix, now.Day(), int(now.Month()), n.Int64()), nil
}
