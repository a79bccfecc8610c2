package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// OTPGenerator produces fixed-width numeric one-time codes.
type OTPGenerator struct {
	digits int
	ttl    time.Duration
	now    func() time.Time
}

// NewOTPGenerator returns a generator of digits-long codes valid for ttl.
func NewOTPGenerator(digits int, ttl time.Duration) *OTPGenerator {
	return &OTPGenerator{digits: digits, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the generator that reads time from now.
func (g *OTPGenerator) WithClock(now func() time.Time) *OTPGenerator {
	cp := *g
	cp.now = now
	return &cp
}

// Generate returns a zero-padded code drawn uniformly from crypto/rand and
// its absolute expiry.
func (g *OTPGenerator) Generate() (string, time.Time, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%0*d", g.digits, n.Int64()), g.now().Add(g.ttl), nil
}

// OTPMatches compares a submitted code with the stored one in constant time
// and checks that now is not past expiry.
func OTPMatches(stored *string, expiry *time.Time, submitted string, now time.Time) bool {
	if stored == nil || expiry == nil || submitted == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) != 1 {
		return false
	}
	return !now.After(*expiry)
}
