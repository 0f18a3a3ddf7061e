// Package shortuuid converts uuids to and from the 22-character short form.
//
// Standard form: de22bbe0-43bf-448d-9b83-2ee57e663285
// Short form:    hfDoPxAatD8tiFaSAL3oXh
//
// The short form is the uuid number written in base 57, least significant
// digit first.
package shortuuid

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	// ceil(128 * log(2) / log(57))
	ShortLen = 22
)

var (
	ErrInvalidShort = errors.New("invalid uuid short string")

	base     = big.NewInt(int64(len(alphabet)))
	maxUUID  = new(big.Int).Lsh(big.NewInt(1), 128)
	alphaIdx = func() map[byte]int64 {
		m := make(map[byte]int64, len(alphabet))
		for i := 0; i < len(alphabet); i++ {
			m[alphabet[i]] = int64(i)
		}
		return m
	}()
)

// ToShort returns the short string form of u.
func ToShort(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])
	var sb strings.Builder
	sb.Grow(ShortLen)
	digit := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, base, digit)
		sb.WriteByte(alphabet[digit.Int64()])
	}
	for sb.Len() < ShortLen {
		sb.WriteByte(alphabet[0])
	}
	return sb.String()
}

// FromShort parses the short string form.
func FromShort(s string) (uuid.UUID, error) {
	if len(s) != ShortLen {
		return uuid.Nil, fmt.Errorf("%w: '%s' has length %d, expected %d",
			ErrInvalidShort, s, len(s), ShortLen)
	}
	n := new(big.Int)
	for i := len(s) - 1; i >= 0; i-- {
		d, ok := alphaIdx[s[i]]
		if !ok {
			return uuid.Nil, fmt.Errorf("%w: '%s' contains invalid character %q",
				ErrInvalidShort, s, s[i])
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(d))
	}
	if n.Cmp(maxUUID) >= 0 {
		return uuid.Nil, fmt.Errorf("%w: '%s' is out of uuid range", ErrInvalidShort, s)
	}

	var u uuid.UUID
	n.FillBytes(u[:])
	return u, nil
}

// Parse accepts both the standard and the short uuid forms.
func Parse(s string) (uuid.UUID, error) {
	if u, err := uuid.Parse(s); err == nil {
		return u, nil
	}
	return FromShort(s)
}

// New generates a random uuid and returns it in short form.
func New() string {
	return ToShort(uuid.New())
}
