// Package domain defines core data structures used throughout the simulator.
package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pair cryptocurrency trading pair.
type Pair struct {
	// From base currency symbol.
	From string
	// To quote currency symbol.
	To string
}

// ParsePair parses "BTC/USDT" or "BTC_USDT" into a Pair.
func ParsePair(s string) (Pair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	sep := "/"
	if !strings.Contains(s, sep) {
		sep = "_"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, errors.Wrapf(ErrInvalidPair, "%q", s)
	}
	return Pair{From: parts[0], To: parts[1]}, nil
}

// MustParsePair is ParsePair for literals known to be valid.
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the display form, e.g. BTC/USDT.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation used by exchange APIs.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}

// Key returns a filesystem and key-safe form, e.g. BTC_USDT.
func (p Pair) Key() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// IsZero reports whether the pair is unset.
func (p Pair) IsZero() bool {
	return p.From == "" && p.To == ""
}

// MarshalText implements encoding.TextMarshaler.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pair) UnmarshalText(b []byte) error {
	parsed, err := ParsePair(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
