// Package game defines the strategies and payoff parameters of the
// generalized two-strategy game (Prisoner's Dilemma / Snowdrift family).
package game

import (
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/coopnet/internal/network"
)

// ErrInvalidParameter is shared with the network package so callers can
// check a single sentinel for every out-of-domain input.
var ErrInvalidParameter = network.ErrInvalidParameter

// Strategy is a node's behavioral label.
type Strategy uint8

const (
	Cooperate Strategy = iota
	Defect
)

// String returns "C" or "D".
func (s Strategy) String() string {
	switch s {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// MarshalText encodes the strategy as its short label.
func (s Strategy) MarshalText() ([]byte, error) {
	if s != Cooperate && s != Defect {
		return nil, fmt.Errorf("unknown strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a short or long strategy label.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStrategy accepts "C", "D", "cooperate" or "defect" (case-insensitive).
func ParseStrategy(v string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "c", "cooperate":
		return Cooperate, nil
	case "d", "defect":
		return Defect, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidParameter, v)
}

// Params holds the Temptation and Sucker payoffs for one run.
// Reward for mutual cooperation is fixed at 1 and punishment at 0.
type Params struct {
	T float64 `json:"t" yaml:"t"`
	S float64 `json:"s" yaml:"s"`
}

// Validate rejects non-finite payoffs.
func (p Params) Validate() error {
	if !finite(p.T) || !finite(p.S) {
		return fmt.Errorf("%w: payoffs must be finite, got T=%v S=%v", ErrInvalidParameter, p.T, p.S)
	}
	return nil
}

// Payoff returns what a player using self earns against one neighbor using
// other. Only the player's own row of the matrix is counted; nothing is
// credited to the neighbor.
func (p Params) Payoff(self, other Strategy) float64 {
	switch {
	case self == Cooperate && other == Cooperate:
		return 1
	case self == Cooperate && other == Defect:
		return p.S
	case self == Defect && other == Cooperate:
		return p.T
	default:
		return 0
	}
}

func (p Params) String() string {
	return fmt.Sprintf("T=%.4g S=%.4g", p.T, p.S)
}

// Default sweep bounds used by the reference driver.
const (
	DefaultTMin    = 1.0
	DefaultTMax    = 2.0
	DefaultSamples = 10
)

// Sweep returns samples parameter pairs with T evenly spaced over
// [tMin, tMax] (both ends included) and S = 2 - T.
func Sweep(tMin, tMax float64, samples int) ([]Params, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidParameter, samples)
	}
	if !finite(tMin) || !finite(tMax) || tMin > tMax {
		return nil, fmt.Errorf("%w: invalid T range [%v, %v]", ErrInvalidParameter, tMin, tMax)
	}

	out := make([]Params, samples)
	if samples == 1 {
		out[0] = Params{T: tMin, S: 2 - tMin}
		return out, nil
	}
	step := (tMax - tMin) / float64(samples-1)
	for i := range out {
		t := tMin + float64(i)*step
		if i == samples-1 {
			t = tMax
		}
		out[i] = Params{T: t, S: 2 - t}
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
