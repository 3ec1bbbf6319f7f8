package simulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/nvandessel/coopnet/internal/network"
)

// IsolatedPolicy decides what UpdateStrategies does with a node that has no
// neighbors.
type IsolatedPolicy int

const (
	// IsolatedError aborts the update with an EmptyNeighborhoodError.
	IsolatedError IsolatedPolicy = iota
	// IsolatedKeep leaves the isolated node's strategy unchanged.
	IsolatedKeep
)

func (p IsolatedPolicy) String() string {
	switch p {
	case IsolatedError:
		return "error"
	case IsolatedKeep:
		return "keep"
	default:
		return fmt.Sprintf("IsolatedPolicy(%d)", int(p))
	}
}

// ParseIsolatedPolicy maps "error" (or "") and "keep" to a policy.
func ParseIsolatedPolicy(s string) (IsolatedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return IsolatedError, nil
	case "keep":
		return IsolatedKeep, nil
	}
	return 0, fmt.Errorf("%w: unknown isolated policy %q (valid: error, keep)", ErrInvalidParameter, s)
}

// UpdateStrategies applies one round of imitation. Each node, in id order,
// samples one neighbor uniformly at random and adopts that neighbor's
// strategy if its payoff is strictly greater. All decisions read the
// strategies and payoffs as they stood when the round began; the new
// assignment is committed only after every node has decided.
//
// With IsolatedError, a node without neighbors aborts the round and the
// state is left as it was.
func UpdateStrategies(net *network.Network, st *State, rng *rand.Rand, policy IsolatedPolicy) error {
	copy(st.next, st.Strategies)

	for n := range st.Strategies {
		nbrs := net.Neighbors(n)
		if len(nbrs) == 0 {
			if policy == IsolatedKeep {
				continue
			}
			return &EmptyNeighborhoodError{Node: n}
		}
		m := nbrs[rng.IntN(len(nbrs))]
		if st.Payoffs[m] > st.Payoffs[n] {
			st.next[n] = st.Strategies[m]
		}
	}

	st.Strategies, st.next = st.next, st.Strategies
	return nil
}
