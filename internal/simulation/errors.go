package simulation

import (
	"errors"
	"fmt"

	"github.com/nvandessel/coopnet/internal/network"
)

// ErrInvalidParameter is the shared sentinel for out-of-domain inputs.
var ErrInvalidParameter = network.ErrInvalidParameter

// ErrEmptyNeighborhood is matched by every EmptyNeighborhoodError.
var ErrEmptyNeighborhood = errors.New("empty neighborhood")

// EmptyNeighborhoodError reports a strategy update attempted on a node that
// has no neighbor to imitate.
type EmptyNeighborhoodError struct {
	Node int
}

func (e *EmptyNeighborhoodError) Error() string {
	return fmt.Sprintf("node %d has no neighbors to imitate", e.Node)
}

// Is reports whether target is ErrEmptyNeighborhood.
func (e *EmptyNeighborhoodError) Is(target error) bool {
	return target == ErrEmptyNeighborhood
}
