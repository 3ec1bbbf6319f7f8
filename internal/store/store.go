package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/sweep"
)

// ErrNotFound is returned when no saved sweep matches an ID or prefix.
var ErrNotFound = errors.New("sweep not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one sweep.
var ErrAmbiguousID = errors.New("ambiguous sweep id")

// Meta carries sweep settings that are not part of the report itself.
type Meta struct {
	EdgeProbability float64 `json:"edge_probability"`
	Label           string  `json:"label,omitempty"`
}

// SweepSummary is one row of a sweep listing.
type SweepSummary struct {
	ID              string        `json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	Label           string        `json:"label,omitempty"`
	Nodes           int           `json:"nodes"`
	EdgeProbability float64       `json:"edge_probability"`
	Steps           int           `json:"steps"`
	Seed            uint64        `json:"seed"`
	Policy          string        `json:"policy"`
	Runs            int           `json:"runs"`
	Failed          int           `json:"failed"`
	Duration        time.Duration `json:"duration"`
}

// StoredSweep is a saved sweep with its network and full report.
type StoredSweep struct {
	SweepSummary
	Network *network.Network `json:"-"`
	Report  *sweep.Report    `json:"report"`
}

// ResultStore persists sweeps.
type ResultStore interface {
	// SaveSweep stores the network and report and returns the new sweep ID.
	SaveSweep(ctx context.Context, net *network.Network, report *sweep.Report, meta Meta) (string, error)

	// ListSweeps returns all saved sweeps, newest first.
	ListSweeps(ctx context.Context) ([]SweepSummary, error)

	// LoadSweep returns the sweep whose ID equals or uniquely starts with idOrPrefix.
	LoadSweep(ctx context.Context, idOrPrefix string) (*StoredSweep, error)

	// DeleteSweep removes a sweep and everything recorded for it.
	DeleteSweep(ctx context.Context, idOrPrefix string) error

	Close() error
}

// resolveID picks the single candidate matching idOrPrefix.
func resolveID(idOrPrefix string, candidates []string) (string, error) {
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	var matches []string
	for _, id := range candidates {
		if id == idOrPrefix {
			return id, nil
		}
		if strings.HasPrefix(id, idOrPrefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d sweeps", ErrAmbiguousID, idOrPrefix, len(matches))
	}
}

func summarize(id string, createdAt time.Time, report *sweep.Report, meta Meta) SweepSummary {
	return SweepSummary{
		ID:              id,
		CreatedAt:       createdAt,
		Label:           meta.Label,
		Nodes:           report.Nodes,
		EdgeProbability: meta.EdgeProbability,
		Steps:           report.Steps,
		Seed:            report.Seed,
		Policy:          report.Policy,
		Runs:            len(report.Runs),
		Failed:          report.Failures(),
		Duration:        report.Duration,
	}
}
