// Package backup exports saved sweeps to portable archive files and imports
// them into another result store.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/store"
	"github.com/nvandessel/coopnet/internal/sweep"
)

// Archive is the JSON payload of an archive file.
type Archive struct {
	CreatedAt time.Time       `json:"created_at"`
	Sweeps    []ArchivedSweep `json:"sweeps"`
}

// ArchivedSweep is one saved sweep with the topology needed to rebuild it.
type ArchivedSweep struct {
	ID              string         `json:"id"`
	Label           string         `json:"label,omitempty"`
	EdgeProbability float64        `json:"edge_probability"`
	Nodes           int            `json:"nodes"`
	Edges           []network.Edge `json:"edges"`
	Report          *sweep.Report  `json:"report"`
}

func (a *Archive) runCount() int {
	n := 0
	for _, sw := range a.Sweeps {
		if sw.Report != nil {
			n += len(sw.Report.Runs)
		}
	}
	return n
}

// Export writes the sweeps named by ids (every saved sweep when ids is
// empty) to path. IDs may be unique prefixes.
func Export(ctx context.Context, rs store.ResultStore, ids []string, path string) (*Header, error) {
	if len(ids) == 0 {
		summaries, err := rs.ListSweeps(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sweeps: %w", err)
		}
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
	}

	archive := &Archive{CreatedAt: time.Now().UTC()}
	for _, id := range ids {
		sw, err := rs.LoadSweep(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load sweep %s: %w", id, err)
		}
		archive.Sweeps = append(archive.Sweeps, ArchivedSweep{
			ID:              sw.ID,
			Label:           sw.Label,
			EdgeProbability: sw.EdgeProbability,
			Nodes:           sw.Network.NodeCount(),
			Edges:           sw.Network.Edges(),
			Report:          sw.Report,
		})
	}

	return Write(path, archive)
}

// ImportResult reports what Import stored.
type ImportResult struct {
	// IDs maps each archived sweep ID to the ID it was saved under.
	IDs map[string]string `json:"ids"`
}

// Import saves every sweep in the archive at path into rs. Sweeps get new
// IDs; all of them are validated before any is saved.
func Import(ctx context.Context, rs store.ResultStore, path string) (*ImportResult, error) {
	_, archive, err := Read(path)
	if err != nil {
		return nil, err
	}

	nets := make([]*network.Network, len(archive.Sweeps))
	for i, sw := range archive.Sweeps {
		if sw.Report == nil {
			return nil, fmt.Errorf("archived sweep %s has no report", sw.ID)
		}
		net, err := network.New(sw.Nodes, sw.Edges)
		if err != nil {
			return nil, fmt.Errorf("archived sweep %s: %w", sw.ID, err)
		}
		if net.NodeCount() != sw.Report.Nodes {
			return nil, fmt.Errorf("archived sweep %s: network has %d nodes, report %d", sw.ID, net.NodeCount(), sw.Report.Nodes)
		}
		nets[i] = net
	}

	result := &ImportResult{IDs: make(map[string]string, len(archive.Sweeps))}
	for i, sw := range archive.Sweeps {
		id, err := rs.SaveSweep(ctx, nets[i], sw.Report, store.Meta{
			EdgeProbability: sw.EdgeProbability,
			Label:           sw.Label,
		})
		if err != nil {
			return result, fmt.Errorf("failed to save sweep %s: %w", sw.ID, err)
		}
		result.IDs[sw.ID] = id
	}
	return result, nil
}
