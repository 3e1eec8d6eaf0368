// Package exporter pulls tabular data back out of a Vena model: paginated
// fact intersections and the dimension hierarchy, with an optional S3 sink
// for archived extracts.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alexveeuk/Vepi/api"
	"github.com/Alexveeuk/Vepi/types"
)

// DefaultPageSize is the intersections page size used when the caller does
// not choose one.
const DefaultPageSize = 50000

// Config contains configuration for the Exporter.
type Config struct {
	// Client is the Vena API transport.
	Client *api.Client

	// Logger receives export summaries. Defaults to a discard logger.
	Logger *slog.Logger
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.Client == nil {
		return errors.New("client is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return nil
}

// Exporter reads data sets out of the configured model.
type Exporter struct {
	cfg Config
}

// New validates cfg and returns an Exporter.
func New(cfg Config) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exporter config: %w", err)
	}

	return &Exporter{cfg: cfg}, nil
}

// intersectionsPage is one page of the intersections export. A null or
// absent nextPage leaves NextPage empty and ends the pagination.
type intersectionsPage struct {
	Data     [][]any      `json:"data"`
	Metadata pageMetadata `json:"metadata"`
}

type pageMetadata struct {
	Headers  []string `json:"headers"`
	NextPage string   `json:"nextPage"`
}

// ExportIntersections pages through the model's intersections and returns
// them as one data set. Page sizes of zero or less fall back to
// DefaultPageSize. Requires a configured model and fails before any
// network call without one.
//
// The first row of every page duplicates the headers and is discarded;
// column names come from the last page's metadata. The nextPage URL is
// followed verbatim (the transport reattaches credentials on each
// request). Any failure aborts the export; there is no partial result.
func (e *Exporter) ExportIntersections(ctx context.Context, pageSize int) (*types.DataSet, error) {
	if e.cfg.Client.ModelID() == "" {
		return nil, &api.ConfigError{Field: "model id"}
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	pageURL := fmt.Sprintf("%s?pageSize=%d", e.cfg.Client.IntersectionsURL(), pageSize)

	var (
		rows    [][]any
		columns []string
		pages   int
	)

	for pageURL != "" {
		var page intersectionsPage

		if err := e.cfg.Client.Get(ctx, pageURL, &page); err != nil {
			e.cfg.Logger.Error("intersections export failed", "page", pages+1, "error", err)
			return nil, fmt.Errorf("failed to export intersections: %w", err)
		}

		if len(page.Data) > 0 {
			rows = append(rows, page.Data[1:]...)
		}

		columns = page.Metadata.Headers
		pages++

		pageURL = page.Metadata.NextPage
	}

	e.cfg.Logger.Info("intersections exported", "rows", len(rows), "pages", pages)

	return &types.DataSet{Columns: columns, Rows: rows}, nil
}

// hierarchyResponse wraps the hierarchy listing.
type hierarchyResponse struct {
	Data []types.HierarchyMember `json:"data"`
}

// DimensionHierarchy fetches the model's dimension hierarchy as a flat
// member list. Requires a configured model and fails before any network
// call without one.
func (e *Exporter) DimensionHierarchy(ctx context.Context) ([]types.HierarchyMember, error) {
	if e.cfg.Client.ModelID() == "" {
		return nil, &api.ConfigError{Field: "model id"}
	}

	var resp hierarchyResponse

	if err := e.cfg.Client.Get(ctx, e.cfg.Client.HierarchyURL(), &resp); err != nil {
		e.cfg.Logger.Error("dimension hierarchy retrieval failed", "error", err)
		return nil, fmt.Errorf("failed to get dimension hierarchy: %w", err)
	}

	e.cfg.Logger.Info("dimension hierarchy retrieved",
		"members", len(resp.Data), "dimensions", types.Dimensions(resp.Data))

	return resp.Data, nil
}
