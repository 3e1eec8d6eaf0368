// Package importer submits tabular data to a Vena ETL template, as inline
// records or as an uploaded CSV file, and tracks the resulting jobs to a
// terminal status.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/Alexveeuk/Vepi/api"
	"github.com/Alexveeuk/Vepi/types"
)

// DefaultFileName is the file name sent when a file submission is not
// given one.
const DefaultFileName = "data.csv"

// Config contains configuration for the Importer.
type Config struct {
	// Client is the Vena API transport.
	Client *api.Client

	// Logger receives job progress diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Clock drives the polling delays. Defaults to the real clock; tests
	// inject a fake one.
	Clock clockwork.Clock
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.Client == nil {
		return errors.New("client is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return nil
}

// Importer submits data sets to the configured ETL template.
type Importer struct {
	cfg Config
}

// New validates cfg and returns an Importer.
func New(cfg Config) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid importer config: %w", err)
	}

	return &Importer{cfg: cfg}, nil
}

// startJobResponse is the submission response; only the job ID matters to
// the client, the rest of the resource is read back through the job URLs.
type startJobResponse struct {
	ID     string          `json:"id"`
	Status types.JobStatus `json:"status"`
}

// startWithDataRequest wraps the rows for the inline submission endpoint.
// Column names are not sent on this path; the template defines them.
type startWithDataRequest struct {
	Input startWithDataInput `json:"input"`
}

type startWithDataInput struct {
	Data [][]any `json:"data"`
}

// SubmitData posts the data set rows to the inline-submission endpoint and
// returns the created job ID. The data set is validated first; rows travel
// as-is, without the column names.
func (i *Importer) SubmitData(ctx context.Context, ds *types.DataSet) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}

	payload := startWithDataRequest{Input: startWithDataInput{Data: ds.Rows}}

	var resp startJobResponse

	if err := i.cfg.Client.Post(ctx, i.cfg.Client.StartWithDataURL(), payload, &resp); err != nil {
		i.cfg.Logger.Error("etl data submission failed", "error", err)
		return "", fmt.Errorf("failed to submit data: %w", err)
	}

	i.cfg.Logger.Info("etl data submitted",
		"job_id", resp.ID, "status", string(resp.Status), "rows", len(ds.Rows))

	return resp.ID, nil
}

// SubmitFile serializes the data set to CSV and uploads it to the
// file-submission endpoint, returning the created job ID. An empty
// filename falls back to DefaultFileName.
func (i *Importer) SubmitFile(ctx context.Context, ds *types.DataSet, filename string) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}

	if filename == "" {
		filename = DefaultFileName
	}

	var resp startJobResponse

	if err := i.cfg.Client.Upload(ctx, i.cfg.Client.StartWithFileURL(), filename, ds.CSVBytes(), &resp); err != nil {
		i.cfg.Logger.Error("etl file submission failed", "file", filename, "error", err)
		return "", fmt.Errorf("failed to submit file: %w", err)
	}

	i.cfg.Logger.Info("etl file submitted",
		"job_id", resp.ID, "status", string(resp.Status), "file", filename, "rows", len(ds.Rows))

	return resp.ID, nil
}

// StartWithData submits the data set inline and blocks until the resulting
// job reaches a terminal status.
func (i *Importer) StartWithData(ctx context.Context, ds *types.DataSet) error {
	jobID, err := i.SubmitData(ctx, ds)
	if err != nil {
		return err
	}

	return i.WaitForJob(ctx, jobID)
}

// StartWithFile submits the data set as an uploaded CSV file and blocks
// until the resulting job reaches a terminal status.
func (i *Importer) StartWithFile(ctx context.Context, ds *types.DataSet, filename string) error {
	jobID, err := i.SubmitFile(ctx, ds, filename)
	if err != nil {
		return err
	}

	return i.WaitForJob(ctx, jobID)
}
