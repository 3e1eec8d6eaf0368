package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alexveeuk/Vepi/types"
)

const (
	// jobStatusInitialDelay is the pause between submission and the first
	// status check.
	jobStatusInitialDelay = 1 * time.Second

	// jobStatusPollInterval is the pause between status checks.
	jobStatusPollInterval = 3 * time.Second

	// noDetails is the failure detail used when the job resource cannot
	// be read back.
	noDetails = "no details available"
)

// jobState tracks where a job is in its lifecycle.
type jobState int

const (
	jobSubmitted jobState = iota
	jobInProgress
	jobCompleted
	jobFailed
)

// nextState maps a reported status onto the job lifecycle. The status
// enumeration is open: anything other than COMPLETED, ERROR, or CANCELLED
// means the job is still being processed.
func nextState(status types.JobStatus) jobState {
	switch {
	case status == types.JobStatusCompleted:
		return jobCompleted
	case status.Failed():
		return jobFailed
	default:
		return jobInProgress
	}
}

// JobError reports an ETL job that reached a terminal failure status.
type JobError struct {
	JobID  string
	Status types.JobStatus
	Detail string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("etl job %s failed with status %s: %s", e.JobID, e.Status, e.Detail)
}

// IsJobError checks if an error is a terminal job failure, and returns it.
func IsJobError(err error) (*JobError, bool) {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr, true
	}

	return nil, false
}

// WaitForJob blocks until the job reaches a terminal status: nil on
// COMPLETED, a *JobError on ERROR or CANCELLED. It waits the initial delay
// before the first check and the poll interval between checks; a non-2xx
// response or transport failure on a status check ends the loop
// immediately. The loop itself never times out, so callers bound it
// through ctx.
func (i *Importer) WaitForJob(ctx context.Context, jobID string) error {
	if err := i.sleep(ctx, jobStatusInitialDelay); err != nil {
		return err
	}

	for {
		// The status endpoint returns the status as a bare JSON string.
		var status types.JobStatus

		if err := i.cfg.Client.Get(ctx, i.cfg.Client.JobStatusURL(jobID), &status); err != nil {
			i.cfg.Logger.Error("etl job status check failed", "job_id", jobID, "error", err)
			return fmt.Errorf("failed to check status of job %s: %w", jobID, err)
		}

		switch nextState(status) {
		case jobCompleted:
			i.cfg.Logger.Info("etl job completed", "job_id", jobID)
			return nil

		case jobFailed:
			detail := i.jobFailureDetail(ctx, jobID)
			i.cfg.Logger.Error("etl job failed",
				"job_id", jobID, "status", string(status), "detail", detail)

			return &JobError{JobID: jobID, Status: status, Detail: detail}

		default:
			i.cfg.Logger.Info("etl job in progress", "job_id", jobID, "status", string(status))
		}

		if err := i.sleep(ctx, jobStatusPollInterval); err != nil {
			return err
		}
	}
}

// jobFailureDetail reads human-readable failure detail from the job
// resource. Best effort: any failure here degrades to a placeholder rather
// than masking the job failure itself.
func (i *Importer) jobFailureDetail(ctx context.Context, jobID string) string {
	body, err := i.cfg.Client.GetBody(ctx, i.cfg.Client.JobDetailURL(jobID))
	if err != nil {
		return noDetails
	}

	var detail struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Error != "" {
			return detail.Error
		}

		if detail.Message != "" {
			return detail.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return noDetails
}

// sleep waits for d on the configured clock, ending early when ctx does.
func (i *Importer) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-i.cfg.Clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
