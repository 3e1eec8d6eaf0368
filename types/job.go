package types

// JobStatus is the status string reported by the ETL job endpoint. The
// enumeration is open: the service reports transient states such as
// "RUNNING" or "QUEUED" that the client treats as still in progress; only
// the values below end the job lifecycle.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusError     JobStatus = "ERROR"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusCancelled:
		return true
	}

	return false
}

// Failed reports whether the status is a terminal failure.
func (s JobStatus) Failed() bool {
	return s == JobStatusError || s == JobStatusCancelled
}
