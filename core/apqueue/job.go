package apqueue

import (
	"encoding/json"
	"fmt"
)

// Job types processed by the engine worker.
const (
	JobTypeExecuteWorkflow = "workflow:run"
)

// jobStatus Enum Type
type jobStatus uint8

const (
	// jobPending : waiting to be processed
	jobPending jobStatus = iota
	// jobInProgress : processing in progress
	jobInProgress
	// jobComplete : processing complete
	jobComplete
	// jobFailed : processing errored out
	jobFailed
)

func (s jobStatus) HumanReadable() string {
	switch s {
	case jobPending:
		return "pending"
	case jobInProgress:
		return "in-progress"
	case jobComplete:
		return "complete"
	case jobFailed:
		return "failed"
	}
	return "unknown"
}

type Job struct {
	// Type selects the registered processor.
	Type string `json:"type"`

	// Name is the external reference (for workflow jobs, the workflow id)
	// so orphan checks do not need to decode Data.
	Name string `json:"name"`

	// Owner partitions the external reference.
	Owner string `json:"owner,omitempty"`

	Data []byte `json:"data,omitempty"`

	// ID is assigned from the queue sequence and is unique for the life of
	// the database.
	ID uint64 `json:"id"`
}

func encodeJob(j *Job) ([]byte, error) {
	return json.Marshal(j)
}

func decodeJob(b []byte) (*Job, error) {
	j := &Job{}
	err := json.Unmarshal(b, j)
	return j, err
}

func jobIDString(id uint64) string {
	return fmt.Sprintf("%020d", id)
}
