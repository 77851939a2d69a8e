// Package types contains the read models shared by the service and the API.
package types

import (
	"time"

	"github.com/okian/sect/internal/domain/ingest"
)

// ProfileView summarizes the active profile.
type ProfileView struct {
	Name              string `json:"name"`
	Limit             int    `json:"limit"`
	Size              int    `json:"size"`
	Instruction       string `json:"instruction"`
	CustomInstruction bool   `json:"customInstruction"`
}

// JobState is the lifecycle position of an upload batch.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is the externally visible state of an upload batch.
type Job struct {
	ID         string              `json:"id"`
	Profile    string              `json:"profile"`
	State      JobState            `json:"state"`
	Progress   ingest.Progress     `json:"progress"`
	Items      []ingest.ItemResult `json:"items,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}

// Active reports whether the job is still waiting or running.
func (j Job) Active() bool { return j.State == JobQueued || j.State == JobRunning }

// Clone returns a copy that shares no memory with j.
func (j Job) Clone() Job {
	if j.Items != nil {
		j.Items = append([]ingest.ItemResult(nil), j.Items...)
	}
	if j.FinishedAt != nil {
		at := *j.FinishedAt
		j.FinishedAt = &at
	}
	return j
}
