package service

import (
	"sync"

	"github.com/okian/sect/internal/domain/types"
)

// Job is the externally visible state of an upload batch.
type Job = types.Job

// Job states.
const (
	JobQueued  = types.JobQueued
	JobRunning = types.JobRunning
	JobDone    = types.JobDone
	JobFailed  = types.JobFailed
)

const defaultJobRetention = 50

// jobRegistry tracks jobs by id, dropping the oldest finished ones past retain.
type jobRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*Job
	order  []string
	retain int
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{byID: make(map[string]*Job), retain: defaultJobRetention}
}

func (r *jobRegistry) add(j Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[j.ID] = &j
	r.order = append(r.order, j.ID)
	r.pruneLocked()
}

func (r *jobRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *jobRegistry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.byID[id]; ok {
		fn(j)
	}
	r.pruneLocked()
}

func (r *jobRegistry) get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.byID[id]
	if !ok {
		return Job{}, false
	}
	return j.Clone(), true
}

// list returns jobs newest first.
func (r *jobRegistry) list() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.byID[r.order[i]].Clone())
	}
	return out
}

func (r *jobRegistry) busy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.byID {
		if j.Active() {
			return true
		}
	}
	return false
}

func (r *jobRegistry) pruneLocked() {
	finished := 0
	for _, id := range r.order {
		if !r.byID[id].Active() {
			finished++
		}
	}
	for i := 0; finished > r.retain && i < len(r.order); {
		id := r.order[i]
		if r.byID[id].Active() {
			i++
			continue
		}
		delete(r.byID, id)
		r.order = append(r.order[:i], r.order[i+1:]...)
		finished--
	}
}
