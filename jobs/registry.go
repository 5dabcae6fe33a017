package jobs

import (
	"sort"
	"sync"
)

// Registry is the set of tracked jobs keyed by poll reference. It is safe
// for concurrent use.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Add inserts job. It returns false if a job with the same PollRef is
// already tracked.
func (r *Registry) Add(job Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.PollRef]; ok {
		return false
	}
	j := job
	r.jobs[job.PollRef] = &j
	return true
}

// Get returns a copy of the job tracked under pollRef.
func (r *Registry) Get(pollRef string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[pollRef]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Snapshot returns copies of all tracked jobs, oldest first.
func (r *Registry) Snapshot() []Job {
	r.mu.Lock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].PollRef < out[b].PollRef
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out
}

// Remove deletes the given jobs and returns how many were tracked.
func (r *Registry) Remove(pollRefs ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ref := range pollRefs {
		if _, ok := r.jobs[ref]; ok {
			delete(r.jobs, ref)
			n++
		}
	}
	return n
}

// RecordPoll counts a successful poll and clears the failure streak.
func (r *Registry) RecordPoll(pollRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[pollRef]; ok {
		j.Rounds++
		j.ConsecutiveFailures = 0
	}
}

// RecordFailure counts a failed poll and returns the current streak.
func (r *Registry) RecordFailure(pollRef string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[pollRef]
	if !ok {
		return 0
	}
	j.Rounds++
	j.ConsecutiveFailures++
	return j.ConsecutiveFailures
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// IsEmpty reports whether no job is tracked.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}
