package cron

import (
	"context"
	"sort"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order, unique by name.
type Registry struct {
	jobs []Job
	slot map[string]int
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{slot: map[string]int{}}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds job; re-registering a name replaces the job in place.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if i, ok := r.slot[job.Name()]; ok {
		r.jobs[i] = job
		return
	}
	r.slot[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Job(name string) (Job, bool) {
	i, ok := r.slot[name]
	if !ok {
		return nil, false
	}
	return r.jobs[i], true
}

// Names is sorted, for usage output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.slot))
	for name := range r.slot {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
