package cron

import (
	"context"
	"reflect"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	reminders := &stubJob{name: "shift-reminders"}
	cleanup := &stubJob{name: "attachment-cleanup"}
	registry := NewRegistry(reminders, nil, cleanup)

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != reminders || jobs[1] != cleanup {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
	if got := registry.Names(); !reflect.DeepEqual(got, []string{"attachment-cleanup", "shift-reminders"}) {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestRegistryReplacesInPlace(t *testing.T) {
	first := &stubJob{name: "shift-reminders"}
	registry := NewRegistry(first, &stubJob{name: "other"})

	if job, ok := registry.Job("shift-reminders"); !ok || job != first {
		t.Fatal("expected lookup to return the registered job")
	}
	if _, ok := registry.Job("missing"); ok {
		t.Fatal("unexpected job for unknown name")
	}

	replacement := &stubJob{name: "shift-reminders"}
	registry.Register(replacement)
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != replacement {
		t.Fatal("expected replacement to keep the original slot")
	}
}
