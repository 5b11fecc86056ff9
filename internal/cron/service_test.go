package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	held     bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}
	if lock.acquired {
		t.Fatalf("lock was not released")
	}
	count, err := testutil.GatherAndCount(reg, "venueops_cron_job_runs_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected an ok and an error series, got %d", count)
	}
}

func TestServiceRunOnceSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran without the lock")
	}
	count, err := testutil.GatherAndCount(reg, "venueops_cron_cycles_skipped_locked_total")
	if err != nil || count != 1 {
		t.Fatalf("expected the skip to be counted, count=%d err=%v", count, err)
	}
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestServiceRunJobByName(t *testing.T) {
	reminders := &testJob{name: "shift-reminders"}
	other := &testJob{name: "other"}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(reminders, other)})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunJob(context.Background(), "shift-reminders"); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if reminders.runs != 1 || other.runs != 0 {
		t.Fatalf("expected only the named job to run, got %d/%d", reminders.runs, other.runs)
	}
	if err := service.RunJob(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}
