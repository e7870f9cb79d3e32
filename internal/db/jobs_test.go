package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

func TestCreateAndGetJob(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	created, err := d.CreateJob(ctx, &Job{Project: "Storefront", Submitter: "ops"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if created.Status != JobStatusQueued {
		t.Errorf("Status = %q, want %q", created.Status, JobStatusQueued)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	loaded, err := d.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if loaded.Project != "Storefront" || loaded.Submitter != "ops" {
		t.Errorf("loaded job = %+v", loaded)
	}
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	_, err := d.GetJob(context.Background(), 9999)
	if !stderrors.Is(err, errors.ErrJobNotFound("9999")) {
		t.Errorf("expected JOB_NOT_FOUND, got %v", err)
	}
}

func TestGetJobByRemoteID(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	created, err := d.CreateJob(ctx, &Job{Project: "Storefront"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := d.SetJobRemoteID(ctx, created.ID, "8400dd1f-4a51-4c11-bf5d-95f24c0a0b11"); err != nil {
		t.Fatalf("SetJobRemoteID failed: %v", err)
	}

	loaded, err := d.GetJobByRemoteID(ctx, "8400dd1f-4a51-4c11-bf5d-95f24c0a0b11")
	if err != nil {
		t.Fatalf("GetJobByRemoteID failed: %v", err)
	}
	if loaded.ID != created.ID {
		t.Errorf("ID = %d, want %d", loaded.ID, created.ID)
	}

	if _, err := d.GetJobByRemoteID(ctx, "missing"); err == nil {
		t.Error("expected error for unknown remote id")
	}
}

func TestListJobsFilterAndLimit(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		job, err := d.CreateJob(ctx, &Job{Project: fmt.Sprintf("p%d", i)})
		if err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		if i%2 == 0 {
			if err := d.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, ""); err != nil {
				t.Fatalf("UpdateJobStatus failed: %v", err)
			}
		}
	}

	all, err := d.ListJobs(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5", len(all))
	}
	// Newest first
	if all[0].ID < all[1].ID {
		t.Error("expected newest-first ordering")
	}

	completed, err := d.ListJobs(ctx, JobStatusCompleted, 0)
	if err != nil {
		t.Fatalf("ListJobs(completed) failed: %v", err)
	}
	if len(completed) != 3 {
		t.Errorf("len(completed) = %d, want 3", len(completed))
	}

	limited, err := d.ListJobs(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListJobs(limit) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}

func TestUpdateJobStatus(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	job, err := d.CreateJob(ctx, &Job{Project: "p"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if err := d.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "LLM endpoint refused connection"); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	loaded, err := d.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if loaded.Status != JobStatusFailed {
		t.Errorf("Status = %q, want failed", loaded.Status)
	}
	if loaded.ErrorMessage != "LLM endpoint refused connection" {
		t.Errorf("ErrorMessage = %q", loaded.ErrorMessage)
	}
	if !loaded.Terminal() {
		t.Error("failed job should be terminal")
	}

	if err := d.UpdateJobStatus(ctx, 9999, JobStatusFailed, ""); err == nil {
		t.Error("expected error updating unknown job")
	}
}

func TestTerminalStatus(t *testing.T) {
	t.Parallel()
	terminal := []string{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	live := []string{JobStatusQueued, JobStatusRunning, "", "unknown"}

	for _, s := range terminal {
		if !TerminalStatus(s) {
			t.Errorf("TerminalStatus(%q) = false, want true", s)
		}
	}
	for _, s := range live {
		if TerminalStatus(s) {
			t.Errorf("TerminalStatus(%q) = true, want false", s)
		}
	}
}

func TestOrphanedJobs(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	stale, err := d.CreateJob(ctx, &Job{Project: "stale"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	// Backdate the stale job's updated_at past the cutoff.
	old := time.Now().UTC().Add(-2 * time.Hour).Format(timeLayout)
	if _, err := d.driver.Exec(ctx,
		"UPDATE backlog_jobs SET status = ?, updated_at = ? WHERE id = ?",
		JobStatusRunning, old, stale.ID); err != nil {
		t.Fatalf("backdate job: %v", err)
	}

	if _, err := d.CreateJob(ctx, &Job{Project: "fresh"}); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	done, err := d.CreateJob(ctx, &Job{Project: "done"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if _, err := d.driver.Exec(ctx,
		"UPDATE backlog_jobs SET status = ?, updated_at = ? WHERE id = ?",
		JobStatusCompleted, old, done.ID); err != nil {
		t.Fatalf("backdate job: %v", err)
	}

	orphans, err := d.OrphanedJobs(ctx, time.Hour)
	if err != nil {
		t.Fatalf("OrphanedJobs failed: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("len(orphans) = %d, want 1", len(orphans))
	}
	if orphans[0].ID != stale.ID {
		t.Errorf("orphan ID = %d, want %d", orphans[0].ID, stale.ID)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	versions, err := d.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("versions = %v, want [1 2]", versions)
	}
}
