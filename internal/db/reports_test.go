package db

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/mwhitford/backlogctl/internal/errors"
)

func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	job, err := d.CreateJob(ctx, &Job{Project: "Storefront"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	saved, err := d.SaveReport(ctx, &Report{
		JobID:   job.ID,
		Content: "# Backlog report\n\n12 epics generated.",
		ItemCounts: map[string]int{
			"epics":        12,
			"features":     40,
			"user_stories": 120,
		},
	})
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if saved.Format != "markdown" {
		t.Errorf("Format = %q, want markdown default", saved.Format)
	}

	loaded, err := d.GetReportByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetReportByJob failed: %v", err)
	}
	if loaded.ItemCounts["user_stories"] != 120 {
		t.Errorf("ItemCounts = %v", loaded.ItemCounts)
	}
	if loaded.Content == "" {
		t.Error("expected content")
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestGetReportByJobNotFound(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	_, err := d.GetReportByJob(context.Background(), 42)
	if !stderrors.Is(err, errors.ErrReportNotFound("42")) {
		t.Errorf("expected REPORT_NOT_FOUND, got %v", err)
	}
}

func TestJobsMissingReports(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	withReport, err := d.CreateJob(ctx, &Job{Project: "with-report"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	withoutReport, err := d.CreateJob(ctx, &Job{Project: "without-report"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	stillRunning, err := d.CreateJob(ctx, &Job{Project: "running"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	for _, id := range []int64{withReport.ID, withoutReport.ID} {
		if err := d.UpdateJobStatus(ctx, id, JobStatusCompleted, ""); err != nil {
			t.Fatalf("UpdateJobStatus failed: %v", err)
		}
	}
	if err := d.UpdateJobStatus(ctx, stillRunning.ID, JobStatusRunning, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	if _, err := d.SaveReport(ctx, &Report{JobID: withReport.ID, Content: "ok"}); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	missing, err := d.JobsMissingReports(ctx)
	if err != nil {
		t.Fatalf("JobsMissingReports failed: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("len(missing) = %d, want 1", len(missing))
	}
	if missing[0].ID != withoutReport.ID {
		t.Errorf("missing[0].ID = %d, want %d", missing[0].ID, withoutReport.ID)
	}
}

func TestReportCascadeDelete(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	job, err := d.CreateJob(ctx, &Job{Project: "p"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if _, err := d.SaveReport(ctx, &Report{JobID: job.ID, Content: "r"}); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	if _, err := d.driver.Exec(ctx, "DELETE FROM backlog_jobs WHERE id = ?", job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	if _, err := d.GetReportByJob(ctx, job.ID); err == nil {
		t.Error("expected report to be cascade-deleted with its job")
	}
}
