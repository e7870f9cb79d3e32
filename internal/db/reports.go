package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

// Report is the generation summary persisted for a completed job:
// the rendered report body plus per-level item counts.
type Report struct {
	ID         int64          `json:"id"`
	JobID      int64          `json:"job_id"`
	Format     string         `json:"format"`
	Content    string         `json:"content"`
	ItemCounts map[string]int `json:"item_counts"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SaveReport inserts a report for a job.
func (d *DB) SaveReport(ctx context.Context, r *Report) (*Report, error) {
	if r.Format == "" {
		r.Format = "markdown"
	}
	counts := r.ItemCounts
	if counts == nil {
		counts = map[string]int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return nil, fmt.Errorf("marshal item counts: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO backlog_reports (job_id, format, content, item_counts, created_at)
		VALUES (%s, %s, %s, %s, %s)
		RETURNING id`,
		d.driver.Placeholder(1), d.driver.Placeholder(2), d.driver.Placeholder(3),
		d.driver.Placeholder(4), d.driver.Placeholder(5))

	var id int64
	row := d.driver.QueryRow(ctx, query, r.JobID, r.Format, r.Content, string(countsJSON), now())
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return d.getReport(ctx, "id", id)
}

// GetReportByJob returns the most recent report for a job.
func (d *DB) GetReportByJob(ctx context.Context, jobID int64) (*Report, error) {
	return d.getReport(ctx, "job_id", jobID)
}

func (d *DB) getReport(ctx context.Context, column string, id int64) (*Report, error) {
	query := fmt.Sprintf(`
		SELECT id, job_id, format, content, item_counts, created_at
		FROM backlog_reports WHERE %s = %s ORDER BY id DESC`,
		column, d.driver.Placeholder(1))

	var r Report
	var countsJSON, createdAt string
	row := d.driver.QueryRow(ctx, query, id)
	err := row.Scan(&r.ID, &r.JobID, &r.Format, &r.Content, &countsJSON, &createdAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrReportNotFound(strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("get report by %s %d: %w", column, id, err)
	}

	if err := json.Unmarshal([]byte(countsJSON), &r.ItemCounts); err != nil {
		return nil, fmt.Errorf("parse item counts for report %d: %w", r.ID, err)
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

// JobsMissingReports returns completed jobs that never persisted a report.
// This is the "why did job 24 produce no report" query.
func (d *DB) JobsMissingReports(ctx context.Context) ([]*Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM backlog_jobs j
		WHERE j.status = '%s'
		  AND NOT EXISTS (SELECT 1 FROM backlog_reports r WHERE r.job_id = j.id)
		ORDER BY j.id DESC`,
		prefixedJobColumns("j"), JobStatusCompleted)

	rows, err := d.driver.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list jobs missing reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// prefixedJobColumns qualifies the job column list with a table alias.
func prefixedJobColumns(alias string) string {
	return alias + ".id, " + alias + ".remote_id, " + alias + ".project, " +
		alias + ".status, " + alias + ".submitter, " + alias + ".error_message, " +
		alias + ".created_at, " + alias + ".updated_at"
}
