package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

// Job statuses. Queued and running are live; the rest are terminal.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Job is one tracked run of the backlog generation pipeline.
type Job struct {
	ID           int64     `json:"id"`
	RemoteID     string    `json:"remote_id"` // identifier assigned by the backlog API
	Project      string    `json:"project"`
	Status       string    `json:"status"`
	Submitter    string    `json:"submitter"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Terminal reports whether the job can no longer change status.
func (j *Job) Terminal() bool {
	return TerminalStatus(j.Status)
}

// TerminalStatus reports whether a status string is terminal.
func TerminalStatus(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

const jobColumns = "id, remote_id, project, status, submitter, error_message, created_at, updated_at"

func scanJob(scan func(dest ...any) error) (*Job, error) {
	var j Job
	var createdAt, updatedAt string
	if err := scan(&j.ID, &j.RemoteID, &j.Project, &j.Status, &j.Submitter,
		&j.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

// CreateJob inserts a new job and returns it with its assigned ID.
func (d *DB) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	if job.Status == "" {
		job.Status = JobStatusQueued
	}
	ts := now()

	// RETURNING works on both dialects and avoids LastInsertId, which the
	// pgx stdlib driver does not implement.
	query := fmt.Sprintf(`
		INSERT INTO backlog_jobs (remote_id, project, status, submitter, error_message, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		RETURNING id`,
		d.driver.Placeholder(1), d.driver.Placeholder(2), d.driver.Placeholder(3),
		d.driver.Placeholder(4), d.driver.Placeholder(5), d.driver.Placeholder(6),
		d.driver.Placeholder(7))

	var id int64
	row := d.driver.QueryRow(ctx, query,
		job.RemoteID, job.Project, job.Status, job.Submitter, job.ErrorMessage, ts, ts)
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return d.GetJob(ctx, id)
}

// GetJob returns the job with the given local ID.
func (d *DB) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := d.driver.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM backlog_jobs WHERE id = %s", jobColumns, d.driver.Placeholder(1)), id)
	job, err := scanJob(row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrJobNotFound(strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// GetJobByRemoteID returns the job tracked under the given API identifier.
func (d *DB) GetJobByRemoteID(ctx context.Context, remoteID string) (*Job, error) {
	row := d.driver.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM backlog_jobs WHERE remote_id = %s ORDER BY id DESC",
		jobColumns, d.driver.Placeholder(1)), remoteID)
	job, err := scanJob(row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrJobNotFound(remoteID)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", remoteID, err)
	}
	return job, nil
}

// ListJobs returns jobs newest-first, optionally filtered by status.
// A limit of 0 means no limit.
func (d *DB) ListJobs(ctx context.Context, status string, limit int) ([]*Job, error) {
	query := fmt.Sprintf("SELECT %s FROM backlog_jobs", jobColumns)
	var args []any
	if status != "" {
		query += fmt.Sprintf(" WHERE status = %s", d.driver.Placeholder(1))
		args = append(args, status)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.driver.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
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

// UpdateJobStatus sets a job's status and error message, touching updated_at.
func (d *DB) UpdateJobStatus(ctx context.Context, id int64, status, errorMessage string) error {
	query := fmt.Sprintf(
		"UPDATE backlog_jobs SET status = %s, error_message = %s, updated_at = %s WHERE id = %s",
		d.driver.Placeholder(1), d.driver.Placeholder(2), d.driver.Placeholder(3), d.driver.Placeholder(4))

	res, err := d.driver.Exec(ctx, query, status, errorMessage, now(), id)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrJobNotFound(strconv.FormatInt(id, 10))
	}
	return nil
}

// SetJobRemoteID records the API identifier assigned to a submitted job.
func (d *DB) SetJobRemoteID(ctx context.Context, id int64, remoteID string) error {
	query := fmt.Sprintf(
		"UPDATE backlog_jobs SET remote_id = %s, updated_at = %s WHERE id = %s",
		d.driver.Placeholder(1), d.driver.Placeholder(2), d.driver.Placeholder(3))

	res, err := d.driver.Exec(ctx, query, remoteID, now(), id)
	if err != nil {
		return fmt.Errorf("set job %d remote id: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrJobNotFound(strconv.FormatInt(id, 10))
	}
	return nil
}

// OrphanedJobs returns live jobs whose last update is older than the cutoff.
// These are jobs the pipeline likely abandoned without recording a result.
func (d *DB) OrphanedJobs(ctx context.Context, olderThan time.Duration) ([]*Job, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	query := fmt.Sprintf(`
		SELECT %s FROM backlog_jobs
		WHERE status IN ('%s', '%s') AND updated_at < %s
		ORDER BY updated_at ASC`,
		jobColumns, JobStatusQueued, JobStatusRunning, d.driver.Placeholder(1))

	rows, err := d.driver.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list orphaned jobs: %w", err)
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
