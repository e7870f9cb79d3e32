package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

// LLMConfiguration is a named LLM inference endpoint used by the
// generation pipeline, tracked here so diagnostics can probe the same
// endpoints the pipeline uses.
type LLMConfiguration struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"` // "ollama" or "openai"
	BaseURL   string    `json:"base_url"`
	Model     string    `json:"model"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const llmColumns = "id, name, provider, base_url, model, is_default, created_at, updated_at"

func scanLLMConfig(scan func(dest ...any) error) (*LLMConfiguration, error) {
	var c LLMConfiguration
	var isDefault int
	var createdAt, updatedAt string
	if err := scan(&c.ID, &c.Name, &c.Provider, &c.BaseURL, &c.Model,
		&isDefault, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.IsDefault = isDefault != 0
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// SaveLLMConfiguration inserts or updates a configuration by name.
func (d *DB) SaveLLMConfiguration(ctx context.Context, c *LLMConfiguration) error {
	if c.Provider == "" {
		c.Provider = "ollama"
	}
	ts := now()

	query := fmt.Sprintf(`
		INSERT INTO llm_configurations (name, provider, base_url, model, is_default, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET
			provider = excluded.provider,
			base_url = excluded.base_url,
			model = excluded.model,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at`,
		d.driver.Placeholder(1), d.driver.Placeholder(2), d.driver.Placeholder(3),
		d.driver.Placeholder(4), d.driver.Placeholder(5), d.driver.Placeholder(6),
		d.driver.Placeholder(7))

	isDefault := 0
	if c.IsDefault {
		isDefault = 1
	}
	if _, err := d.driver.Exec(ctx, query,
		c.Name, c.Provider, c.BaseURL, c.Model, isDefault, ts, ts); err != nil {
		return fmt.Errorf("save llm configuration %q: %w", c.Name, err)
	}
	return nil
}

// GetLLMConfiguration returns the configuration with the given name.
func (d *DB) GetLLMConfiguration(ctx context.Context, name string) (*LLMConfiguration, error) {
	row := d.driver.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM llm_configurations WHERE name = %s", llmColumns, d.driver.Placeholder(1)), name)
	c, err := scanLLMConfig(row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrLLMConfigNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("get llm configuration %q: %w", name, err)
	}
	return c, nil
}

// ListLLMConfigurations returns all configurations ordered by name.
func (d *DB) ListLLMConfigurations(ctx context.Context) ([]*LLMConfiguration, error) {
	rows, err := d.driver.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM llm_configurations ORDER BY name", llmColumns))
	if err != nil {
		return nil, fmt.Errorf("list llm configurations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var configs []*LLMConfiguration
	for rows.Next() {
		c, err := scanLLMConfig(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan llm configuration: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// SetDefaultLLMConfiguration marks one configuration as default,
// clearing the flag from all others in the same transaction.
func (d *DB) SetDefaultLLMConfiguration(ctx context.Context, name string) error {
	tx, err := d.driver.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE llm_configurations SET is_default = 0, updated_at = %s",
			d.driver.Placeholder(1)), now()); err != nil {
		return fmt.Errorf("clear default flags: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE llm_configurations SET is_default = 1, updated_at = %s WHERE name = %s",
			d.driver.Placeholder(1), d.driver.Placeholder(2)), now(), name)
	if err != nil {
		return fmt.Errorf("set default flag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrLLMConfigNotFound(name)
	}

	return tx.Commit()
}

// DefaultLLMConfiguration returns the configuration marked as default,
// or nil when none is marked.
func (d *DB) DefaultLLMConfiguration(ctx context.Context) (*LLMConfiguration, error) {
	row := d.driver.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM llm_configurations WHERE is_default = 1 ORDER BY id LIMIT 1", llmColumns))
	c, err := scanLLMConfig(row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get default llm configuration: %w", err)
	}
	return c, nil
}
