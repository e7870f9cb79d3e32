package config

import (
	"os"
	"strconv"
)

// EnvVarMapping defines the environment variables recognized at load time
// and the config fields they set.
var EnvVarMapping = map[string]string{
	"BACKLOGCTL_LOG_FILE":      "log_file",
	"BACKLOGCTL_DB_DRIVER":     "database.driver",
	"BACKLOGCTL_DB_PATH":       "database.path",
	"BACKLOGCTL_DB_HOST":       "database.postgres.host",
	"BACKLOGCTL_DB_PORT":       "database.postgres.port",
	"BACKLOGCTL_DB_USER":       "database.postgres.user",
	"BACKLOGCTL_DB_PASSWORD":   "database.postgres.password",
	"BACKLOGCTL_DB_NAME":       "database.postgres.database",
	"BACKLOGCTL_DB_SSL_MODE":   "database.postgres.ssl_mode",
	"BACKLOGCTL_API_URL":       "api.base_url",
	"BACKLOGCTL_API_USERNAME":  "api.username",
	"BACKLOGCTL_API_TIMEOUT":   "api.timeout_seconds",
	"BACKLOGCTL_POLL_INTERVAL": "api.poll_interval_seconds",
	"BACKLOGCTL_POLL_TIMEOUT":  "api.poll_timeout_seconds",
	"BACKLOGCTL_BOARD_ORG_URL": "board.org_url",
	"BACKLOGCTL_BOARD_PROJECT": "board.project",
	"BACKLOGCTL_BOARD_PAT":     "board.pat",
	"BACKLOGCTL_LLM_URL":       "llm.base_url",
	"BACKLOGCTL_LLM_MODEL":     "llm.model",
	"BACKLOGCTL_LLM_TIMEOUT":   "llm.timeout_seconds",
	"BACKLOGCTL_WEBHOOK_URL":   "webhook.url",
	"BACKLOGCTL_LIMITS_PRESET": "limits.preset",
}

// ApplyEnvVars overrides tc with any set BACKLOGCTL_* variables.
// Unparseable numeric values are ignored.
func ApplyEnvVars(tc *TrackedConfig) {
	cfg := tc.Config
	for env, field := range EnvVarMapping {
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}

		switch field {
		case "log_file":
			cfg.LogFile = val
		case "database.driver":
			cfg.Database.Driver = val
		case "database.path":
			cfg.Database.Path = val
		case "database.postgres.host":
			cfg.Database.Postgres.Host = val
		case "database.postgres.port":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.Database.Postgres.Port = n
			} else {
				continue
			}
		case "database.postgres.user":
			cfg.Database.Postgres.User = val
		case "database.postgres.password":
			cfg.Database.Postgres.Password = val
		case "database.postgres.database":
			cfg.Database.Postgres.Database = val
		case "database.postgres.ssl_mode":
			cfg.Database.Postgres.SSLMode = val
		case "api.base_url":
			cfg.API.BaseURL = val
		case "api.username":
			cfg.API.Username = val
		case "api.timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.API.TimeoutSeconds = n
			} else {
				continue
			}
		case "api.poll_interval_seconds":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.API.PollIntervalSeconds = n
			} else {
				continue
			}
		case "api.poll_timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.API.PollTimeoutSeconds = n
			} else {
				continue
			}
		case "board.org_url":
			cfg.Board.OrgURL = val
		case "board.project":
			cfg.Board.Project = val
		case "board.pat":
			cfg.Board.PAT = val
		case "llm.base_url":
			cfg.LLM.BaseURL = val
		case "llm.model":
			cfg.LLM.Model = val
		case "llm.timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.LLM.TimeoutSeconds = n
			} else {
				continue
			}
		case "webhook.url":
			cfg.Webhook.URL = val
		case "limits.preset":
			cfg.Limits.Preset = val
		}

		tc.SetSource(field, SourceEnv)
	}
}
