// Package azdo provides read-only Azure DevOps work item inspection.
//
// Only queries are implemented: the generation pipeline owns uploads, this
// tool only answers questions like "what area path did the test cases land
// in". Calls use the REST API directly with PAT basic auth.
package azdo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mwhitford/backlogctl/internal/errors"
)

const (
	endpointName = "Azure DevOps"
	apiVersion   = "7.1"

	// batchSize is the work item batch-get limit imposed by the API.
	batchSize = 200

	maxBodyBytes = 4 << 20
)

// ClientConfig holds the connection settings for one organization.
type ClientConfig struct {
	// OrgURL is the organization URL (e.g. "https://dev.azure.com/acme").
	OrgURL string
	// Project is the project name work items are queried in.
	Project string
	// PAT is a personal access token with work item read scope.
	PAT string
}

// Client queries work items in one Azure DevOps project.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
}

// NewClient creates a read-only Azure DevOps client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.OrgURL == "" {
		return nil, errors.ErrConfigMissing("board.org_url")
	}
	if cfg.Project == "" {
		return nil, errors.ErrConfigMissing("board.project")
	}
	if cfg.PAT == "" {
		return nil, errors.ErrConfigMissing("board.pat")
	}
	cfg.OrgURL = strings.TrimRight(cfg.OrgURL, "/")

	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// fieldList is what we request per work item. Keeping this explicit avoids
// dragging the full field payload across for every diagnostic.
var fieldList = []string{
	"System.Id",
	"System.WorkItemType",
	"System.Title",
	"System.State",
	"System.AreaPath",
	"System.Parent",
}

// QueryWorkItems runs a WIQL query and fetches the matched work items.
func (c *Client) QueryWorkItems(ctx context.Context, wiql string) ([]WorkItem, error) {
	path := fmt.Sprintf("%s/%s/_apis/wit/wiql?api-version=%s",
		c.cfg.OrgURL, url.PathEscape(c.cfg.Project), apiVersion)

	payload, err := json.Marshal(map[string]string{"query": wiql})
	if err != nil {
		return nil, fmt.Errorf("marshal wiql: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var ids []int
	gjson.GetBytes(body, "workItems.#.id").ForEach(func(_, v gjson.Result) bool {
		ids = append(ids, int(v.Int()))
		return true
	})

	return c.getWorkItems(ctx, ids)
}

// getWorkItems fetches work items by ID in API-sized batches.
func (c *Client) getWorkItems(ctx context.Context, ids []int) ([]WorkItem, error) {
	var items []WorkItem
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		idStrs := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			idStrs = append(idStrs, strconv.Itoa(id))
		}

		path := fmt.Sprintf("%s/%s/_apis/wit/workitems?ids=%s&fields=%s&api-version=%s",
			c.cfg.OrgURL, url.PathEscape(c.cfg.Project),
			strings.Join(idStrs, ","), strings.Join(fieldList, ","), apiVersion)

		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		gjson.GetBytes(body, "value").ForEach(func(_, v gjson.Result) bool {
			items = append(items, convertWorkItem(v))
			return true
		})
	}
	return items, nil
}

// ItemsUnderArea returns work items under an area path, optionally filtered
// by work item type (e.g. "Test Case").
func (c *Client) ItemsUnderArea(ctx context.Context, areaPath, itemType string) ([]WorkItem, error) {
	wiql := fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.AreaPath] UNDER '%s'",
		escapeWIQL(areaPath))
	if itemType != "" {
		wiql += fmt.Sprintf(" AND [System.WorkItemType] = '%s'", escapeWIQL(itemType))
	}
	wiql += " ORDER BY [System.Id]"
	return c.QueryWorkItems(ctx, wiql)
}

// Children returns the direct children of a work item.
func (c *Client) Children(ctx context.Context, parentID int) ([]WorkItem, error) {
	wiql := fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.Parent] = %d ORDER BY [System.Id]",
		parentID)
	return c.QueryWorkItems(ctx, wiql)
}

// CheckAuth verifies the PAT can read the configured project.
func (c *Client) CheckAuth(ctx context.Context) error {
	path := fmt.Sprintf("%s/_apis/projects/%s?api-version=%s",
		c.cfg.OrgURL, url.PathEscape(c.cfg.Project), apiVersion)
	_, err := c.do(ctx, http.MethodGet, path, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// PAT auth uses basic auth with an empty username.
	req.SetBasicAuth("", c.cfg.PAT)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.ErrEndpointUnavailable(endpointName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpErr := errors.FromHTTPStatus(endpointName, resp.StatusCode, ""); httpErr != nil {
		return nil, httpErr
	}
	return body, nil
}

// escapeWIQL doubles single quotes inside WIQL string literals.
func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
