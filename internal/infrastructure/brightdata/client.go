// Package brightdata implements the scrape-provider contract against the
// BrightData datasets API: trigger a collection job, poll its progress,
// and download the finished snapshot as NDJSON.
package brightdata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reviewpulse/internal/config"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/ports"
)

// Client talks to the BrightData datasets API.
type Client struct {
	token         string
	baseURL       string
	googleTrigger string
	yelpTrigger   string
	httpClient    *http.Client
}

var _ ports.ScraperService = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.BrightDataConfig) *Client {
	return &Client{
		token:         cfg.Token,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		googleTrigger: cfg.GoogleTriggerURL,
		yelpTrigger:   cfg.YelpTriggerURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitJob triggers a provider collection and returns its snapshot id.
func (c *Client) SubmitJob(ctx context.Context, job ports.ScrapeJob) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("brightdata client misconfigured")
	}

	endpoint, input, err := c.triggerInput(job)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{"input": []map[string]any{input}})
	if err != nil {
		return "", fmt.Errorf("marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("trigger job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("brightdata trigger %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var reply struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode trigger response: %w", err)
	}
	if reply.SnapshotID == "" {
		return "", fmt.Errorf("brightdata trigger returned no snapshot id")
	}
	return reply.SnapshotID, nil
}

func (c *Client) triggerInput(job ports.ScrapeJob) (string, map[string]any, error) {
	switch job.Source {
	case domain.SourceGoogle:
		days := job.DaysLimit
		if days <= 0 {
			days = 9
		}
		return c.googleTrigger, map[string]any{
			"url":        job.TargetURL,
			"days_limit": days,
		}, nil
	case domain.SourceYelp:
		if job.StartDate == "" || job.EndDate == "" {
			return "", nil, fmt.Errorf("yelp job requires start and end dates")
		}
		return c.yelpTrigger, map[string]any{
			"url":                   job.TargetURL,
			"unrecommended_reviews": false,
			"start_date":            job.StartDate,
			"end_date":              job.EndDate,
			"sort_by":               "DATE_DESC",
		}, nil
	default:
		return "", nil, fmt.Errorf("unsupported scrape source %q", job.Source)
	}
}

// CheckStatus polls the progress endpoint for one snapshot.
func (c *Client) CheckStatus(ctx context.Context, snapshotID string) (domain.SnapshotStatus, error) {
	var reply struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, c.baseURL+"/progress/"+snapshotID, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&reply)
	}); err != nil {
		return "", err
	}

	switch reply.Status {
	case "ready":
		return domain.SnapshotReady, nil
	case "running", "building", "collecting":
		return domain.SnapshotRunning, nil
	case "failed":
		return domain.SnapshotFailed, nil
	case "queued", "scheduled":
		return domain.SnapshotQueued, nil
	default:
		return "", fmt.Errorf("unknown provider status %q for snapshot %s", reply.Status, snapshotID)
	}
}

// FetchDataset downloads and parses the snapshot's NDJSON body. Lines
// that fail to parse are dropped rather than failing the whole pull.
func (c *Client) FetchDataset(ctx context.Context, snapshotID string) ([]map[string]any, error) {
	var records []map[string]any
	err := c.get(ctx, c.baseURL+"/snapshot/"+snapshotID, func(body io.Reader) error {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var record map[string]any
			if err := json.Unmarshal([]byte(line), &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, endpoint string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("brightdata error %s", resp.Status)
	}
	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
