package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/dto"
)

const (
	currentMatchesPath  = "/v1/currentMatches"
	upcomingMatchesPath = "/v1/matches"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// GetCurrentMatches returns the provider's live/recent snapshot. One call
// unit against the daily quota.
func (c *Client) GetCurrentMatches(ctx context.Context) (dto.Envelope, error) {
	return c.getMatches(ctx, currentMatchesPath)
}

// GetUpcomingMatches returns the scheduled-match list. One call unit.
func (c *Client) GetUpcomingMatches(ctx context.Context) (dto.Envelope, error) {
	return c.getMatches(ctx, upcomingMatchesPath)
}

func (c *Client) getMatches(ctx context.Context, path string) (dto.Envelope, error) {
	endpoint, err := c.buildURL(path)
	if err != nil {
		return dto.Envelope{}, fmt.Errorf("build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return dto.Envelope{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dto.Envelope{}, err
		}
		return dto.Envelope{}, fmt.Errorf("%w: do request: %v", derr.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return dto.Envelope{}, fmt.Errorf("%w: unexpected status: %s", derr.ErrProviderUnavailable, resp.Status)
		}
		return dto.Envelope{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var envelope dto.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return dto.Envelope{}, fmt.Errorf("decode response: %w", err)
	}

	if envelope.Status != "success" {
		return dto.Envelope{}, fmt.Errorf("%w: provider status %q", derr.ErrProviderUnavailable, envelope.Status)
	}

	return envelope, nil
}

func (c *Client) buildURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u.Path, err = url.JoinPath(u.Path, path)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("offset", "0")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
