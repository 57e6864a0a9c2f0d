package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kolrails/internal/campaign"
)

const (
	headerAPIKey = "x-api-key"
	headerSource = "source"
)

// RegistrySource fetches the campaign id set from the external registry API
// and pushes status updates back to it after settlement.
type RegistrySource struct {
	baseURL   string
	apiKey    string
	sourceTag string
	client    *http.Client
}

type RegistryConfig struct {
	BaseURL   string
	APIKey    string
	SourceTag string
	Timeout   time.Duration
}

func NewRegistrySource(cfg RegistryConfig) (*RegistrySource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("registry api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RegistrySource{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		sourceTag: cfg.SourceTag,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type campaignListResponse struct {
	Result []campaign.ID `json:"result"`
}

func (s *RegistrySource) CampaignIDs(ctx context.Context) ([]campaign.ID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/get-all-campaigns", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	s.auth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: registry returned %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed campaignListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if parsed.Result == nil {
		return nil, fmt.Errorf("%w: response missing result field", ErrUnavailable)
	}
	return parsed.Result, nil
}

type statusUpdateRequest struct {
	CampaignID campaign.ID `json:"campaign_id"`
	Status     string      `json:"status"`
}

// NotifyStatus reports a settled campaign back to the registry. Best-effort
// from the orchestrator's point of view; the contract remains authoritative.
func (s *RegistrySource) NotifyStatus(ctx context.Context, id campaign.ID, status campaign.Status) error {
	body, err := json.Marshal(statusUpdateRequest{CampaignID: id, Status: status.String()})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/update-campaign", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post status update: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registry rejected status update: %d", resp.StatusCode)
	}
	return nil
}

func (s *RegistrySource) auth(req *http.Request) {
	req.Header.Set(headerAPIKey, s.apiKey)
	if s.sourceTag != "" {
		req.Header.Set(headerSource, s.sourceTag)
	}
}
