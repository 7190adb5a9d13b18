// Package projectdata integrates the external solar project catalog that
// holds client contact details per installed project.
package projectdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/config"
)

// ProjectData is the subset of catalog fields the ticket workflow needs.
type ProjectData struct {
	ClientEmail string `json:"client_email"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
}

// Provider resolves project contact data by project id.
type Provider interface {
	GetProjectData(ctx context.Context, projectID string) (*ProjectData, error)
}

// OpenSolarProvider queries the OpenSolar API with a redis read-through
// cache. Contact data changes rarely, so cached entries live for hours.
type OpenSolarProvider struct {
	cfg    config.OpenSolarConfig
	client *http.Client
	cache  *redis.Client
	logger *zap.Logger
}

// NewOpenSolarProvider builds the provider. cache may be nil.
func NewOpenSolarProvider(cfg config.OpenSolarConfig, cache *redis.Client, logger *zap.Logger) *OpenSolarProvider {
	return &OpenSolarProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
		logger: logger,
	}
}

// GetProjectData looks up the cached entry first, then the API.
func (p *OpenSolarProvider) GetProjectData(ctx context.Context, projectID string) (*ProjectData, error) {
	cacheKey := "opensolar:project:" + projectID

	if p.cache != nil {
		if raw, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
			var data ProjectData
			if err := json.Unmarshal([]byte(raw), &data); err == nil {
				return &data, nil
			}
		}
	}

	data, err := p.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			ttl := time.Duration(p.cfg.CacheTTLHours) * time.Hour
			if err := p.cache.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
				p.logger.Warn("project data cache write failed", zap.Error(err))
			}
		}
	}
	return data, nil
}

func (p *OpenSolarProvider) fetch(ctx context.Context, projectID string) (*ProjectData, error) {
	url := fmt.Sprintf("%s/api/orgs/%s/projects/%s/", p.cfg.BaseURL, p.cfg.OrgID, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opensolar project %s: status %d", projectID, resp.StatusCode)
	}

	var payload struct {
		Contacts []struct {
			Email string `json:"email"`
			Name  string `json:"display"`
			Phone string `json:"phone"`
		} `json:"contacts_data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	data := &ProjectData{}
	if len(payload.Contacts) > 0 {
		data.ClientEmail = payload.Contacts[0].Email
		data.ClientName = payload.Contacts[0].Name
		data.ClientPhone = payload.Contacts[0].Phone
	}
	return data, nil
}
