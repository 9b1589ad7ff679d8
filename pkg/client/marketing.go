package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"clinicops/pkg/model"
)

const tenantHeader = "X-Tenant-ID"

// MarketingClient is a typed client for the marketing service, used by
// sibling services that need channel or metrics data.
type MarketingClient struct {
	http *HttpClient
}

func NewMarketingClient(baseURL string) *MarketingClient {
	return &MarketingClient{http: NewHttpClient(baseURL)}
}

func (c *MarketingClient) tenantHeaders(tenantID int64) map[string]string {
	return map[string]string{tenantHeader: strconv.FormatInt(tenantID, 10)}
}

func (c *MarketingClient) ListChannels(tenantID int64) ([]*model.Channel, error) {
	resp, err := c.http.GET("/api/v1/marketing/channels", c.tenantHeaders(tenantID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list channels failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Data []*model.Channel `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode channel list: %w", err)
	}
	return payload.Data, nil
}

func (c *MarketingClient) GetMetrics(tenantID int64, query url.Values) (map[string]any, error) {
	path := "/api/v1/marketing/metrics"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.http.GET(path, c.tenantHeaders(tenantID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get metrics failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return payload.Data, nil
}
