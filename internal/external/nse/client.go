package nse

import (
	"context"
	"fmt"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/pkg/config"
	"github.com/wonny/qmomentum/pkg/httputil"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Client fetches index membership pages
// ⭐ SSOT: 지수 구성종목 페이지 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       map[string]string // selector → page URL
}

// NewClient creates a constituents client from config
func NewClient(httpClient *httputil.Client, cfg config.ConstituentsConfig, log *logger.Logger) *Client {
	urls := make(map[string]string, 2)
	if cfg.Nifty50URL != "" {
		urls[s1_universe.SelectorNifty50] = cfg.Nifty50URL
	}
	if cfg.Nifty500URL != "" {
		urls[s1_universe.SelectorNifty500] = cfg.Nifty500URL
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.WithStage("nse"),
		urls:       urls,
	}
}

// Constituents implements s1_universe.ConstituentSource
func (c *Client) Constituents(ctx context.Context, selector string) ([]contracts.Constituent, error) {
	url, ok := c.urls[selector]
	if !ok {
		return nil, fmt.Errorf("no constituents page configured for %q", selector)
	}

	body, err := c.httpClient.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s constituents: %w", selector, err)
	}

	members, err := ParseConstituents(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s constituents: %w", selector, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"selector": selector,
		"count":    len(members),
	}).Debug("Fetched index constituents")
	return members, nil
}
