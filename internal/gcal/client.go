package gcal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNotAuthenticated means no usable OAuth token has been stored yet
var ErrNotAuthenticated = errors.New("google calendar is not connected")

// Client wraps the Google Calendar API client
type Client struct {
	mu      sync.RWMutex
	service *calendar.Service
	config  *oauth2.Config
	tokens  TokenStore
	logger  *zap.Logger
}

// NewClient creates a Google Calendar client. A missing or unusable token is
// not an error; the client stays unauthenticated until ExchangeCode succeeds.
func NewClient(ctx context.Context, credentialsFile, baseURL string, tokens TokenStore, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config, err := loadOAuthConfig(credentialsFile, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	client := &Client{
		config: config,
		tokens: tokens,
		logger: logger,
	}

	token, err := tokens.LoadToken(ctx)
	switch {
	case err != nil:
		logger.Warn("could not load stored calendar token", zap.Error(err))
	case token == nil:
		logger.Info("google calendar not connected yet")
	default:
		if err := client.initService(ctx, token); err != nil {
			logger.Warn("could not initialize calendar service with stored token", zap.Error(err))
		}
	}

	return client, nil
}

// NewClientWithService wraps an already configured service
func NewClientWithService(service *calendar.Service, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{service: service, logger: logger}
}

// IsAuthenticated returns true if the client is authenticated
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service != nil
}

// AuthURL returns the OAuth consent URL. state is echoed back to the callback.
func (c *Client) AuthURL(state string) (string, error) {
	if c.config == nil {
		return "", fmt.Errorf("oauth is not configured")
	}
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ExchangeCode exchanges an authorization code for a token and saves it
func (c *Client) ExchangeCode(ctx context.Context, code string) error {
	if c.config == nil {
		return fmt.Errorf("oauth is not configured")
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := c.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return c.initService(ctx, token)
}

// initService builds the Calendar service. Refreshed tokens are written back to the store.
func (c *Client) initService(ctx context.Context, token *oauth2.Token) error {
	if !token.Valid() && token.RefreshToken == "" {
		return fmt.Errorf("token expired and has no refresh token")
	}

	base := oauth2.ReuseTokenSource(token, c.config.TokenSource(context.Background(), token))
	source := newSavingTokenSource(base, c.tokens, token, c.logger)

	service, err := calendar.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	c.mu.Lock()
	c.service = service
	c.mu.Unlock()
	return nil
}

func (c *Client) calendarService() (*calendar.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.service == nil {
		return nil, ErrNotAuthenticated
	}
	return c.service, nil
}
