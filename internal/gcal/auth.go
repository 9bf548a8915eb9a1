package gcal

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	defaultBaseURL = "http://localhost:3000"
	callbackPath   = "/oauth/callback"
)

// OAuthScopes only needs event write access
var OAuthScopes = []string{
	calendar.CalendarEventsScope,
}

// callbackURL returns the OAuth redirect URL served by this process
func callbackURL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + callbackPath
}

// loadOAuthConfig loads OAuth2 configuration from the environment or a credentials file
func loadOAuthConfig(credentialsFile, baseURL string) (*oauth2.Config, error) {
	// Try environment variable first (useful for container deployments)
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credJSON != "" {
		config, err := google.ConfigFromJSON([]byte(credJSON), OAuthScopes...)
		if err == nil {
			config.RedirectURL = callbackURL(baseURL)
			return config, nil
		}
	}

	if credentialsFile != "" {
		if config, err := loadConfigFromFile(credentialsFile, baseURL); err == nil {
			return config, nil
		}
	}

	if config, err := loadConfigFromFile("./credentials.json", baseURL); err == nil {
		return config, nil
	}

	return nil, fmt.Errorf("no credentials file found - please provide credentials.json or set GOOGLE_CREDENTIALS_JSON env var")
}

func loadConfigFromFile(path, baseURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := google.ConfigFromJSON(data, OAuthScopes...)
	if err != nil {
		return nil, err
	}

	config.RedirectURL = callbackURL(baseURL)
	return config, nil
}
