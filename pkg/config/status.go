package config

import (
	"fmt"
	"net/url"
	"strings"
)

// StatusConfig holds settings for the HTTP status client.
type StatusConfig struct {
	// BaseURL is the unit's API root, e.g. "http://192.168.4.1/api/v1".
	BaseURL string `mapstructure:"base_url"`
	// TimeoutMS bounds each request.
	TimeoutMS int `mapstructure:"timeout_ms"`
}

func (s *StatusConfig) validate() error {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.BaseURL == "" {
		return fmt.Errorf("status.base_url is required")
	}
	if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
		return fmt.Errorf("invalid status.base_url: %w", err)
	}
	if s.TimeoutMS <= 0 {
		s.TimeoutMS = 5000
	}
	return nil
}
