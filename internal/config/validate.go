package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.AuthURL == "" {
		return errors.New("api.auth_url is required")
	}
	if c.API.Language != "ru" && c.API.Language != "en" {
		return fmt.Errorf(`api.language must be "ru" or "en", got %q`, c.API.Language)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.RetryBackoff <= 0 {
		return errors.New("api.retry_backoff must be positive")
	}

	if c.Auth.Username != "" && c.Auth.Password == "" {
		return errors.New("auth.password is required when auth.username is set")
	}

	if c.Pagination.HistoryPageSize < 1 {
		return errors.New("pagination.history_page_size must be >= 1")
	}
	if c.Pagination.CollectionPageSize < 1 {
		return errors.New("pagination.collection_page_size must be >= 1")
	}

	return nil
}
