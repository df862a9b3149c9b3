package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "https://iss.moex.com/iss/"
	DefaultAuthURL            = "https://passport.moex.com/authenticate"
	DefaultLanguage           = "ru"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBackoff       = 1 * time.Second
	DefaultHistoryPageSize    = 100
	DefaultCollectionPageSize = 20
)

func (c *ClientConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.AuthURL == "" {
		c.API.AuthURL = DefaultAuthURL
	}
	if c.API.Language == "" {
		c.API.Language = DefaultLanguage
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Pagination defaults
	if c.Pagination.HistoryPageSize == 0 {
		c.Pagination.HistoryPageSize = DefaultHistoryPageSize
	}
	if c.Pagination.CollectionPageSize == 0 {
		c.Pagination.CollectionPageSize = DefaultCollectionPageSize
	}
}
