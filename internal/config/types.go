package config

import "time"

// ClientConfig is the full configuration of the query tool and the ISS
// client underneath it.
type ClientConfig struct {
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Pagination PaginationConfig `yaml:"pagination"`
}

// APIConfig configures the ISS transport.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	AuthURL      string        `yaml:"auth_url"`
	Language     string        `yaml:"language"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// AuthConfig holds optional MoEx Passport credentials. Usually set through
// ${VAR} substitution rather than literally.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PaginationConfig sets the page sizes for the paginated endpoints.
type PaginationConfig struct {
	HistoryPageSize    int `yaml:"history_page_size"`
	CollectionPageSize int `yaml:"collection_page_size"`
}
