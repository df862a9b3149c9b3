package iss

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"
)

const (
	// DefaultBaseURL is the production ISS endpoint.
	DefaultBaseURL = "https://iss.moex.com/iss/"

	// DefaultAuthURL is the MoEx Passport authentication endpoint.
	DefaultAuthURL = "https://passport.moex.com/authenticate"

	// authCertCookie is the cookie holding the authentication certificate.
	authCertCookie = "MicexPassportCert"
)

// ErrUnsupportedLanguage is returned for any language except "ru" and "en".
var ErrUnsupportedLanguage = errors.New(`unsupported language: available languages are "ru" and "en"`)

// Client provides access to the MoEx ISS REST API.
type Client struct {
	baseURL string
	authURL string

	httpClient *http.Client
	logger     *slog.Logger

	lang     string
	metadata bool

	maxRetries   int
	retryBackoff time.Duration

	historyPageSize    int
	collectionPageSize int

	counter atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new ISS API client.
func NewClient(baseURL, authURL string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: baseURL,
		authURL: authURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger:             slog.Default(),
		lang:               "ru",
		maxRetries:         3,
		retryBackoff:       time.Second,
		historyPageSize:    100,
		collectionPageSize: 20,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetadata keeps the iss.meta blocks in responses instead of requesting
// their truncation.
func WithMetadata() ClientOption {
	return func(c *Client) {
		c.metadata = true
	}
}

// WithPageSizes sets the page sizes for history and collection pagination.
func WithPageSizes(history, collection int) ClientOption {
	return func(c *Client) {
		c.historyPageSize = history
		c.collectionPageSize = collection
	}
}

// SetLanguage sets the language threaded into every subsequent request.
// Localized text fields (titles, names) follow it; field keys do not.
func (c *Client) SetLanguage(lang string) error {
	if lang != "ru" && lang != "en" {
		return ErrUnsupportedLanguage
	}
	c.lang = lang
	return nil
}

// Language returns the current language setting.
func (c *Client) Language() string {
	return c.lang
}

// Requests reports the total number of successful requests made so far.
func (c *Client) Requests() int64 {
	return c.counter.Load()
}
