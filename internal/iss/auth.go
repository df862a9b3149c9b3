package iss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// AuthError reports a failed MoEx Passport authentication: the credentials
// were rejected, or no certificate cookie came back.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticate logs the user in against the MoEx Passport endpoint. On
// success the certificate cookie is carried by every subsequent fetch.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(username, password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &AuthError{Message: fmt.Sprintf("rejected with status %d", resp.StatusCode)}
	}

	certFound := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == authCertCookie {
			certFound = true
			break
		}
	}
	if !certFound {
		return &AuthError{Message: "authentication certificate not found"}
	}

	// Passport cookies are scoped to the passport host; copy them onto the
	// API host so data fetches carry the certificate.
	if c.httpClient.Jar != nil {
		if base, err := url.Parse(c.baseURL); err == nil {
			c.httpClient.Jar.SetCookies(base, resp.Cookies())
		}
	}

	c.logger.Info("authenticated with moex passport", "user", username)
	return nil
}
