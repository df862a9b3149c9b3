package iss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avolkov/moex-iss-data/internal/tabular"
)

const emptyEnginesBody = `{"engines": {"columns": ["name"], "data": []}}`

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient(DefaultBaseURL, DefaultAuthURL)

		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
		if c.lang != "ru" {
			t.Errorf("lang = %q, want %q", c.lang, "ru")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.historyPageSize != 100 || c.collectionPageSize != 20 {
			t.Errorf("page sizes = %d, %d; want 100, 20", c.historyPageSize, c.collectionPageSize)
		}
		if c.httpClient.Jar == nil {
			t.Error("cookie jar should be set")
		}
	})

	t.Run("with options", func(t *testing.T) {
		c := NewClient(DefaultBaseURL, DefaultAuthURL,
			WithTimeout(5*time.Second),
			WithRetries(1, 10*time.Millisecond),
			WithPageSizes(50, 10),
		)
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
		if c.maxRetries != 1 || c.retryBackoff != 10*time.Millisecond {
			t.Errorf("retries = %d, %v; want 1, 10ms", c.maxRetries, c.retryBackoff)
		}
		if c.historyPageSize != 50 || c.collectionPageSize != 10 {
			t.Errorf("page sizes = %d, %d; want 50, 10", c.historyPageSize, c.collectionPageSize)
		}
	})
}

func TestSetLanguage(t *testing.T) {
	c := NewClient(DefaultBaseURL, DefaultAuthURL)

	if err := c.SetLanguage("en"); err != nil {
		t.Fatalf("SetLanguage(en) failed: %v", err)
	}
	if c.Language() != "en" {
		t.Errorf("Language = %q, want %q", c.Language(), "en")
	}

	if err := c.SetLanguage("fr"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("SetLanguage(fr) = %v, want ErrUnsupportedLanguage", err)
	}
	if c.Language() != "en" {
		t.Error("failed SetLanguage should not change the language")
	}
}

func TestFetch(t *testing.T) {
	t.Run("request shape", func(t *testing.T) {
		var gotPath, gotLang, gotMeta string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotLang = r.URL.Query().Get("lang")
			gotMeta = r.URL.Query().Get("iss.meta")
			fmt.Fprint(w, emptyEnginesBody)
		}))
		defer server.Close()

		c := NewClient(server.URL+"/iss/", DefaultAuthURL)
		doc, err := c.Fetch(context.Background(), "engines", nil)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if gotPath != "/iss/engines.json" {
			t.Errorf("path = %q, want %q", gotPath, "/iss/engines.json")
		}
		if gotLang != "ru" {
			t.Errorf("lang = %q, want %q", gotLang, "ru")
		}
		if gotMeta != "off" {
			t.Errorf("iss.meta = %q, want %q", gotMeta, "off")
		}
		if _, ok := doc["engines"]; !ok {
			t.Error("engines block missing from parsed document")
		}
	})

	t.Run("language threads into later fetches", func(t *testing.T) {
		var gotLang string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLang = r.URL.Query().Get("lang")
			fmt.Fprint(w, emptyEnginesBody)
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", DefaultAuthURL)
		if err := c.SetLanguage("en"); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Fetch(context.Background(), "engines", nil); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if gotLang != "en" {
			t.Errorf("lang = %q, want %q", gotLang, "en")
		}
	})

	t.Run("retries on server errors", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, emptyEnginesBody)
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", DefaultAuthURL, WithRetries(3, time.Millisecond))
		if _, err := c.Fetch(context.Background(), "engines", nil); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if attempts.Load() != 3 {
			t.Errorf("attempts = %d, want 3", attempts.Load())
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", DefaultAuthURL, WithRetries(3, time.Millisecond))
		_, err := c.Fetch(context.Background(), "engines", nil)

		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want *TransportError", err)
		}
		if te.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", te.StatusCode)
		}
		if te.IsRetryable() {
			t.Error("404 should not be retryable")
		}
		if attempts.Load() != 1 {
			t.Errorf("attempts = %d, want 1", attempts.Load())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>maintenance</html>")
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", DefaultAuthURL)
		_, err := c.Fetch(context.Background(), "engines", nil)

		var fe *tabular.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *tabular.FormatError", err)
		}
	})

	t.Run("request counter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, emptyEnginesBody)
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", DefaultAuthURL)
		if c.Requests() != 0 {
			t.Fatalf("Requests = %d, want 0", c.Requests())
		}
		for i := 0; i < 3; i++ {
			if _, err := c.Fetch(context.Background(), "engines", nil); err != nil {
				t.Fatal(err)
			}
		}
		if c.Requests() != 3 {
			t.Errorf("Requests = %d, want 3", c.Requests())
		}
	})
}

func TestHistoricalQuotesPagination(t *testing.T) {
	// 5 rows served in pages of 2 with a cursor companion block.
	const total = 5
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))

		rows := ""
		for i := start; i < total && i < start+2; i++ {
			if rows != "" {
				rows += ","
			}
			rows += fmt.Sprintf(`["2014-01-%02d"]`, i+1)
		}
		fmt.Fprintf(w, `{
			"history": {"columns": ["TRADEDATE"], "data": [%s]},
			"history.cursor": {"columns": ["INDEX", "PAGESIZE", "TOTAL"], "data": [[%d, 2, %d]]}
		}`, rows, start, total)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", DefaultAuthURL, WithPageSizes(2, 20))
	recs, err := c.HistoricalQuotes(context.Background(), "stock", "shares", "TQBR", "SBER", "2014-01-01", "2014-01-05")
	if err != nil {
		t.Fatalf("HistoricalQuotes failed: %v", err)
	}

	if len(recs) != total {
		t.Fatalf("records = %d, want %d", len(recs), total)
	}
	if got := recs[4].String("TRADEDATE"); got != "2014-01-05" {
		t.Errorf("last record = %q, want %q", got, "2014-01-05")
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3", calls.Load())
	}
}

func TestAuthenticate(t *testing.T) {
	t.Run("success stores the certificate cookie", func(t *testing.T) {
		var gotUser, gotPass string
		authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser, gotPass, _ = r.BasicAuth()
			http.SetCookie(w, &http.Cookie{Name: authCertCookie, Value: "cert123"})
		}))
		defer authServer.Close()

		var gotCookie string
		dataServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(authCertCookie); err == nil {
				gotCookie = cookie.Value
			}
			fmt.Fprint(w, emptyEnginesBody)
		}))
		defer dataServer.Close()

		c := NewClient(dataServer.URL+"/", authServer.URL)
		if err := c.Authenticate(context.Background(), "user", "pass"); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if gotUser != "user" || gotPass != "pass" {
			t.Errorf("credentials = %q/%q, want user/pass", gotUser, gotPass)
		}

		if _, err := c.Fetch(context.Background(), "engines", nil); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if gotCookie != "cert123" {
			t.Errorf("data fetch cookie = %q, want %q", gotCookie, "cert123")
		}
	})

	t.Run("rejected credentials", func(t *testing.T) {
		authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer authServer.Close()

		c := NewClient(DefaultBaseURL, authServer.URL)
		err := c.Authenticate(context.Background(), "user", "wrong")

		var ae *AuthError
		if !errors.As(err, &ae) {
			t.Fatalf("error = %v, want *AuthError", err)
		}
	})

	t.Run("missing certificate cookie", func(t *testing.T) {
		authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "other", Value: "x"})
		}))
		defer authServer.Close()

		c := NewClient(DefaultBaseURL, authServer.URL)
		err := c.Authenticate(context.Background(), "user", "pass")

		var ae *AuthError
		if !errors.As(err, &ae) {
			t.Fatalf("error = %v, want *AuthError", err)
		}
	})
}
