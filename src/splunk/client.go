// Package splunk implements the saved-search directory service: a thin
// client for the Splunk REST API plus tools that normalise its saved-search
// metadata into JSON envelopes.
package splunk

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	json "github.com/alpkeskin/gotoon"
)

// Config carries the connection settings for the Splunk management port.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	App      string

	// BaseURL overrides the https://host:port URL derived from Host/Port.
	// Used by tests and reverse-proxy deployments.
	BaseURL string
}

// ConfigFromEnv reads the SPLUNK_* environment variables, falling back to
// the stock development defaults.
func ConfigFromEnv() Config {
	return Config{
		Host:     envOr("SPLUNK_HOST", "localhost"),
		Port:     envOr("SPLUNK_PORT", "8089"),
		Username: envOr("SPLUNK_USERNAME", "admin"),
		Password: envOr("SPLUNK_PASSWORD", "password"),
		App:      envOr("SPLUNK_APP", "search"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Client is an authenticated session against the Splunk REST API. TLS
// certificate verification is disabled: the management port ships with a
// self-signed certificate and the upstream deployment contract expects the
// session to accept it.
type Client struct {
	baseURL    string
	app        string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient builds a client and issues one best-effort connectivity probe
// against the server-info endpoint. Probe failures are swallowed; they never
// block construction or later calls.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s:%s", cfg.Host, cfg.Port)
	}

	c := &Client{
		baseURL:  baseURL,
		app:      cfg.App,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
	c.probe()
	return c
}

// NewClientFromEnv is shorthand for NewClient(ConfigFromEnv()).
func NewClientFromEnv() *Client {
	return NewClient(ConfigFromEnv())
}

// App returns the default app the client was configured with.
func (c *Client) App() string { return c.app }

func (c *Client) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.get(ctx, "/services/server/info", url.Values{"output_mode": {"json"}})
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = query.Encode()
	req.SetBasicAuth(c.username, c.password)
	return c.httpClient.Do(req)
}

// savedSearchEntry mirrors one element of the "entry" array in the Splunk
// saved-search responses. Content stays schemaless: the upstream mixes value
// types between versions, so fields are read with the content helpers below.
type savedSearchEntry struct {
	Name    string `json:"name"`
	Updated string `json:"updated"`
	ACL     struct {
		Owner string `json:"owner"`
	} `json:"acl"`
	Content map[string]any `json:"content"`
}

func (e savedSearchEntry) contentString(key string) string {
	v, _ := e.Content[key].(string)
	return v
}

func (e savedSearchEntry) disabled() bool {
	v, _ := e.Content["disabled"].(bool)
	return v
}

// scheduled reports whether the upstream string flag is set. The flag is the
// string "1", not a bool, on the wire.
func (e savedSearchEntry) scheduled() bool {
	return e.contentString("is_scheduled") == "1"
}

type savedSearchPage struct {
	Entry []savedSearchEntry `json:"entry"`
}

// fetchSavedSearches retrieves the full saved-search listing for the app.
// The body is only decoded on HTTP 200, matching the upstream contract;
// the status code is reported alongside so callers can build their error
// envelopes from it.
func (c *Client) fetchSavedSearches(ctx context.Context, app string) ([]savedSearchEntry, int, error) {
	path := fmt.Sprintf("/servicesNS/admin/%s/saved/searches", app)
	resp, err := c.get(ctx, path, url.Values{"output_mode": {"json"}, "count": {"0"}})
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var page savedSearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, err
	}
	return page.Entry, resp.StatusCode, nil
}

// fetchSavedSearch retrieves a single saved search by name. The name is
// escaped so that names containing slashes or spaces form a single path
// segment.
func (c *Client) fetchSavedSearch(ctx context.Context, app, name string) ([]savedSearchEntry, int, error) {
	path := fmt.Sprintf("/servicesNS/admin/%s/saved/searches/%s", app, url.PathEscape(name))
	resp, err := c.get(ctx, path, url.Values{"output_mode": {"json"}})
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var page savedSearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, err
	}
	return page.Entry, resp.StatusCode, nil
}
