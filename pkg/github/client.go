// Package github implements a gist.Store backed by the GitHub gists REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpproxy"

	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/version"
)

const (
	// DefaultBaseURL is the API endpoint for github.com.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds each request made by the client.
	DefaultTimeout = 30 * time.Second

	mediaType = "application/vnd.github.v3+json"
)

// Options configures a Client.
type Options struct {
	// Token is a personal access token with the `gist` scope. Requests are
	// made anonymously if it's empty, which only allows reading public
	// gists.
	Token string

	// Proxy is the URL of an HTTP proxy to use for all requests. If it's
	// empty, the proxy is taken from the standard environment variables.
	Proxy string

	// BaseURL overrides DefaultBaseURL, e.g. for GitHub Enterprise.
	BaseURL string

	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

// Client talks to the gists API. Clients are cheap, and should be created
// from explicit Options rather than shared globally.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a new Client.
func New(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.WithContext(err, "parse base url")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	proxyFunc, err := newProxyFunc(opts.Proxy)
	if err != nil {
		return nil, errors.WithContext(err, "configure proxy")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFunc

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// newProxyFunc resolves the proxy for each request. An explicit proxy
// applies to every request, otherwise the environment is consulted.
func newProxyFunc(proxy string) (func(*http.Request) (*url.URL, error), error) {
	cfg := httpproxy.FromEnvironment()
	if proxy != "" {
		if _, err := url.Parse(proxy); err != nil {
			return nil, errors.WithContext(err, "parse proxy url")
		}
		cfg = &httpproxy.Config{HTTPProxy: proxy, HTTPSProxy: proxy}
	}

	proxyForURL := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyForURL(req.URL)
	}, nil
}

// apiFile is the wire representation of a file. Files are sent as pointers
// so that nil entries are encoded as JSON null, which the API treats as a
// deletion.
type apiFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

type apiGist struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]*apiFile `json:"files"`
	HTMLURL     string              `json:"html_url"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type apiRequest struct {
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]*apiFile `json:"files"`
}

type apiError struct {
	Message string `json:"message"`
}

func toAPIFiles(files gist.FileSet) map[string]*apiFile {
	apiFiles := map[string]*apiFile{}
	for name, f := range files {
		if f == nil {
			apiFiles[name] = nil
			continue
		}
		apiFiles[name] = &apiFile{Content: f.Content}
	}
	return apiFiles
}

func (g apiGist) toDocument() gist.Document {
	files := gist.FileSet{}
	for name, f := range g.Files {
		if f == nil {
			continue
		}
		files[name] = &gist.File{
			Filename:  name,
			Content:   f.Content,
			RawURL:    f.RawURL,
			Truncated: f.Truncated,
		}
	}

	return gist.Document{
		ID:          g.ID,
		Description: g.Description,
		Public:      g.Public,
		Files:       files,
		HTMLURL:     g.HTMLURL,
		UpdatedAt:   g.UpdatedAt,
	}
}

// Get implements gist.Store.
func (c *Client) Get(ctx context.Context, id string) (gist.Document, error) {
	var resp apiGist
	if err := c.do(ctx, http.MethodGet, gistPath(id), nil, &resp, id); err != nil {
		return gist.Document{}, err
	}

	doc := resp.toDocument()
	for name, f := range doc.Files {
		if !f.Truncated {
			continue
		}

		content, err := c.getRaw(ctx, f.RawURL)
		if err != nil {
			// The gist itself exists, so a missing raw file must not be
			// mistaken for a missing gist.
			if errors.IsNotFound(err) {
				return gist.Document{}, errors.New(
					"get contents of %q: raw file not found at %s", name, f.RawURL)
			}
			return gist.Document{}, errors.WithContext(err,
				fmt.Sprintf("get contents of %q", name))
		}
		f.Content = content
		f.Truncated = false
	}
	return doc, nil
}

// Create implements gist.Store.
func (c *Client) Create(ctx context.Context, files gist.FileSet, public bool,
	description string) (gist.Document, error) {
	req := apiRequest{
		Description: description,
		Public:      &public,
		Files:       toAPIFiles(files),
	}

	var resp apiGist
	if err := c.do(ctx, http.MethodPost, "/gists", req, &resp, ""); err != nil {
		return gist.Document{}, err
	}
	return resp.toDocument(), nil
}

// Update implements gist.Store.
func (c *Client) Update(ctx context.Context, id string, files gist.FileSet) (gist.Document, error) {
	req := apiRequest{Files: toAPIFiles(files)}

	var resp apiGist
	if err := c.do(ctx, http.MethodPatch, gistPath(id), req, &resp, id); err != nil {
		return gist.Document{}, err
	}
	return resp.toDocument(), nil
}

// Delete implements gist.Store.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, gistPath(id), nil, nil, id)
}

func gistPath(id string) string {
	return "/gists/" + url.PathEscape(id)
}

// do sends a request to the API, and decodes the response into `out` if
// it's non-nil. `id` is used to construct NotFound errors.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{},
	id string) error {
	op := fmt.Sprintf("%s %s", method, path)

	var body io.Reader
	if in != nil {
		reqBytes, err := json.Marshal(in)
		if err != nil {
			return errors.WithContext(err, "marshal request")
		}
		body = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.WithContext(err, "create request")
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", "gistsync/"+version.Version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op, id); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithContext(err, "decode response")
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, rawURL string) (string, error) {
	op := fmt.Sprintf("GET %s", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.WithContext(err, "create request")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op, ""); err != nil {
		return "", err
	}

	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", errors.TransportError{Op: op, Err: err}
	}
	return string(content), nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
}

// checkStatus converts error responses into the error types that the
// gist package uses to decide how to recover.
func checkStatus(resp *http.Response, op, id string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		log.WithError(err).WithField("status", resp.Status).
			Debug("Failed to parse error response")
	}

	switch {
	case resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get("X-RateLimit-Remaining") == "0":
		return errors.New("%s: rate limit exceeded, resets at %s (%s)",
			op, rateLimitReset(resp), apiErr.Message)
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return errors.Unauthorized{Message: apiErr.Message}
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound{ID: id}
	case resp.StatusCode >= 500:
		return errors.TransportError{
			Op:  op,
			Err: errors.New("server responded with %s", resp.Status),
		}
	default:
		return errors.New("%s: server responded with %s (%s)",
			op, resp.Status, apiErr.Message)
	}
}

// rateLimitReset returns when the API's rate limit resets, according to the
// response headers.
func rateLimitReset(resp *http.Response) string {
	epoch, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return "an unknown time"
	}
	return time.Unix(epoch, 0).Format(time.RFC1123)
}
