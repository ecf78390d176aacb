// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package speller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultURL is the public Yandex Speller checkText endpoint.
	DefaultURL = "https://speller.yandex.net/services/spellservice.json/checkText"

	// DefaultLang is the language checked when none is configured.
	DefaultLang = "ru"

	// DefaultTimeout bounds a single check.
	DefaultTimeout = 5 * time.Second
)

// Service option flags, combined with bitwise or.
const (
	IgnoreDigits     = 2
	IgnoreURLs       = 4
	FindRepeatWords  = 8
	IgnoreCapitalize = 512
)

// Misspelling is one error reported by the service.
type Misspelling struct {
	Code        int      `json:"code"`
	Pos         int      `json:"pos"`
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	Len         int      `json:"len"`
	Word        string   `json:"word"`
	Suggestions []string `json:"s"`
}

// Result is the outcome of checking one text.
type Result struct {
	Text   string
	Errors []Misspelling
}

// IsOK reports whether no misspellings were found.
func (r Result) IsOK() bool {
	return len(r.Errors) == 0
}

// FirstMatch returns the text with each misspelling replaced by its first
// suggestion. Positions are counted in characters. Misspellings without
// suggestions, or whose span falls outside the text, are left as they are.
func (r Result) FirstMatch() string {
	text := []rune(r.Text)
	// Replace from the end so earlier positions stay valid.
	for i := len(r.Errors) - 1; i >= 0; i-- {
		e := r.Errors[i]
		if len(e.Suggestions) == 0 || e.Pos < 0 || e.Len < 0 || e.Pos+e.Len > len(text) {
			continue
		}
		replaced := make([]rune, 0, len(text)-e.Len+len(e.Suggestions[0]))
		replaced = append(replaced, text[:e.Pos]...)
		replaced = append(replaced, []rune(e.Suggestions[0])...)
		replaced = append(replaced, text[e.Pos+e.Len:]...)
		text = replaced
	}
	return string(text)
}

// Client calls a checkText endpoint.
type Client struct {
	url        string
	lang       string
	options    int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets the checkText endpoint.
func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

// WithLang sets the checked languages, comma separated ("ru,en").
func WithLang(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.lang = lang
		}
	}
}

// WithOptions sets the service option flags.
func WithOptions(options int) Option {
	return func(c *Client) {
		c.options = options
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		lang:       DefaultLang,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "speller")
	return c
}

// Check sends text to the service.
func (c *Client) Check(ctx context.Context, text string) (Result, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", c.lang)
	form.Set("options", strconv.Itoa(c.options))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSpellerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("%w: %s", ErrSpellerUnavailable, resp.Status)
	}

	var errs []Misspelling
	if err := json.NewDecoder(resp.Body).Decode(&errs); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	c.logger.Debug("checked text", "text", text, "errors", len(errs))
	return Result{Text: text, Errors: errs}, nil
}

// Correct returns text unchanged when it is spelled correctly and its
// first-match correction otherwise.
func (c *Client) Correct(ctx context.Context, text string) (string, error) {
	result, err := c.Check(ctx, text)
	if err != nil {
		return text, err
	}
	if result.IsOK() {
		return text, nil
	}
	return result.FirstMatch(), nil
}
