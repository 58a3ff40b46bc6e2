// Package registry looks up legal-entity reference data in the GLEIF registry.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

const (
	DefaultBaseURL = "https://api.gleif.org/api/v1/lei-records"
	DefaultTimeout = 10 * time.Second
)

var (
	ErrBadStatus = errors.New("registry returned non-200 status")
	ErrTransport = errors.New("registry transport failure")
)

type ErrorKind int

const (
	KindBadStatus ErrorKind = iota + 1
	KindTransport
)

// LookupError classifies a failed lookup. Callers treat both kinds as "no data".
type LookupError struct {
	Kind       ErrorKind
	LEI        string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.Kind == KindBadStatus {
		return fmt.Sprintf("lookup %s: status %d", e.LEI, e.StatusCode)
	}
	return fmt.Sprintf("lookup %s: %v", e.LEI, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrBadStatus:
		return e.Kind == KindBadStatus
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs one uncached registry lookup.
type Fetcher interface {
	Fetch(ctx context.Context, lei string) (*model.RegistryRecord, error)
}

type Client struct {
	baseURL string
	timeout time.Duration
	hc      httpDoer
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		hc:      &http.Client{},
		log:     log.With().Str("component", "registry").Logger(),
	}
}

// Fetch issues a single GET filtered by LEI. There are no retries.
func (c *Client) Fetch(ctx context.Context, lei string) (*model.RegistryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(lei), nil)
	if err != nil {
		return nil, c.fail(&LookupError{Kind: KindTransport, LEI: lei, Err: err})
	}
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, c.fail(&LookupError{Kind: KindTransport, LEI: lei, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, c.fail(&LookupError{Kind: KindBadStatus, LEI: lei, StatusCode: resp.StatusCode, Err: ErrBadStatus})
	}

	var rec model.RegistryRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, c.fail(&LookupError{Kind: KindTransport, LEI: lei, Err: fmt.Errorf("decode response: %w", err)})
	}
	return &rec, nil
}

func (c *Client) lookupURL(lei string) string {
	q := url.Values{}
	q.Set("filter[lei]", lei)
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) fail(err *LookupError) error {
	event := c.log.Error().Str("lei", err.LEI)
	if err.Kind == KindBadStatus {
		event.Int("status", err.StatusCode).Msg("failed API call")
	} else {
		event.Err(err.Err).Msg("API call failed")
	}
	return err
}
