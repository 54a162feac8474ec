// Package voices lists the ElevenLabs shared voice library for the voice picker.
package voices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"adstudio-backend/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	MaxPages = 5
	PageSize = 100

	listPath   = "/v1/shared-voices"
	apiKeyHdr  = "xi-api-key"
	cursorName = "next_page_token"
)

var ErrMissingAPIKey = errors.New("ELEVENLABS_API_KEY is not configured")

// UpstreamError is a non-2xx response from the voice API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ElevenLabs API error: %d %s", e.StatusCode, e.Body)
}

type page struct {
	Voices        []models.SharedVoice `json:"voices"`
	HasMore       bool                 `json:"has_more"`
	NextPageToken string               `json:"next_page_token"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Log        logrus.FieldLogger

	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string, log logrus.FieldLogger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Log:        log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "elevenlabs-voices",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			// A caller that goes away says nothing about upstream health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

// ListSharedVoices walks up to MaxPages pages and returns every voice sorted by name.
func (c *Client) ListSharedVoices(ctx context.Context) ([]models.SharedVoice, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchAll(ctx)
	})
	if err != nil {
		return nil, err
	}

	voices := res.([]models.SharedVoice)
	sortByName(voices)
	return voices, nil
}

// sortByName orders voices the way the picker shows them: case-insensitive, stable.
func sortByName(voices []models.SharedVoice) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(voices, func(i, j int) bool {
		return c.CompareString(voices[i].Name, voices[j].Name) < 0
	})
}

func (c *Client) fetchAll(ctx context.Context) ([]models.SharedVoice, error) {
	first := fmt.Sprintf("%s%s?page_size=%d", c.BaseURL, listPath, PageSize)

	var all []models.SharedVoice
	next := first
	for i := 0; i < MaxPages && next != ""; i++ {
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Voices...)

		c.log().WithFields(logrus.Fields{"page": i + 1, "count": len(p.Voices)}).Debug("fetched voice page")

		if !p.HasMore || p.NextPageToken == "" {
			break
		}
		next, err = nextURL(first, p.NextPageToken)
		if err != nil {
			return nil, err
		}
	}

	return all, nil
}

// nextURL resolves a continuation token. Absolute URLs are followed as-is,
// anything else is treated as an opaque cursor.
func nextURL(first, token string) (string, error) {
	if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
		return token, nil
	}

	u, err := url.Parse(first)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(cursorName, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHdr, c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch shared voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode shared voices: %w", err)
	}
	return &p, nil
}

func (c *Client) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
