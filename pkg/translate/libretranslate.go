package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultLibreTranslateURL = "https://libretranslate.com"

// LibreTranslate translates via a LibreTranslate instance.
type LibreTranslate struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// LibreOption configures the LibreTranslate provider.
type LibreOption func(*LibreTranslate)

// WithLibreURL points the provider at a self-hosted instance.
func WithLibreURL(u string) LibreOption {
	return func(t *LibreTranslate) {
		if u != "" {
			t.baseURL = u
		}
	}
}

// WithLibreAPIKey sets the API key for the hosted service.
func WithLibreAPIKey(key string) LibreOption {
	return func(t *LibreTranslate) {
		t.apiKey = key
	}
}

// WithLibreHTTPClient sets a custom HTTP client.
func WithLibreHTTPClient(hc *http.Client) LibreOption {
	return func(t *LibreTranslate) {
		t.httpClient = hc
	}
}

// NewLibreTranslate creates a LibreTranslate provider with the given options.
func NewLibreTranslate(opts ...LibreOption) *LibreTranslate {
	t := &LibreTranslate{
		baseURL:    defaultLibreTranslateURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Translator.
func (t *LibreTranslate) Name() string { return "libretranslate" }

// Available implements Translator.
func (t *LibreTranslate) Available() bool { return true }

type libreRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	APIKey string   `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText []string `json:"translatedText"`
	Error          string   `json:"error"`
}

// Translate implements Translator.
func (t *LibreTranslate) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate rate limit")
	}

	payload, err := json.Marshal(libreRequest{
		Q:      texts,
		Source: source,
		Target: target,
		APIKey: t.apiKey,
	})
	if err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("translate: libretranslate returned status %d: %s", resp.StatusCode, string(body))
	}

	var libreResp libreResponse
	if err := json.Unmarshal(body, &libreResp); err != nil {
		return nil, eris.Wrap(err, "translate: libretranslate parse response")
	}
	if libreResp.Error != "" {
		return nil, eris.Errorf("translate: libretranslate error: %s", libreResp.Error)
	}
	if len(libreResp.TranslatedText) != len(texts) {
		return nil, eris.Errorf("translate: libretranslate returned %d values, want %d",
			len(libreResp.TranslatedText), len(texts))
	}

	return libreResp.TranslatedText, nil
}
