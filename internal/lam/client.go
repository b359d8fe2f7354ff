// Package lam wraps the LAfricaMobile speech and translation API, the
// Wolof-specialized provider behind the speech gateway and the translation
// bridge.
package lam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

const defaultTimeout = 60 * time.Second

// Client is an authenticated HTTP client for the LAfricaMobile API.
// Tokens are fetched lazily and refreshed once on a 401 response.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *logging.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a LAfricaMobile client. Credentials are validated at
// call time, not construction time, so a partially configured deployment
// still boots and falls back to the general providers.
func NewClient(baseURL, username, password string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Named("lam"),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("lam: credentials not configured")
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)
	form.Set("grant_type", "password")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("lam: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lam: login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lam: login returned status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("lam: decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("lam: login response missing access token")
	}

	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	c.logger.Info("authenticated with lafricamobile")
	return out.AccessToken, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.authenticate(ctx)
}

// doAuthed performs the request built by build, retrying exactly once with a
// fresh token when the API answers 401 (token expiry).
func (c *Client) doAuthed(ctx context.Context, build func(token string) (*http.Request, error)) (*http.Response, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	req, err := build(token)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	token, err = c.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	req, err = build(token)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

type sttResponse struct {
	Transcription string `json:"transcription"`
}

// Transcribe sends audio for Wolof speech-to-text and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	if lang == "" {
		lang = "wolof"
	}

	build := func(token string) (*http.Request, error) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("audio", "audio.wav")
		if err != nil {
			return nil, fmt.Errorf("lam: build multipart: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return nil, fmt.Errorf("lam: write multipart: %w", err)
		}
		if err := w.WriteField("to_lang", lang); err != nil {
			return nil, fmt.Errorf("lam: write field: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lam: close multipart: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stt/", &body)
		if err != nil {
			return nil, fmt.Errorf("lam: build stt request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	resp, err := c.doAuthed(ctx, build)
	if err != nil {
		return "", fmt.Errorf("lam: stt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lam: stt returned status %d", resp.StatusCode)
	}

	var out sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("lam: decode stt response: %w", err)
	}
	if out.Transcription == "" {
		c.logger.Warn("stt response missing transcription")
	}
	return out.Transcription, nil
}

type translateRequest struct {
	Text   string `json:"text"`
	ToLang string `json:"to_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate translates text into toLang ("wolof" or "french" in this
// deployment). An empty translated_text falls back to the input.
func (c *Client) Translate(ctx context.Context, text, toLang string) (string, error) {
	payload, err := json.Marshal(translateRequest{Text: text, ToLang: toLang})
	if err != nil {
		return "", fmt.Errorf("lam: marshal translate request: %w", err)
	}

	build := func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts/translate", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("lam: build translate request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := c.doAuthed(ctx, build)
	if err != nil {
		return "", fmt.Errorf("lam: translate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lam: translate returned status %d", resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("lam: decode translate response: %w", err)
	}
	if out.TranslatedText == "" {
		return text, nil
	}
	return out.TranslatedText, nil
}

type ttsRequest struct {
	Text   string  `json:"text"`
	ToLang string  `json:"to_lang"`
	Pitch  float64 `json:"pitch"`
	Speed  float64 `json:"speed"`
}

type ttsResponse struct {
	PathAudio string `json:"path_audio"`
}

// Synthesize renders text to speech and returns the audio bytes, downloading
// from the remote path the API hands back.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if lang == "" {
		lang = "wolof"
	}
	payload, err := json.Marshal(ttsRequest{Text: text, ToLang: lang, Speed: 1.0})
	if err != nil {
		return nil, fmt.Errorf("lam: marshal tts request: %w", err)
	}

	build := func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts/", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("lam: build tts request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := c.doAuthed(ctx, build)
	if err != nil {
		return nil, fmt.Errorf("lam: tts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lam: tts returned status %d", resp.StatusCode)
	}

	var out ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("lam: decode tts response: %w", err)
	}
	if out.PathAudio == "" {
		return nil, fmt.Errorf("lam: tts response missing audio path")
	}
	return c.download(ctx, out.PathAudio)
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("lam: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lam: download audio: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lam: audio download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lam: read audio: %w", err)
	}
	return data, nil
}
