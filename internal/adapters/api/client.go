// Package api talks to the Aeye backend over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxImageBytes  = 10 << 20

	maxResponseBytes = 1 << 20
	maxMessageLength = 200

	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/auth/logout"
)

type Options struct {
	BaseURL string
	// HTTPClient supplies the base transport and timeouts; its Transport is
	// wrapped for authenticated requests.
	HTTPClient     *http.Client
	Credentials    ports.CredentialStore
	Clock          ports.Clock
	RequestTimeout time.Duration
	MaxImageBytes  int64
}

type Client struct {
	baseURL        string
	public         *http.Client
	authenticated  *http.Client
	clock          ports.Clock
	requestTimeout time.Duration
	maxImageBytes  int64
}

var (
	_ ports.AuthAPI      = (*Client)(nil)
	_ ports.ImageFetcher = (*Client)(nil)
)

func NewClient(opts Options) (*Client, error) {
	if _, err := buildAPIURL(opts.BaseURL, "/"); err != nil {
		return nil, err
	}
	if opts.Credentials == nil {
		return nil, errors.New("credential store is required")
	}

	public := opts.HTTPClient
	if public == nil {
		public = &http.Client{}
	}
	authenticated := *public
	authenticated.Transport = &oauth2.Transport{
		Source: credentialTokenSource{store: opts.Credentials},
		Base:   public.Transport,
	}

	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	maxImageBytes := opts.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		public:         public,
		authenticated:  &authenticated,
		clock:          clock,
		requestTimeout: opts.RequestTimeout,
		maxImageBytes:  maxImageBytes,
	}, nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.requestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// credentialTokenSource reads the stored credential on every request, so a
// logout or a new login takes effect without rebuilding the client.
type credentialTokenSource struct {
	store ports.CredentialStore
}

func (s credentialTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	credential, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return nil, fmt.Errorf("%w: not logged in", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}

	return &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return &domain.RequestError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    readableMessage(body),
	}
}

// readableMessage picks the first usable text out of an error body: a bare
// JSON string, then "message", then "error", then the raw text.
func readableMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var asString string
	if err := json.Unmarshal([]byte(trimmed), &asString); err == nil {
		return truncate(strings.TrimSpace(asString))
	}

	var asObject struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &asObject); err == nil {
		if msg := strings.TrimSpace(asObject.Message); msg != "" {
			return truncate(msg)
		}
		if msg := strings.TrimSpace(asObject.Error); msg != "" {
			return truncate(msg)
		}
		return ""
	}

	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return truncate(trimmed)
}

func truncate(message string) string {
	if len(message) <= maxMessageLength {
		return message
	}
	cut := maxMessageLength
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + "..."
}

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
