package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/aeye-cli/internal/domain"
)

// FetchImage downloads the current frame of source. A timestamp query
// parameter defeats intermediate caches.
func (c *Client) FetchImage(ctx context.Context, source domain.FeedSource) (domain.Image, error) {
	endpoint, err := buildAPIURL(c.baseURL, source.Path)
	if err != nil {
		return domain.Image{}, err
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return domain.Image{}, fmt.Errorf("parse image url: %w", err)
	}
	query := parsed.Query()
	query.Set("t", strconv.FormatInt(c.clock.Now().UnixNano(), 10))
	parsed.RawQuery = query.Encode()

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return domain.Image{}, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "image/*")

	resp, err := c.authenticated.Do(req)
	if err != nil {
		return domain.Image{}, fmt.Errorf("fetch image %q: %w", source.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return domain.Image{}, statusError("fetch image "+string(source.ID), resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image %q: %w", source.ID, err)
	}
	if int64(len(data)) > c.maxImageBytes {
		return domain.Image{}, fmt.Errorf("image %q exceeds %d bytes", source.ID, c.maxImageBytes)
	}
	if len(data) == 0 {
		return domain.Image{}, fmt.Errorf("image %q is empty", source.ID)
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return domain.Image{Data: data, ContentType: contentType}, nil
}
