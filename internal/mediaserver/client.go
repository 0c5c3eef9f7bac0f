// Package mediaserver is the REST client for the remote media catalog:
// playback-info negotiation, media segments, next-episode lookup, and
// playback reporting.
package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/deviceprofile"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	DeviceID   string
	ClientName string
	UserID     string
	Timeout    time.Duration
}

// Client talks to a Jellyfin-compatible media server.
type Client struct {
	baseURL    string
	token      string
	deviceID   string
	clientName string
	userID     string
	http       *http.Client
	logger     hclog.Logger
}

// New creates a media server client.
func New(opts Options, logger hclog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := opts.ClientName
	if name == "" {
		name = "CouchPilot"
	}
	return &Client{
		baseURL:    trimTrailingSlash(opts.BaseURL),
		token:      opts.Token,
		deviceID:   opts.DeviceID,
		clientName: name,
		userID:     opts.UserID,
		http:       &http.Client{Timeout: timeout},
		logger:     logger.Named("mediaserver"),
	}
}

// PlaybackInfo negotiates candidate media sources for an item against the
// device profile. The returned source order is the server's preference order.
func (c *Client) PlaybackInfo(ctx context.Context, itemID string, profile *deviceprofile.Profile) (*PlaybackInfoResponse, error) {
	body := struct {
		UserID        string               `json:"UserId,omitempty"`
		DeviceProfile *deviceprofile.Profile `json:"DeviceProfile"`
	}{UserID: c.userID, DeviceProfile: profile}

	var resp PlaybackInfoResponse
	if err := c.do(ctx, http.MethodPost, "/Items/"+url.PathEscape(itemID)+"/PlaybackInfo", body, &resp); err != nil {
		return nil, fmt.Errorf("playback info for %s: %w", itemID, err)
	}
	if resp.ErrorCode != "" {
		return nil, fmt.Errorf("playback info for %s: server error %s", itemID, resp.ErrorCode)
	}
	return &resp, nil
}

// Item fetches item metadata.
func (c *Client) Item(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	path := "/Users/" + url.PathEscape(c.userID) + "/Items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodGet, path, nil, &item); err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}
	return &item, nil
}

// Segments fetches the skippable segment list for an item. Filtering of
// sub-second segments happens in the playback layer.
func (c *Client) Segments(ctx context.Context, itemID string) ([]MediaSegment, error) {
	var resp struct {
		Items []MediaSegment `json:"Items"`
	}
	if err := c.do(ctx, http.MethodGet, "/MediaSegments/"+url.PathEscape(itemID), nil, &resp); err != nil {
		return nil, fmt.Errorf("segments for %s: %w", itemID, err)
	}
	return resp.Items, nil
}

// NextUp returns the next unwatched episode of a series, or nil when the
// series has none.
func (c *Client) NextUp(ctx context.Context, seriesID string) (*Item, error) {
	var resp struct {
		Items []Item `json:"Items"`
	}
	path := "/Shows/NextUp?SeriesId=" + url.QueryEscape(seriesID) + "&Limit=1"
	if c.userID != "" {
		path += "&UserId=" + url.QueryEscape(c.userID)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("next up for %s: %w", seriesID, err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return &resp.Items[0], nil
}

// ReportStart tells the server playback began for a session.
func (c *Client) ReportStart(ctx context.Context, report PlaybackReport) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing", report, nil)
}

// ReportProgress sends a periodic position/state report.
func (c *Client) ReportProgress(ctx context.Context, report PlaybackReport) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Progress", report, nil)
}

// ReportStopped tells the server playback ended for a session.
func (c *Client) ReportStopped(ctx context.Context, report PlaybackReport) error {
	return c.do(ctx, http.MethodPost, "/Sessions/Playing/Stopped", report, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Emby-Token", c.token)
	req.Header.Set("X-Emby-Authorization", fmt.Sprintf(
		`MediaBrowser Client="%s", Device="%s", DeviceId="%s", Version="1.0"`,
		c.clientName, c.clientName, c.deviceID))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
