package mediaserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/couchpilot/internal/deviceprofile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:  srv.URL + "/", // trailing slash is trimmed
		Token:    "test-token",
		DeviceID: "device-1",
		UserID:   "user-1",
		Timeout:  5 * time.Second,
	}, hclog.NewNullLogger())
}

func TestPlaybackInfoNegotiation(t *testing.T) {
	var gotPath, gotToken, gotAuth string
	var gotBody map[string]json.RawMessage

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Emby-Token")
		gotAuth = r.Header.Get("X-Emby-Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(PlaybackInfoResponse{
			MediaSources: []MediaSource{{
				ID:                 "src-1",
				Container:          "mkv",
				SupportsDirectPlay: true,
			}},
		})
	})

	profile := deviceprofile.Build(0)
	resp, err := client.PlaybackInfo(context.Background(), "item 1", profile)
	require.NoError(t, err)

	assert.Equal(t, "/Items/item%201/PlaybackInfo", gotPath)
	assert.Equal(t, "test-token", gotToken)
	assert.Contains(t, gotAuth, `DeviceId="device-1"`)
	assert.Contains(t, string(gotBody["DeviceProfile"]), "DirectPlayProfiles")

	require.Len(t, resp.MediaSources, 1)
	assert.True(t, resp.MediaSources[0].SupportsDirectPlay)
}

func TestPlaybackInfoServerErrorCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PlaybackInfoResponse{ErrorCode: "NoCompatibleStream"})
	})

	_, err := client.PlaybackInfo(context.Background(), "item-1", deviceprofile.Build(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoCompatibleStream")
}

func TestItemFetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Users/user-1/Items/ep-9", r.URL.Path)
		json.NewEncoder(w).Encode(Item{
			ID: "ep-9", Name: "Pilot", Type: "Episode", SeriesID: "series-1",
		})
	})

	item, err := client.Item(context.Background(), "ep-9")
	require.NoError(t, err)
	assert.Equal(t, "Pilot", item.Name)
	assert.Equal(t, "series-1", item.SeriesID)
}

func TestSegmentsFetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/MediaSegments/item-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Items": []MediaSegment{
				{Type: "Intro", StartTicks: 50_000_000, EndTicks: 900_000_000},
			},
		})
	})

	segs, err := client.Segments(context.Background(), "item-1")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "Intro", segs[0].Type)
	assert.Equal(t, int64(900_000_000), segs[0].EndTicks)
}

func TestNextUp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "series-1", r.URL.Query().Get("SeriesId"))
		assert.Equal(t, "1", r.URL.Query().Get("Limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Items": []Item{{ID: "ep-10", IndexNumber: 10}},
		})
	})

	next, err := client.NextUp(context.Background(), "series-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "ep-10", next.ID)
}

func TestNextUpEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"Items": []Item{}})
	})

	next, err := client.NextUp(context.Background(), "series-1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestPlaybackReports(t *testing.T) {
	var paths []string
	var lastReport PlaybackReport
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastReport))
		w.WriteHeader(http.StatusNoContent)
	})

	report := PlaybackReport{
		ItemID:        "item-1",
		SessionID:     "sess-1",
		PositionTicks: 1_230_000_000,
		PlayMethod:    "DirectPlay",
	}
	ctx := context.Background()
	require.NoError(t, client.ReportStart(ctx, report))
	require.NoError(t, client.ReportProgress(ctx, report))
	require.NoError(t, client.ReportStopped(ctx, report))

	assert.Equal(t, []string{
		"/Sessions/Playing",
		"/Sessions/Playing/Progress",
		"/Sessions/Playing/Stopped",
	}, paths)
	assert.Equal(t, int64(1_230_000_000), lastReport.PositionTicks)
	assert.Equal(t, "sess-1", lastReport.SessionID)
}

func TestHTTPErrorSurface(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusUnauthorized)
	})

	_, err := client.Item(context.Background(), "item-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
