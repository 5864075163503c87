package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestVideo(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		w.Write([]byte(`{"items": [{
			"id": "abc123",
			"snippet": {
				"title": "Test Video",
				"channelId": "chan1",
				"channelTitle": "Test Channel",
				"publishedAt": "2026-01-15T10:00:00Z",
				"tags": ["go", "testing"]
			},
			"contentDetails": {
				"duration": "PT15M33S",
				"contentRating": {"ytRating": "ytAgeRestricted"}
			},
			"statistics": {"viewCount": "12345", "likeCount": "678", "commentCount": "90"}
		}]}`))
	})

	info, err := c.Video(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, "abc123", info.Metadata.VideoID)
	assert.Equal(t, "Test Video", info.Metadata.Title)
	assert.Equal(t, 933, info.Metadata.DurationSeconds)
	assert.Equal(t, int64(12345), info.Metadata.ViewCount)
	assert.Equal(t, int64(678), info.Metadata.LikeCount)
	assert.Equal(t, int64(90), info.Metadata.CommentCount)
	assert.Equal(t, []string{"go", "testing"}, info.Metadata.Tags)
	assert.True(t, info.AgeRestricted)
}

func TestVideo_NotFound(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	info, err := c.Video(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestVideo_APIError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Video(context.Background(), "abc123")
	assert.ErrorContains(t, err, "status 403")
}

func TestVideo_MissingAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Video(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestChannel(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		w.Write([]byte(`{"items": [{
			"snippet": {"title": "Test Channel"},
			"statistics": {"viewCount": "5000000", "subscriberCount": "100000", "videoCount": "250"}
		}]}`))
	})

	stats, err := c.Channel(context.Background(), "chan1")
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, "Test Channel", stats.Title)
	assert.Equal(t, int64(100000), stats.Subscribers)
	assert.Equal(t, int64(5000000), stats.TotalViews)
	assert.Equal(t, int64(250), stats.VideoCount)
}

func TestSearch(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "golang tutorial", r.URL.Query().Get("q"))
		assert.Equal(t, "viewCount", r.URL.Query().Get("order"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		w.Write([]byte(`{"items": [
			{"id": {"videoId": "v1"}, "snippet": {"title": "First", "channelTitle": "A"}},
			{"id": {"videoId": "v2"}, "snippet": {"title": "Second", "channelTitle": "B"}}
		]}`))
	})

	videos, err := c.Search(context.Background(), "golang tutorial", 5, time.Time{})
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v1", videos[0].VideoID)
	assert.Equal(t, "B", videos[1].Channel)
}
