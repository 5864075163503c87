package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTimedtext = `{
	"events": [
		{"tStartMs": 0, "dDurationMs": 2000, "segs": [{"utf8": "hello "}, {"utf8": "world"}]},
		{"tStartMs": 2500, "dDurationMs": 1500, "segs": [{"utf8": "second line"}]},
		{"tStartMs": 4000, "dDurationMs": 1000},
		{"tStartMs": 5000, "dDurationMs": 1000, "segs": [{"utf8": "\n"}]}
	]
}`

func TestParseTimedtext(t *testing.T) {
	segments, err := parseTimedtext([]byte(sampleTimedtext))
	require.NoError(t, err)

	// events without segs or with whitespace-only text are dropped
	require.Len(t, segments, 2)

	assert.Equal(t, "hello world", segments[0].Text)
	assert.Equal(t, 0.0, segments[0].Start)
	assert.Equal(t, 2.0, segments[0].End)

	assert.Equal(t, "second line", segments[1].Text)
	assert.Equal(t, 2.5, segments[1].Start)
	assert.Equal(t, 4.0, segments[1].End)
}

func TestParseTimedtext_BadJSON(t *testing.T) {
	_, err := parseTimedtext([]byte("<html>not json</html>"))
	assert.Error(t, err)
}

func TestTranscribe_FromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid123", r.URL.Query().Get("v"))
		assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
		if r.URL.Query().Get("lang") != "en" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(sampleTimedtext))
	}))
	defer srv.Close()

	tr := NewTranscriber(nil)
	tr.baseURL = srv.URL

	result, err := tr.Transcribe(context.Background(), "vid123", "")
	require.NoError(t, err)

	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "hello world second line", result.FullText)
	assert.Len(t, result.Segments, 2)
	assert.Equal(t, 4.0, result.DurationSeconds)
	assert.Equal(t, "timedtext", result.Provider)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
}

func TestTranscribe_NoCaptionsReturnsEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := NewTranscriber(nil)
	tr.baseURL = srv.URL

	result, err := tr.Transcribe(context.Background(), "vid123", "")
	require.NoError(t, err)

	assert.Empty(t, result.FullText)
	assert.Empty(t, result.Segments)
	assert.Equal(t, "timedtext", result.Provider)
	assert.Equal(t, "vid123", result.VideoID)
}
