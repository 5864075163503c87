package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"video-analyzer/core/models"
)

const defaultAPIBase = "https://www.googleapis.com/youtube/v3"

// Client is a thin client for the YouTube Data API v3
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Data API client. An empty API key is allowed; calls
// will fail with ErrAPIKeyMissing so callers can degrade gracefully.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultAPIBase,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ErrAPIKeyMissing indicates the client was built without credentials
var ErrAPIKeyMissing = fmt.Errorf("youtube api key not configured")

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ChannelID    string   `json:"channelId"`
			ChannelTitle string   `json:"channelTitle"`
			PublishedAt  string   `json:"publishedAt"`
			Tags         []string `json:"tags"`
			CategoryID   string   `json:"categoryId"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration      string `json:"duration"`
			ContentRating struct {
				YTRating string `json:"ytRating"`
			} `json:"contentRating"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// VideoInfo bundles metadata with availability flags
type VideoInfo struct {
	Metadata      models.VideoMetadata
	AgeRestricted bool
}

// Video fetches snippet, content details, and statistics for one video.
// Returns (nil, nil) when the video does not exist.
func (c *Client) Video(ctx context.Context, videoID string) (*VideoInfo, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", videoID)

	var resp videoListResponse
	if err := c.get(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	return &VideoInfo{
		Metadata: models.VideoMetadata{
			VideoID:         item.ID,
			Title:           item.Snippet.Title,
			Description:     item.Snippet.Description,
			ChannelID:       item.Snippet.ChannelID,
			ChannelTitle:    item.Snippet.ChannelTitle,
			DurationSeconds: parseISODuration(item.ContentDetails.Duration),
			ViewCount:       parseCount(item.Statistics.ViewCount),
			LikeCount:       parseCount(item.Statistics.LikeCount),
			CommentCount:    parseCount(item.Statistics.CommentCount),
			PublishedAt:     item.Snippet.PublishedAt,
			Tags:            item.Snippet.Tags,
			CategoryID:      item.Snippet.CategoryID,
		},
		AgeRestricted: item.ContentDetails.ContentRating.YTRating == "ytAgeRestricted",
	}, nil
}

type channelListResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount             string `json:"viewCount"`
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
			VideoCount            string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// ChannelStats holds channel-level statistics
type ChannelStats struct {
	Title       string
	Subscribers int64
	TotalViews  int64
	VideoCount  int64
}

// Channel fetches statistics for a channel. Returns (nil, nil) when the
// channel does not exist.
func (c *Client) Channel(ctx context.Context, channelID string) (*ChannelStats, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)

	var resp channelListResponse
	if err := c.get(ctx, "/channels", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	return &ChannelStats{
		Title:       item.Snippet.Title,
		Subscribers: parseCount(item.Statistics.SubscriberCount),
		TotalViews:  parseCount(item.Statistics.ViewCount),
		VideoCount:  parseCount(item.Statistics.VideoCount),
	}, nil
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search returns recent popular videos matching a query, ordered by view
// count.
func (c *Client) Search(ctx context.Context, query string, maxResults int, publishedAfter time.Time) ([]models.SimilarVideo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "viewCount")
	params.Set("maxResults", strconv.Itoa(maxResults))
	if !publishedAfter.IsZero() {
		params.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
	}

	var resp searchListResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.SimilarVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, models.SimilarVideo{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrAPIKeyMissing
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode youtube api response: %w", err)
	}
	return nil
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseISODuration converts an ISO 8601 duration (PT#H#M#S) to seconds
func parseISODuration(d string) int {
	d = strings.TrimPrefix(d, "PT")
	seconds := 0
	num := ""
	for _, r := range d {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H':
			n, _ := strconv.Atoi(num)
			seconds += n * 3600
			num = ""
		case r == 'M':
			n, _ := strconv.Atoi(num)
			seconds += n * 60
			num = ""
		case r == 'S':
			n, _ := strconv.Atoi(num)
			seconds += n
			num = ""
		default:
			num = ""
		}
	}
	return seconds
}
