// Package youtubeapi looks up live stream metadata through the YouTube Data
// API. It authenticates with an API key or, failing that, with an OAuth2
// refresh token.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/ytchat-relay/config"
)

const readonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

var (
	// ErrDisabled is returned by New when no credential is configured.
	ErrDisabled = errors.New("youtube api disabled: no credentials")
	// ErrNotFound is returned when the video id does not exist.
	ErrNotFound = errors.New("youtube video not found")
)

// Credentials selects the auth mode. APIKey wins when set.
type Credentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RefreshToken string
	// TokenURL overrides Google's token endpoint.
	TokenURL string
}

// CredentialsFromConfig copies the YT_* settings.
func CredentialsFromConfig(cfg *config.Config) Credentials {
	return Credentials{
		APIKey:       cfg.YTAPIKey,
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		RefreshToken: cfg.YTRefreshToken,
	}
}

func (c Credentials) oauthReady() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Service wraps the generated YouTube client.
type Service struct {
	svc *yt.Service
}

// Stream is the subset of video metadata the relay reports.
type Stream struct {
	VideoID     string     `json:"videoId"`
	Title       string     `json:"title"`
	Channel     string     `json:"channel"`
	LiveChatID  string     `json:"liveChatId,omitempty"`
	ActualStart *time.Time `json:"actualStart,omitempty"`
	Viewers     uint64     `json:"viewers,omitempty"`
	Live        bool       `json:"live"`
	ChatURL     string     `json:"chatUrl"`
}

// New builds a client from creds. Extra options (endpoint overrides in tests)
// are appended.
func New(ctx context.Context, creds Credentials, opts ...option.ClientOption) (*Service, error) {
	var base []option.ClientOption
	switch {
	case creds.APIKey != "":
		base = append(base, option.WithAPIKey(creds.APIKey))
	case creds.oauthReady():
		endpoint := google.Endpoint
		if creds.TokenURL != "" {
			endpoint.TokenURL = creds.TokenURL
		}
		oc := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{readonlyScope},
		}
		ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
		base = append(base, option.WithTokenSource(ts))
	default:
		return nil, ErrDisabled
	}
	svc, err := yt.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// LookupStream fetches title, channel and live details for videoID.
func (s *Service) LookupStream(ctx context.Context, videoID string) (*Stream, error) {
	if videoID == "" {
		return nil, fmt.Errorf("lookup stream: empty video id")
	}
	res, err := s.svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	v := res.Items[0]
	st := &Stream{VideoID: v.Id, ChatURL: LiveChatURL(videoID)}
	if v.Snippet != nil {
		st.Title = v.Snippet.Title
		st.Channel = v.Snippet.ChannelTitle
		st.Live = v.Snippet.LiveBroadcastContent == "live"
	}
	if d := v.LiveStreamingDetails; d != nil {
		st.LiveChatID = d.ActiveLiveChatId
		st.Viewers = d.ConcurrentViewers
		if d.ActualStartTime != "" {
			if t, err := time.Parse(time.RFC3339, d.ActualStartTime); err == nil {
				st.ActualStart = &t
			}
		}
	}
	return st, nil
}

// LiveChatURL is the popout live-chat page for videoID.
func LiveChatURL(videoID string) string {
	return "https://www.youtube.com/live_chat?is_popout=1&v=" + url.QueryEscape(videoID)
}
