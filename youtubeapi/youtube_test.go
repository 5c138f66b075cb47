package youtubeapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/onnwee/ytchat-relay/config"
	"github.com/onnwee/ytchat-relay/testutil"
)

func TestNewDisabled(t *testing.T) {
	_, err := New(context.Background(), Credentials{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
	// partial oauth settings are not enough
	_, err = New(context.Background(), Credentials{ClientID: "id", ClientSecret: "secret"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestCredentialsFromConfig(t *testing.T) {
	c := CredentialsFromConfig(&config.Config{YTAPIKey: "k", YTClientID: "id", YTClientSecret: "s", YTRefreshToken: "r"})
	if c.APIKey != "k" || c.ClientID != "id" || c.ClientSecret != "s" || c.RefreshToken != "r" {
		t.Fatalf("unexpected credentials %+v", c)
	}
}

func TestLiveChatURL(t *testing.T) {
	if got, want := LiveChatURL("abc123"), "https://www.youtube.com/live_chat?is_popout=1&v=abc123"; got != want {
		t.Errorf("LiveChatURL = %q, want %q", got, want)
	}
}

func TestLookupStreamAPIKey(t *testing.T) {
	mock := testutil.NewMockYouTubeServer(t)
	mock.MockVideosResponse(testutil.MockVideo{
		ID:             "vid1",
		Title:          "Sunday stream",
		Channel:        "Some Channel",
		LiveContent:    "live",
		LiveChatID:     "chat-xyz",
		ActualStart:    "2024-05-01T12:00:00Z",
		ConcurrentView: "42",
	})

	svc, err := New(context.Background(), Credentials{APIKey: "test-key"}, option.WithEndpoint(mock.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st, err := svc.LookupStream(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("LookupStream: %v", err)
	}
	if st.Title != "Sunday stream" || st.Channel != "Some Channel" || !st.Live || st.LiveChatID != "chat-xyz" {
		t.Errorf("unexpected stream %+v", st)
	}
	if st.ActualStart == nil || !st.ActualStart.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ActualStart = %v", st.ActualStart)
	}
	if st.Viewers != 42 {
		t.Errorf("Viewers = %d, want 42", st.Viewers)
	}
	if st.ChatURL != LiveChatURL("vid1") {
		t.Errorf("ChatURL = %q", st.ChatURL)
	}

	reqs := mock.Requests()
	if len(reqs) == 0 || reqs[len(reqs)-1].URL.Query().Get("key") != "test-key" {
		t.Error("api key not sent")
	}
}

func TestLookupStreamNotFound(t *testing.T) {
	mock := testutil.NewMockYouTubeServer(t)
	mock.MockVideosResponse()
	svc, err := New(context.Background(), Credentials{APIKey: "k"}, option.WithEndpoint(mock.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := svc.LookupStream(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.LookupStream(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestLookupStreamOAuthRefresh(t *testing.T) {
	mock := testutil.NewMockYouTubeServer(t)
	mock.MockOAuthTokenResponse("fresh-access", 3600)
	mock.MockVideosResponse(testutil.MockVideo{ID: "vid2", Title: "Upcoming", LiveContent: "upcoming"})

	creds := Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh", TokenURL: mock.URL + "/token"}
	svc, err := New(context.Background(), creds, option.WithEndpoint(mock.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st, err := svc.LookupStream(context.Background(), "vid2")
	if err != nil {
		t.Fatalf("LookupStream: %v", err)
	}
	if st.Live {
		t.Error("upcoming stream reported live")
	}
	if st.ActualStart != nil || st.Viewers != 0 {
		t.Errorf("upcoming stream has live details: %+v", st)
	}

	// not started yet: the status payload carries no zero start time
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "actualStart") {
		t.Errorf("zero start time serialized: %s", b)
	}

	var sawBearer bool
	for _, r := range mock.Requests() {
		if r.Header.Get("Authorization") == "Bearer fresh-access" {
			sawBearer = true
		}
	}
	if !sawBearer {
		t.Error("refreshed access token not used")
	}
}
