package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
)

var fixed = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func TestMockClients(t *testing.T) {
	tiktok := NewTikTok(config.PlatformConfig{}, WithClock(clock))
	got, err := tiktok.FetchTrends(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.RawTrend{
		Text:      "Dance Challenge 2024",
		Hashtags:  []string{"dance", "viral"},
		ViewCount: 1000000,
		Platform:  "TikTok",
		FetchedAt: fixed,
	}, got[0])

	twitter := NewTwitter(config.PlatformConfig{}, WithClock(clock))
	got, err = twitter.FetchTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(75000), got[1].ViewCount)
	assert.Equal(t, "Twitter", got[1].Platform)
	assert.False(t, twitter.Remote())
}

func TestRemoteFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trends", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"text":"Space Launch","tweet_count":4200,"hashtags":["space"]},{"text":"  "},{"text":"No Count"}]`))
	}))
	defer srv.Close()

	c := NewTwitter(config.PlatformConfig{BaseURL: srv.URL + "/", APIKey: "secret"}, WithClock(clock))
	got, err := c.FetchTrends(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4200), got[0].ViewCount)
	assert.Equal(t, int64(0), got[1].ViewCount)
}

func TestRemoteFetchRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"text":"Recovered","views":10}]`))
	}))
	defer srv.Close()

	c := NewTikTok(config.PlatformConfig{BaseURL: srv.URL},
		WithHTTPClient(xhttp.NewClient(xhttp.WithRetry(3, time.Millisecond))))
	got, err := c.FetchTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Recovered", got[0].Text)
}

func TestRemoteFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewTikTok(config.PlatformConfig{BaseURL: srv.URL},
		WithHTTPClient(xhttp.NewClient(xhttp.WithRetry(3, time.Millisecond))))
	_, err := c.FetchTrends(context.Background())
	require.Error(t, err)

	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestFallback(t *testing.T) {
	tiktok := Fallback(models.PlatformTikTok, fixed)
	require.Len(t, tiktok, 3)
	assert.Equal(t, "Morning Routine Challenge", tiktok[0].Text)
	assert.Equal(t, int64(2000000), tiktok[0].ViewCount)

	twitter := Fallback(models.PlatformTwitter, fixed)
	require.Len(t, twitter, 3)
	assert.Equal(t, int64(60000), twitter[2].ViewCount)

	assert.Nil(t, Fallback("MySpace", fixed))
}
