package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClientWithHTTP(srv.Client(), srv.URL)
	c.rateLimiter = newRateLimiter(0)
	return c
}

func TestGetActivities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "1700000000", r.URL.Query().Get("after"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("X-RateLimit-Usage", "10,200")
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		fmt.Fprint(w, `[{
			"id": 99, "name": "Lunch Ride", "type": "Ride",
			"start_date": "2024-05-01T11:00:00Z",
			"moving_time": 3600, "average_watts": 190.5,
			"weighted_average_watts": 212, "device_watts": true
		}]`)
	})

	activities, err := c.GetActivities(context.Background(), time.Unix(1700000000, 0), 2, 50)
	require.NoError(t, err)
	require.Len(t, activities, 1)

	a := activities[0]
	assert.Equal(t, int64(99), a.ID)
	assert.Equal(t, "Lunch Ride", a.Name)
	assert.Equal(t, 190.5, a.AverageWatts)
	assert.Equal(t, 212.0, a.WeightedAverageWatts)
	assert.True(t, a.DeviceWatts)

	short, daily := c.RateLimitStatus()
	assert.Equal(t, 90, short)
	assert.Equal(t, 800, daily)
}

func TestGetAllActivities_Paginates(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, "[")
			for i := 0; i < maxPerPage; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id": %d, "type": "Ride"}`, i+1)
			}
			fmt.Fprint(w, "]")
			return
		}
		fmt.Fprint(w, `[{"id": 1000, "type": "Run"}]`)
	})

	var progress []int
	activities, err := c.GetAllActivities(context.Background(), time.Time{}, func(n int) {
		progress = append(progress, n)
	})
	require.NoError(t, err)

	assert.Len(t, activities, maxPerPage+1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{maxPerPage, maxPerPage + 1}, progress)
}

func TestGetActivityStreams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/7/streams", r.URL.Path)
		assert.Equal(t, "time,watts,heartrate", r.URL.Query().Get("keys"))
		fmt.Fprint(w, `{
			"time": {"data": [0, 1, 2]},
			"watts": {"data": [150, 210, 0]},
			"heartrate": {"data": [120, 125, 130]}
		}`)
	})

	streams, err := c.GetActivityStreams(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 3, streams.Len())
	assert.True(t, streams.HasWatts())
	assert.True(t, streams.HasHeartrate())
	assert.Equal(t, []float64{150, 210, 0}, streams.Watts.Data)
}

func TestClient_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/activities/1/streams" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "bad token", http.StatusUnauthorized)
	})

	_, err := c.GetActivityStreams(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.GetActivities(context.Background(), time.Time{}, 1, 10)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestIsRide(t *testing.T) {
	for _, typ := range []string{"Ride", "VirtualRide", "GravelRide", "MountainBikeRide", "EBikeRide"} {
		assert.True(t, IsRide(typ), typ)
	}
	for _, typ := range []string{"Run", "Swim", "Walk", ""} {
		assert.False(t, IsRide(typ), typ)
	}
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	r := newRateLimiter(time.Hour)
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

func TestParsePair(t *testing.T) {
	a, b, ok := parsePair("34, 512")
	assert.True(t, ok)
	assert.Equal(t, 34, a)
	assert.Equal(t, 512, b)

	_, _, ok = parsePair("")
	assert.False(t, ok)
	_, _, ok = parsePair("x,1")
	assert.False(t, ok)
}
