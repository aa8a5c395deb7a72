package setlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"setlist": [
		{
			"id": "abc123",
			"eventDate": "19-09-2024",
			"artist": {"name": "The Headliners"},
			"venue": {
				"name": "Scotiabank Arena",
				"city": {
					"name": "Toronto",
					"state": "Ontario",
					"coords": {"lat": 43.6434, "long": -79.3791},
					"country": {"name": "Canada"}
				}
			},
			"tour": {"name": "World Tour"}
		}
	]
}`

const setlistBody = `{
	"id": "abc123",
	"eventDate": "19-09-2024",
	"artist": {"name": "The Headliners"},
	"venue": {"name": "Scotiabank Arena", "city": {"name": "Toronto", "country": {"name": "Canada"}}},
	"sets": {
		"set": [
			{"song": [{"name": "Opener"}, {"name": "Purple Rain"}]},
			{"song": [{"name": "Encore"}, {"name": ""}]}
		]
	}
}`

func TestSearchEvents(t *testing.T) {
	var dates []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/setlists", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "Toronto", r.URL.Query().Get("cityName"))
		dates = append(dates, r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	events, err := client.SearchEvents(context.Background(), "Toronto", time.Date(2024, 9, 19, 21, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Three day-queries, but the same event id is reported once.
	assert.Equal(t, []string{"18-09-2024", "19-09-2024", "20-09-2024"}, dates)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "abc123", ev.ExternalID)
	assert.Equal(t, "The Headliners", ev.ArtistName)
	assert.Equal(t, "Scotiabank Arena", ev.VenueName)
	assert.Equal(t, "Toronto", ev.VenueCity)
	assert.Equal(t, "Canada", ev.VenueCountry)
	assert.Equal(t, "World Tour", ev.TourName)
	require.NotNil(t, ev.VenueLat)
	require.NotNil(t, ev.VenueLon)
	assert.InDelta(t, 43.6434, *ev.VenueLat, 1e-9)
	assert.InDelta(t, -79.3791, *ev.VenueLon, 1e-9)
	assert.Equal(t, time.Date(2024, 9, 19, 0, 0, 0, 0, time.UTC), ev.Date)
}

func TestSearchEventsEmptyOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	events, err := client.SearchEvents(context.Background(), "Nowhere", time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSearchEventsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.SearchEvents(context.Background(), "Toronto", time.Now())
	assert.Error(t, err)
}

func TestGetSetlist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/setlist/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(setlistBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	tracks, err := client.GetSetlist(context.Background(), "abc123")
	require.NoError(t, err)

	// Positions run across sets; unnamed entries are skipped.
	require.Len(t, tracks, 3)
	assert.Equal(t, Track{Title: "Opener", Order: 1}, tracks[0])
	assert.Equal(t, Track{Title: "Purple Rain", Order: 2}, tracks[1])
	assert.Equal(t, Track{Title: "Encore", Order: 3}, tracks[2])
}

func TestGetSetlistNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	tracks, err := client.GetSetlist(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestSearchEventsSkipsIncompleteRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"setlist": [
			{"id": "", "eventDate": "19-09-2024", "artist": {"name": "X"}, "venue": {"name": "Y"}},
			{"id": "ok", "eventDate": "bogus", "artist": {"name": "X"}, "venue": {"name": "Y"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	events, err := client.SearchEvents(context.Background(), "Toronto", time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)
}
