// Package setlist is the client for the external setlist/event data source.
// It exposes the two capabilities the matching pipeline needs: search events
// by location and date, and fetch the ordered setlist for one event.
package setlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Event is one candidate live event returned by a search.
type Event struct {
	ExternalID   string
	ArtistName   string
	VenueName    string
	VenueCity    string
	VenueState   string
	VenueCountry string
	VenueLat     *float64
	VenueLon     *float64
	Date         time.Time
	TourName     string
}

// Track is one setlist entry, in performance order.
type Track struct {
	Title string
	Order int // 1-based position
}

// Client handles communication with the setlist API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new setlist API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Wire types. The API nests venue location and splits a show into sets; the
// mapping below flattens both.
type searchResponse struct {
	Setlist []setlistJSON `json:"setlist"`
}

type setlistJSON struct {
	ID        string `json:"id"`
	EventDate string `json:"eventDate"` // dd-MM-yyyy
	Artist    struct {
		Name string `json:"name"`
	} `json:"artist"`
	Venue struct {
		Name string `json:"name"`
		City struct {
			Name   string `json:"name"`
			State  string `json:"state"`
			Coords struct {
				Lat  *float64 `json:"lat"`
				Long *float64 `json:"long"`
			} `json:"coords"`
			Country struct {
				Name string `json:"name"`
			} `json:"country"`
		} `json:"city"`
	} `json:"venue"`
	Tour struct {
		Name string `json:"name"`
	} `json:"tour"`
	Sets struct {
		Set []struct {
			Song []struct {
				Name string `json:"name"`
			} `json:"song"`
		} `json:"set"`
	} `json:"sets"`
}

const eventDateLayout = "02-01-2006"

// SearchEvents looks up events in the given city on the given date (and the
// day either side, to cover shows spanning midnight).
func (c *Client) SearchEvents(ctx context.Context, city string, date time.Time) ([]Event, error) {
	events := make([]Event, 0, 4)
	seen := make(map[string]bool)

	for _, d := range []time.Time{date.AddDate(0, 0, -1), date, date.AddDate(0, 0, 1)} {
		page, err := c.searchDay(ctx, city, d)
		if err != nil {
			return nil, err
		}
		for _, ev := range page {
			if !seen[ev.ExternalID] {
				seen[ev.ExternalID] = true
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

func (c *Client) searchDay(ctx context.Context, city string, date time.Time) ([]Event, error) {
	q := url.Values{}
	if city != "" {
		q.Set("cityName", city)
	}
	q.Set("date", date.Format(eventDateLayout))

	searchURL := fmt.Sprintf("%s/search/setlists?%s", c.baseURL, q.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, searchURL, &resp); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(resp.Setlist))
	for _, s := range resp.Setlist {
		ev, err := mapEvent(s)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetSetlist fetches the ordered track list for one event. Track order is
// the 1-based position across all sets (main set, encore, ...).
func (c *Client) GetSetlist(ctx context.Context, externalID string) ([]Track, error) {
	getURL := fmt.Sprintf("%s/setlist/%s", c.baseURL, url.PathEscape(externalID))

	var s setlistJSON
	if err := c.getJSON(ctx, getURL, &s); err != nil {
		return nil, err
	}

	var tracks []Track
	order := 0
	for _, set := range s.Sets.Set {
		for _, song := range set.Song {
			if song.Name == "" {
				continue
			}
			order++
			tracks = append(tracks, Track{Title: song.Name, Order: order})
		}
	}
	return tracks, nil
}

func mapEvent(s setlistJSON) (Event, error) {
	date, err := time.Parse(eventDateLayout, s.EventDate)
	if err != nil {
		return Event{}, fmt.Errorf("bad event date %q: %w", s.EventDate, err)
	}
	if s.ID == "" || s.Artist.Name == "" || s.Venue.Name == "" {
		return Event{}, fmt.Errorf("incomplete event record %q", s.ID)
	}

	return Event{
		ExternalID:   s.ID,
		ArtistName:   s.Artist.Name,
		VenueName:    s.Venue.Name,
		VenueCity:    s.Venue.City.Name,
		VenueState:   s.Venue.City.State,
		VenueCountry: s.Venue.City.Country.Name,
		VenueLat:     s.Venue.City.Coords.Lat,
		VenueLon:     s.Venue.City.Coords.Long,
		Date:         date,
		TourName:     s.Tour.Name,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("setlist API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// An empty result set, not an error.
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("setlist API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode setlist response: %w", err)
	}
	return nil
}
