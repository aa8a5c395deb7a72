package service

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"time"

	"stagesnap/concert-app/internal/config"
	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/setlist"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventSource is the external setlist/event capability the resolver and the
// enrichment service depend on.
type EventSource interface {
	SearchEvents(ctx context.Context, city string, date time.Time) ([]setlist.Event, error)
	GetSetlist(ctx context.Context, externalID string) ([]setlist.Track, error)
}

// ConcertResolveInput carries everything concert resolution needs. The caller
// only invokes resolution when latitude, longitude and recordedAt are all
// present.
type ConcertResolveInput struct {
	VideoID      primitive.ObjectID
	UserID       primitive.ObjectID
	Latitude     float64
	Longitude    float64
	RecordedAt   time.Time
	LocationCity string
}

// ConcertResolveResult is the resolver's outcome. Success=false covers both
// "no concert found" and "something failed"; resolution is best effort and
// never blocks an upload.
type ConcertResolveResult struct {
	Success bool
	Match   *domain.ConcertMatch
}

// ConcertService resolves uploads to concerts and serves the browse side of
// the catalog.
type ConcertService interface {
	Resolve(ctx context.Context, in ConcertResolveInput) ConcertResolveResult
	ListConcerts(ctx context.Context, limit int64) ([]domain.Concert, error)
	GetConcert(ctx context.Context, id primitive.ObjectID) (*domain.Concert, []domain.Song, error)
}

type concertService struct {
	concertRepo  repository.ConcertRepository
	venueRepo    repository.VenueRepository
	artistRepo   repository.ArtistRepository
	songRepo     repository.SongRepository
	videoRepo    repository.VideoRepository
	attendeeRepo repository.AttendeeRepository
	events       EventSource
	enrichment   SetlistService
	policy       config.MatchingConfig
}

// NewConcertService creates a new instance of concertService.
func NewConcertService(
	concertRepo repository.ConcertRepository,
	venueRepo repository.VenueRepository,
	artistRepo repository.ArtistRepository,
	songRepo repository.SongRepository,
	videoRepo repository.VideoRepository,
	attendeeRepo repository.AttendeeRepository,
	events EventSource,
	enrichment SetlistService,
	policy config.MatchingConfig,
) ConcertService {
	return &concertService{
		concertRepo:  concertRepo,
		venueRepo:    venueRepo,
		artistRepo:   artistRepo,
		songRepo:     songRepo,
		videoRepo:    videoRepo,
		attendeeRepo: attendeeRepo,
		events:       events,
		enrichment:   enrichment,
		policy:       policy,
	}
}

// Resolve maps an upload's GPS+time to a concert. It tries the local catalog
// first, falls back to the external event source, enriches a never-enriched
// concert's setlist, links the video, and records attendance. Every failure
// degrades to Success=false.
func (s *concertService) Resolve(ctx context.Context, in ConcertResolveInput) ConcertResolveResult {
	match, concert, err := s.findLocalMatch(ctx, in)
	if err != nil {
		log.Printf("ERROR: concert resolution (local catalog) failed for video %s: %v", in.VideoID.Hex(), err)
		return ConcertResolveResult{}
	}

	if match == nil {
		match, concert, err = s.findExternalMatch(ctx, in)
		if err != nil {
			log.Printf("ERROR: concert resolution (external source) failed for video %s: %v", in.VideoID.Hex(), err)
			return ConcertResolveResult{}
		}
		if match == nil {
			// Expected non-match: nothing played here that night.
			return ConcertResolveResult{}
		}
	}

	// First confident sighting of a never-enriched concert: fetch its setlist
	// now so this video's song matching has titles to cross-reference.
	count, err := s.songRepo.CountByConcertID(ctx, concert.ID)
	if err == nil && count == 0 {
		if _, err := s.enrichment.EnrichConcert(ctx, concert); err != nil {
			log.Printf("WARN: setlist enrichment failed for concert %s: %v", concert.ID.Hex(), err)
		}
	}

	if err := s.videoRepo.SetConcert(ctx, in.VideoID, concert.ID); err != nil {
		log.Printf("ERROR: failed to link video %s to concert %s: %v", in.VideoID.Hex(), concert.ID.Hex(), err)
		return ConcertResolveResult{}
	}

	// The upload's GPS put the user at the venue; that is attendance. The
	// unique (userId, concertId) index makes repeats a no-op.
	if err := s.attendeeRepo.Add(ctx, in.UserID, concert.ID); err != nil {
		log.Printf("WARN: failed to record attendance for user %s at concert %s: %v", in.UserID.Hex(), concert.ID.Hex(), err)
	}

	return ConcertResolveResult{Success: true, Match: match}
}

// scoredCandidate pairs a concert with its geo/time scores for ranking.
type scoredCandidate struct {
	concert  domain.Concert
	distance float64
	dayDiff  int
}

// findLocalMatch scores catalog concerts within the date window against the
// upload's position and returns the best within bounds, or nil.
func (s *concertService) findLocalMatch(ctx context.Context, in ConcertResolveInput) (*domain.ConcertMatch, *domain.Concert, error) {
	window := time.Duration(s.policy.MaxDateDiffDays) * 24 * time.Hour
	from := in.RecordedAt.Add(-window - 24*time.Hour)
	to := in.RecordedAt.Add(window + 24*time.Hour)

	concerts, err := s.concertRepo.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	if len(concerts) == 0 {
		return nil, nil, nil
	}

	venueIDs := make([]primitive.ObjectID, 0, len(concerts))
	for _, c := range concerts {
		venueIDs = append(venueIDs, c.VenueID)
	}
	venues, err := s.venueRepo.GetByIDs(ctx, venueIDs)
	if err != nil {
		return nil, nil, err
	}

	var candidates []scoredCandidate
	for _, c := range concerts {
		venue := venues[c.VenueID]
		if venue == nil || venue.Latitude == nil || venue.Longitude == nil {
			continue
		}
		dist := haversineMeters(in.Latitude, in.Longitude, *venue.Latitude, *venue.Longitude)
		dayDiff := calendarDayDiff(in.RecordedAt, c.ConcertDate)
		if dist > s.policy.MaxDistanceMeters || dayDiff > s.policy.MaxDateDiffDays {
			continue
		}
		candidates = append(candidates, scoredCandidate{concert: c, distance: dist, dayDiff: dayDiff})
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	// Closest wins; same distance falls back to the tighter date.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].dayDiff < candidates[j].dayDiff
	})

	best := candidates[0]
	match := &domain.ConcertMatch{
		ConcertID:      best.concert.ID,
		ArtistID:       best.concert.ArtistID,
		VenueID:        best.concert.VenueID,
		Confidence:     s.confidenceLabel(best.distance, best.dayDiff),
		DistanceMeters: best.distance,
		DaysDifference: best.dayDiff,
		Details:        "matched against local catalog",
	}
	concert := best.concert
	return match, &concert, nil
}

// findExternalMatch queries the event source and, on a hit, find-or-creates
// the artist, venue and concert rows. The upsert keyed by external id keeps
// concurrent first-sightings from duplicating the concert.
func (s *concertService) findExternalMatch(ctx context.Context, in ConcertResolveInput) (*domain.ConcertMatch, *domain.Concert, error) {
	events, err := s.events.SearchEvents(ctx, in.LocationCity, in.RecordedAt)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return nil, nil, nil
	}

	best, dist, hasDist := pickBestEvent(events, in)
	if best == nil {
		return nil, nil, nil
	}

	artist, err := s.artistRepo.FindOrCreateByName(ctx, best.ArtistName)
	if err != nil {
		return nil, nil, err
	}

	venue := &domain.Venue{
		Name:      best.VenueName,
		City:      best.VenueCity,
		State:     best.VenueState,
		Country:   best.VenueCountry,
		Latitude:  best.VenueLat,
		Longitude: best.VenueLon,
	}
	venue, err = s.venueRepo.FindOrCreate(ctx, venue)
	if err != nil {
		return nil, nil, err
	}

	concert, err := s.concertRepo.UpsertByExternalID(ctx, &domain.Concert{
		ArtistID:          artist.ID,
		VenueID:           venue.ID,
		ConcertDate:       best.Date,
		TourName:          best.TourName,
		ExternalSetlistID: best.ExternalID,
	})
	if err != nil {
		return nil, nil, err
	}

	dayDiff := calendarDayDiff(in.RecordedAt, concert.ConcertDate)
	confidence := domain.ConcertConfidenceLow
	if hasDist {
		confidence = s.confidenceLabel(dist, dayDiff)
	}

	match := &domain.ConcertMatch{
		ConcertID:      concert.ID,
		ArtistID:       artist.ID,
		VenueID:        venue.ID,
		Confidence:     confidence,
		DistanceMeters: dist,
		DaysDifference: dayDiff,
		Details:        "resolved via external event search",
	}
	return match, concert, nil
}

// pickBestEvent selects the geographically closest in-bounds event; events
// without coordinates are only considered when none carry coordinates, and
// then the tightest date wins.
func pickBestEvent(events []setlist.Event, in ConcertResolveInput) (best *setlist.Event, distance float64, hasDistance bool) {
	bestDist := math.MaxFloat64
	bestDay := math.MaxInt32
	for i := range events {
		ev := &events[i]
		if ev.VenueLat != nil && ev.VenueLon != nil {
			d := haversineMeters(in.Latitude, in.Longitude, *ev.VenueLat, *ev.VenueLon)
			if d < bestDist {
				bestDist = d
				best = ev
				hasDistance = true
			}
			continue
		}
		if hasDistance {
			continue
		}
		dd := calendarDayDiff(in.RecordedAt, ev.Date)
		if dd < bestDay {
			bestDay = dd
			best = ev
		}
	}
	if hasDistance {
		return best, bestDist, true
	}
	return best, 0, false
}

// confidenceLabel turns raw distance/date scores into the discrete policy
// label: high means effectively standing at the venue on show night.
func (s *concertService) confidenceLabel(distanceMeters float64, dayDiff int) domain.ConcertConfidence {
	if distanceMeters <= s.policy.HighConfidenceMeters && dayDiff == 0 {
		return domain.ConcertConfidenceHigh
	}
	if distanceMeters <= s.policy.MaxDistanceMeters && dayDiff <= s.policy.MaxDateDiffDays {
		return domain.ConcertConfidenceMedium
	}
	return domain.ConcertConfidenceLow
}

// ListConcerts returns recent concerts for browsing.
func (s *concertService) ListConcerts(ctx context.Context, limit int64) ([]domain.Concert, error) {
	return s.concertRepo.List(ctx, limit)
}

// GetConcert returns a concert and its setlist.
func (s *concertService) GetConcert(ctx context.Context, id primitive.ObjectID) (*domain.Concert, []domain.Song, error) {
	concert, err := s.concertRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	songs, err := s.songRepo.GetByConcertID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return concert, songs, nil
}

// --- geo/time helpers ---

const earthRadiusMeters = 6371000.0

// haversineMeters is the great-circle distance between two coordinates.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// calendarDayDiff is the absolute difference in calendar days (UTC) between
// two instants. A 1 AM recording of a show that started the previous evening
// scores 1, which still sits inside the default window.
func calendarDayDiff(a, b time.Time) int {
	au := a.UTC()
	bu := b.UTC()
	ad := time.Date(au.Year(), au.Month(), au.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(bu.Year(), bu.Month(), bu.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
