package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"stagesnap/concert-app/internal/config"
	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/media"
	"stagesnap/concert-app/internal/recognition"
	repo "stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/setlist"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes mirroring the repository semantics the services rely on:
// unique keys, idempotent upserts, duplicate-tolerant bulk inserts. Shared by
// the service test files.

type fakeArtistRepo struct {
	mu      sync.Mutex
	byName  map[string]*domain.Artist
	byID    map[primitive.ObjectID]*domain.Artist
	failAll bool
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{
		byName: make(map[string]*domain.Artist),
		byID:   make(map[primitive.ObjectID]*domain.Artist),
	}
}

func (f *fakeArtistRepo) FindOrCreateByName(_ context.Context, name string) (*domain.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("artist repo down")
	}
	if a, ok := f.byName[name]; ok {
		return a, nil
	}
	a := &domain.Artist{ID: primitive.NewObjectID(), Name: name}
	f.byName[name] = a
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeArtistRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, repo.ErrNotFound
}

type fakeVenueRepo struct {
	mu     sync.Mutex
	byName map[string]*domain.Venue
	byID   map[primitive.ObjectID]*domain.Venue
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{
		byName: make(map[string]*domain.Venue),
		byID:   make(map[primitive.ObjectID]*domain.Venue),
	}
}

func (f *fakeVenueRepo) FindOrCreate(_ context.Context, venue *domain.Venue) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.byName[venue.Name]; ok {
		return v, nil
	}
	v := *venue
	v.ID = primitive.NewObjectID()
	f.byName[v.Name] = &v
	f.byID[v.ID] = &v
	return &v, nil
}

func (f *fakeVenueRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.byID[id]; ok {
		return v, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeVenueRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[primitive.ObjectID]*domain.Venue, len(ids))
	for _, id := range ids {
		if v, ok := f.byID[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// add seeds a venue directly, returning its id.
func (f *fakeVenueRepo) add(name string, lat, lon float64) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &domain.Venue{ID: primitive.NewObjectID(), Name: name, Latitude: &lat, Longitude: &lon}
	f.byName[name] = v
	f.byID[v.ID] = v
	return v.ID
}

type fakeConcertRepo struct {
	mu         sync.Mutex
	concerts   map[primitive.ObjectID]*domain.Concert
	byExternal map[string]*domain.Concert
}

func newFakeConcertRepo() *fakeConcertRepo {
	return &fakeConcertRepo{
		concerts:   make(map[primitive.ObjectID]*domain.Concert),
		byExternal: make(map[string]*domain.Concert),
	}
}

func (f *fakeConcertRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Concert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.concerts[id]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeConcertRepo) GetByExternalSetlistID(_ context.Context, externalID string) (*domain.Concert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byExternal[externalID]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeConcertRepo) FindByDateRange(_ context.Context, from, to time.Time) ([]domain.Concert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Concert
	for _, c := range f.concerts {
		if !c.ConcertDate.Before(from) && !c.ConcertDate.After(to) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// UpsertByExternalID mimics the unique-index-backed upsert: the first writer
// for an external id wins and every later writer gets the same row back.
func (f *fakeConcertRepo) UpsertByExternalID(_ context.Context, concert *domain.Concert) (*domain.Concert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byExternal[concert.ExternalSetlistID]; ok {
		return existing, nil
	}
	c := *concert
	c.ID = primitive.NewObjectID()
	f.concerts[c.ID] = &c
	f.byExternal[c.ExternalSetlistID] = &c
	return &c, nil
}

func (f *fakeConcertRepo) List(_ context.Context, limit int64) ([]domain.Concert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Concert
	for _, c := range f.concerts {
		out = append(out, *c)
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// add seeds a concert directly, returning its id.
func (f *fakeConcertRepo) add(c domain.Concert) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.concerts[c.ID] = &c
	if c.ExternalSetlistID != "" {
		f.byExternal[c.ExternalSetlistID] = &c
	}
	return c.ID
}

func (f *fakeConcertRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.concerts)
}

type fakeSongRepo struct {
	mu    sync.Mutex
	songs []domain.Song

	createManyErr error
	getErr        error
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{}
}

// CreateMany enforces the (concertId, orderInSetlist) uniqueness the real
// collection carries: duplicate positions are skipped, not errors.
func (f *fakeSongRepo) CreateMany(_ context.Context, songs []domain.Song) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createManyErr != nil {
		return 0, f.createManyErr
	}
	created := 0
	for _, s := range songs {
		if f.hasPositionLocked(s.ConcertID, s.OrderInSetlist) {
			continue
		}
		s.ID = primitive.NewObjectID()
		f.songs = append(f.songs, s)
		created++
	}
	return created, nil
}

func (f *fakeSongRepo) hasPositionLocked(concertID primitive.ObjectID, order int) bool {
	for _, s := range f.songs {
		if s.ConcertID == concertID && s.OrderInSetlist == order {
			return true
		}
	}
	return false
}

func (f *fakeSongRepo) GetByConcertID(_ context.Context, concertID primitive.ObjectID) ([]domain.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []domain.Song
	for _, s := range f.songs {
		if s.ConcertID == concertID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) CountByConcertID(_ context.Context, concertID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.songs {
		if s.ConcertID == concertID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSongRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.songs {
		if f.songs[i].ID == id {
			return &f.songs[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]*domain.Video

	createErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[primitive.ObjectID]*domain.Video)}
}

func (f *fakeVideoRepo) Create(_ context.Context, video *domain.Video) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	v := *video
	v.ID = primitive.NewObjectID()
	v.UploadedAt = time.Now()
	f.videos[v.ID] = &v
	return v.ID, nil
}

func (f *fakeVideoRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.videos[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeVideoRepo) GetByConcertID(_ context.Context, concertID primitive.ObjectID) ([]domain.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Video
	for _, v := range f.videos {
		if v.ConcertID != nil && *v.ConcertID == concertID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) SetConcert(_ context.Context, videoID, concertID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return repo.ErrNotFound
	}
	v.ConcertID = &concertID
	return nil
}

func (f *fakeVideoRepo) SetSong(_ context.Context, videoID, songID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return repo.ErrNotFound
	}
	v.SongID = &songID
	return nil
}

func (f *fakeVideoRepo) IncrementViews(_ context.Context, videoID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return repo.ErrNotFound
	}
	v.ViewsCount++
	return nil
}

type fakeAttendeeRepo struct {
	mu    sync.Mutex
	pairs map[[2]primitive.ObjectID]bool
	adds  int
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{pairs: make(map[[2]primitive.ObjectID]bool)}
}

func (f *fakeAttendeeRepo) Add(_ context.Context, userID, concertID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	f.pairs[[2]primitive.ObjectID{userID, concertID}] = true
	return nil
}

func (f *fakeAttendeeRepo) attendeeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs)
}

type fakeEventSource struct {
	mu        sync.Mutex
	events    []setlist.Event
	tracks    map[string][]setlist.Track
	searchErr error
	getErr    error
	searches  int
	fetches   int
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{tracks: make(map[string][]setlist.Track)}
}

func (f *fakeEventSource) SearchEvents(_ context.Context, _ string, _ time.Time) ([]setlist.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.events, nil
}

func (f *fakeEventSource) GetSetlist(_ context.Context, externalID string) ([]setlist.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.tracks[externalID], nil
}

type fakeRecognizer struct {
	match *recognition.Match
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (*recognition.Match, error) {
	f.calls++
	return f.match, f.err
}

type stubExtractor struct {
	meta media.Metadata
}

func (s *stubExtractor) Extract(_ context.Context, _ string) media.Metadata {
	return s.meta
}

type fakeStorage struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
}

func (f *fakeStorage) Upload(_ context.Context, objectKey string, body io.Reader, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, objectKey)
	return "http://storage.local/bucket/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "http://storage.local/presigned/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, objectKey)
	return nil
}

// testPolicy is the matching policy used across the service tests.
func testPolicy() config.MatchingConfig {
	return config.MatchingConfig{
		MaxDistanceMeters:    2000,
		HighConfidenceMeters: 200,
		MaxDateDiffDays:      1,
		MinTitleSimilarity:   0.75,
		ClipSeconds:          20,
	}
}
