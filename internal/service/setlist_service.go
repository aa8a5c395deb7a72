package service

import (
	"context"
	"log"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"
)

// SetlistService populates a concert's song list from the external source.
type SetlistService interface {
	// EnrichConcert fetches the concert's setlist and inserts Song rows in
	// performance order. Returns how many songs were created.
	EnrichConcert(ctx context.Context, concert *domain.Concert) (int, error)
}

type setlistService struct {
	songRepo repository.SongRepository
	events   EventSource
}

// NewSetlistService creates a new instance of setlistService.
func NewSetlistService(songRepo repository.SongRepository, events EventSource) SetlistService {
	return &setlistService{
		songRepo: songRepo,
		events:   events,
	}
}

// EnrichConcert is idempotent: a concert that already has songs is left
// untouched. Under a genuine race two enrichments may both pass the guard;
// the unique (concertId, orderInSetlist) index then rejects the loser's rows,
// so the setlist never holds duplicate positions either way.
func (s *setlistService) EnrichConcert(ctx context.Context, concert *domain.Concert) (int, error) {
	if concert.ExternalSetlistID == "" {
		// Manually created concert; nothing to enrich from.
		return 0, nil
	}

	existing, err := s.songRepo.CountByConcertID(ctx, concert.ID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	tracks, err := s.events.GetSetlist(ctx, concert.ExternalSetlistID)
	if err != nil {
		return 0, err
	}
	if len(tracks) == 0 {
		log.Printf("INFO: external source has no setlist yet for concert %s", concert.ID.Hex())
		return 0, nil
	}

	songs := make([]domain.Song, 0, len(tracks))
	for _, t := range tracks {
		songs = append(songs, domain.Song{
			ConcertID:      concert.ID,
			Title:          t.Title,
			OrderInSetlist: t.Order,
			Source:         domain.SongSourceSetlist,
		})
	}

	created, err := s.songRepo.CreateMany(ctx, songs)
	if err != nil {
		// A partial write keeps whatever made it in; a later upload for the
		// same concert can finish the job.
		log.Printf("WARN: setlist enrichment wrote %d/%d songs for concert %s: %v",
			created, len(songs), concert.ID.Hex(), err)
		return created, err
	}

	log.Printf("INFO: enriched concert %s with %d songs", concert.ID.Hex(), created)
	return created, nil
}
