package service

import (
	"context"
	"errors"
	"testing"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/recognition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSongFixture(recognizer *fakeRecognizer) (*songService, *fakeSongRepo, *fakeVideoRepo) {
	songs := newFakeSongRepo()
	videos := newFakeVideoRepo()
	svc := NewSongService(videos, songs, recognizer, testPolicy()).(*songService)
	svc.extractClip = func(_ context.Context, inputPath string, _ int) (string, error) {
		return inputPath + ".clip", nil
	}
	return svc, songs, videos
}

func seedSetlist(t *testing.T, songs *fakeSongRepo, concertID primitive.ObjectID, titles ...string) []domain.Song {
	t.Helper()
	rows := make([]domain.Song, 0, len(titles))
	for i, title := range titles {
		rows = append(rows, domain.Song{
			ConcertID:      concertID,
			Title:          title,
			OrderInSetlist: i + 1,
			Source:         domain.SongSourceSetlist,
		})
	}
	n, err := songs.CreateMany(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, len(titles), n)
	out, err := songs.GetByConcertID(context.Background(), concertID)
	require.NoError(t, err)
	return out
}

func TestMatchSongSetlistCrossReference(t *testing.T) {
	recognizer := &fakeRecognizer{match: &recognition.Match{
		Title:  "Purple Rain (Live 1985)",
		Artist: "Prince",
		Score:  92,
	}}
	svc, songs, videos := newSongFixture(recognizer)

	concertID := primitive.NewObjectID()
	setlist := seedSetlist(t, songs, concertID, "Opener", "Purple Rain", "Closer")

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{
		VideoID:   videoID,
		MediaPath: "/tmp/upload.mp4",
		ConcertID: &concertID,
	})

	require.True(t, result.Success)
	require.NotNil(t, result.Match)
	require.NotNil(t, result.Match.SongID)
	assert.Equal(t, setlist[1].ID, *result.Match.SongID)
	assert.Equal(t, "Purple Rain", result.Match.Title, "the catalog title wins over the provider's")
	assert.Equal(t, domain.SongMatchSetlistCrossref, result.Match.Method)
	assert.Equal(t, 92.0, result.Match.Confidence)

	video, err := videos.GetByID(context.Background(), videoID)
	require.NoError(t, err)
	require.NotNil(t, video.SongID)
	assert.Equal(t, setlist[1].ID, *video.SongID)
}

func TestMatchSongNoRecognition(t *testing.T) {
	svc, _, videos := newSongFixture(&fakeRecognizer{match: nil})

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{VideoID: videoID, MediaPath: "/tmp/upload.mp4"})

	assert.False(t, result.Success)
	assert.Nil(t, result.Match)
	assert.Equal(t, "no fingerprint match", result.Message)
}

func TestMatchSongWithoutConcertKeepsRawFingerprint(t *testing.T) {
	recognizer := &fakeRecognizer{match: &recognition.Match{Title: "Some Song", Artist: "Someone", Score: 80}}
	svc, _, videos := newSongFixture(recognizer)

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{VideoID: videoID, MediaPath: "/tmp/upload.mp4"})

	assert.False(t, result.Success, "no songId without a setlist to cross-reference")
	require.NotNil(t, result.Match)
	assert.Nil(t, result.Match.SongID)
	assert.Equal(t, domain.SongMatchFingerprint, result.Match.Method)
	assert.Equal(t, "Some Song", result.Match.Title)

	video, err := videos.GetByID(context.Background(), videoID)
	require.NoError(t, err)
	assert.Nil(t, video.SongID)
}

func TestMatchSongNotInSetlist(t *testing.T) {
	recognizer := &fakeRecognizer{match: &recognition.Match{Title: "Completely Different Tune", Score: 88}}
	svc, songs, videos := newSongFixture(recognizer)

	concertID := primitive.NewObjectID()
	seedSetlist(t, songs, concertID, "Opener", "Purple Rain", "Closer")

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{
		VideoID:   videoID,
		MediaPath: "/tmp/upload.mp4",
		ConcertID: &concertID,
	})

	assert.False(t, result.Success)
	require.NotNil(t, result.Match)
	assert.Nil(t, result.Match.SongID, "a fingerprint hit outside the setlist never assigns a song")

	video, err := videos.GetByID(context.Background(), videoID)
	require.NoError(t, err)
	assert.Nil(t, video.SongID)
}

func TestMatchSongRecognizerError(t *testing.T) {
	svc, _, videos := newSongFixture(&fakeRecognizer{err: errors.New("service unavailable")})

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{VideoID: videoID, MediaPath: "/tmp/upload.mp4"})

	assert.False(t, result.Success)
	assert.Nil(t, result.Match)
}

func TestMatchSongClipExtractionFailure(t *testing.T) {
	recognizer := &fakeRecognizer{match: &recognition.Match{Title: "Whatever", Score: 90}}
	svc, _, videos := newSongFixture(recognizer)
	svc.extractClip = func(context.Context, string, int) (string, error) {
		return "", errors.New("ffmpeg exploded")
	}

	videoID, err := videos.Create(context.Background(), &domain.Video{})
	require.NoError(t, err)

	result := svc.MatchSong(context.Background(), SongMatchInput{VideoID: videoID, MediaPath: "/tmp/upload.mp4"})

	assert.False(t, result.Success)
	assert.Nil(t, result.Match)
	assert.Zero(t, recognizer.calls, "no clip, no recognition call")
}

func TestTitleSimilarity(t *testing.T) {
	t.Run("identical after normalization", func(t *testing.T) {
		assert.Equal(t, 1.0, titleSimilarity("Purple Rain", "purple rain"))
		assert.Equal(t, 1.0, titleSimilarity("  Purple   Rain  ", "Purple Rain"))
	})

	t.Run("containment covers live suffixes", func(t *testing.T) {
		assert.Greater(t, titleSimilarity("Purple Rain", "Purple Rain - Live"), 0.75)
		assert.Greater(t, titleSimilarity("Purple Rain (Live 1985)", "Purple Rain"), 0.75)
	})

	t.Run("containment is weighted by overlap", func(t *testing.T) {
		closer := titleSimilarity("Purple Rain", "Purple Rain - Live")
		looser := titleSimilarity("Purple Rain", "Purple Rain (Extended Live 1985)")
		assert.Greater(t, closer, looser)
		assert.Less(t, closer, 1.0)
	})

	t.Run("short fragments never match by containment", func(t *testing.T) {
		assert.Less(t, titleSimilarity("Rain", "Purple Rain"), 0.75)
		assert.Less(t, titleSimilarity("Go", "Let It Go"), 0.75)
	})

	t.Run("near misses score below unrelated ones", func(t *testing.T) {
		typo := titleSimilarity("Purple Rain", "Purple Rian")
		unrelated := titleSimilarity("Purple Rain", "Bohemian Rhapsody")
		assert.Greater(t, typo, 0.75)
		assert.Less(t, unrelated, 0.5)
	})

	t.Run("empty input never matches", func(t *testing.T) {
		assert.Zero(t, titleSimilarity("", "Purple Rain"))
		assert.Zero(t, titleSimilarity("!!!", "Purple Rain"))
	})
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "purple rain", normalizeTitle("  Purple    Rain  "))
	assert.Equal(t, "purple rain live 1985", normalizeTitle("Purple Rain (Live 1985)"))
	assert.Equal(t, "don t stop me now", normalizeTitle("Don't Stop Me Now!"))
	assert.Equal(t, "", normalizeTitle("..."))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 3, levenshtein("abc", ""))
	assert.Equal(t, 1, levenshtein("kitten", "sitten"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestBestTitleMatch(t *testing.T) {
	concertID := primitive.NewObjectID()
	songs := []domain.Song{
		{ID: primitive.NewObjectID(), ConcertID: concertID, Title: "Opener"},
		{ID: primitive.NewObjectID(), ConcertID: concertID, Title: "Purple Rain"},
	}

	best, score := bestTitleMatch(songs, "Purple Rain - Live", 0.75)
	require.NotNil(t, best)
	assert.Equal(t, "Purple Rain", best.Title)
	assert.InDelta(t, 0.94, score, 0.01)

	best, _ = bestTitleMatch(songs, "Totally Unrelated Song Title", 0.75)
	assert.Nil(t, best)

	// A recognized fragment contained in a setlist title is not a match.
	best, _ = bestTitleMatch(songs, "Rain", 0.75)
	assert.Nil(t, best)

	best, _ = bestTitleMatch(nil, "Purple Rain", 0.75)
	assert.Nil(t, best)
}
