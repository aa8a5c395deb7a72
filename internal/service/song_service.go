package service

import (
	"context"
	"log"
	"os"
	"strings"
	"unicode"

	"stagesnap/concert-app/internal/config"
	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/media"
	"stagesnap/concert-app/internal/recognition"
	"stagesnap/concert-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recognizer is the external audio fingerprinting capability. A nil match
// with a nil error means "nothing recognized".
type Recognizer interface {
	Recognize(ctx context.Context, clipPath string) (*recognition.Match, error)
}

// SongMatchInput identifies the video and local file to match. ConcertID is
// optional: without it the matcher degrades to raw-recognition-only mode.
type SongMatchInput struct {
	VideoID   primitive.ObjectID
	MediaPath string
	ConcertID *primitive.ObjectID
}

// SongMatchResult is the matcher's outcome. Success=true only when a songId
// was assigned; a raw fingerprint hit without a setlist cross-reference still
// carries Match but leaves Success=false.
type SongMatchResult struct {
	Success bool
	Match   *domain.SongMatch
	Message string
}

// SongService identifies the song playing in an uploaded clip.
type SongService interface {
	MatchSong(ctx context.Context, in SongMatchInput) SongMatchResult
}

type songService struct {
	videoRepo  repository.VideoRepository
	songRepo   repository.SongRepository
	recognizer Recognizer
	policy     config.MatchingConfig

	// extractClip is swappable in tests; production uses ffmpeg.
	extractClip func(ctx context.Context, inputPath string, clipSeconds int) (string, error)
}

// NewSongService creates a new instance of songService.
func NewSongService(
	videoRepo repository.VideoRepository,
	songRepo repository.SongRepository,
	recognizer Recognizer,
	policy config.MatchingConfig,
) SongService {
	return &songService{
		videoRepo:   videoRepo,
		songRepo:    songRepo,
		recognizer:  recognizer,
		policy:      policy,
		extractClip: media.ExtractAudioClip,
	}
}

// MatchSong extracts a short audio clip, asks the recognizer what is playing,
// and cross-references the answer against the concert's setlist. The local
// setlist is the source of truth for identity; the recognizer only says "this
// is playing". Every failure is reported as a non-fatal non-match.
func (s *songService) MatchSong(ctx context.Context, in SongMatchInput) SongMatchResult {
	clipPath, err := s.extractClip(ctx, in.MediaPath, s.policy.ClipSeconds)
	if err != nil {
		log.Printf("WARN: audio clip extraction failed for video %s: %v", in.VideoID.Hex(), err)
		return SongMatchResult{Message: "audio extraction failed"}
	}
	defer os.Remove(clipPath)

	hit, err := s.recognizer.Recognize(ctx, clipPath)
	if err != nil {
		log.Printf("WARN: recognition failed for video %s: %v", in.VideoID.Hex(), err)
		return SongMatchResult{Message: "recognition service error"}
	}
	if hit == nil {
		// Common outcome for crowd noise, talking between songs, etc.
		return SongMatchResult{Message: "no fingerprint match"}
	}

	match := &domain.SongMatch{
		Title:      hit.Title,
		ArtistName: hit.Artist,
		AlbumName:  hit.Album,
		Confidence: hit.Score,
		Method:     domain.SongMatchFingerprint,
	}

	if in.ConcertID == nil {
		return SongMatchResult{Match: match, Message: "fingerprint match, no concert to cross-reference"}
	}

	songs, err := s.songRepo.GetByConcertID(ctx, *in.ConcertID)
	if err != nil {
		log.Printf("WARN: setlist lookup failed for concert %s: %v", in.ConcertID.Hex(), err)
		return SongMatchResult{Match: match, Message: "fingerprint match, setlist unavailable"}
	}

	song, similarity := bestTitleMatch(songs, hit.Title, s.policy.MinTitleSimilarity)
	if song == nil {
		return SongMatchResult{Match: match, Message: "fingerprint match not in setlist"}
	}

	if err := s.videoRepo.SetSong(ctx, in.VideoID, song.ID); err != nil {
		log.Printf("ERROR: failed to assign song %s to video %s: %v", song.ID.Hex(), in.VideoID.Hex(), err)
		return SongMatchResult{Match: match, Message: "song assignment failed"}
	}

	match.SongID = &song.ID
	match.Title = song.Title // local setlist title wins over the provider's
	match.Method = domain.SongMatchSetlistCrossref
	log.Printf("INFO: video %s matched to song %q (similarity %.2f)", in.VideoID.Hex(), song.Title, similarity)
	return SongMatchResult{Success: true, Match: match, Message: "matched via setlist cross-reference"}
}

// bestTitleMatch finds the setlist song whose title is closest to the
// recognized title, if any clears the similarity threshold.
func bestTitleMatch(songs []domain.Song, title string, minSimilarity float64) (*domain.Song, float64) {
	var best *domain.Song
	bestScore := 0.0
	for i := range songs {
		score := titleSimilarity(songs[i].Title, title)
		if score > bestScore {
			bestScore = score
			best = &songs[i]
		}
	}
	if best == nil || bestScore < minSimilarity {
		return nil, 0
	}
	return best, bestScore
}

// Containment only counts for normalized titles at least this long, so
// fragments like "rain" don't match every entry that mentions them.
const minContainmentLen = 5

// titleSimilarity compares two song titles after normalization. Containment
// of one normalized title in the other scores by how much of the longer
// title it covers, floored at 0.8; live tracks are frequently suffixed
// ("Purple Rain - Live", "Purple Rain (Live 1985)"), and the weighting lets
// the candidate with the larger overlap win. Otherwise the score is
// normalized Levenshtein similarity in [0, 1].
func titleSimilarity(a, b string) float64 {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) >= minContainmentLen && strings.Contains(longer, shorter) {
		return 0.8 + 0.2*float64(len(shorter))/float64(len(longer))
	}

	dist := levenshtein(na, nb)
	return 1 - float64(dist)/float64(len(longer))
}

// normalizeTitle lowercases, strips punctuation and collapses whitespace.
func normalizeTitle(s string) string {
	var b strings.Builder
	prevSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// levenshtein is the classic edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
