package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SongSource records where a song row came from.
type SongSource string

const (
	SongSourceSetlist     SongSource = "setlist_source"
	SongSourceFingerprint SongSource = "audio_fingerprint"
	SongSourceManual      SongSource = "user_manual"
)

// Valid reports whether s is one of the enumerated song sources.
func (s SongSource) Valid() bool {
	switch s {
	case SongSourceSetlist, SongSourceFingerprint, SongSourceManual:
		return true
	}
	return false
}

// Song is one entry in a concert's setlist. Rows are created in bulk by
// setlist enrichment and matched against (never mutated) by the song matcher.
// Unique on (concertId, orderInSetlist) so a double-enrichment race cannot
// produce duplicate positions.
type Song struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConcertID             primitive.ObjectID `bson:"concertId" json:"concertId"`
	Title                 string             `bson:"title" json:"title"`
	OrderInSetlist        int                `bson:"orderInSetlist,omitempty" json:"orderInSetlist,omitempty"` // 1-based
	DurationSeconds       int                `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	Source                SongSource         `bson:"source" json:"source"`
	FingerprintConfidence *float64           `bson:"fingerprintConfidence,omitempty" json:"fingerprintConfidence,omitempty"` // 0-100
	AudioFingerprintData  bson.Raw           `bson:"audioFingerprintData,omitempty" json:"-"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
}
