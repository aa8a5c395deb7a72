package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// ConcertConfidence is a discrete policy label derived from distance and date
// thresholds. It is deliberately not a numeric score: the matching-bound
// policy can change without touching callers.
type ConcertConfidence string

const (
	ConcertConfidenceHigh   ConcertConfidence = "high"
	ConcertConfidenceMedium ConcertConfidence = "medium"
	ConcertConfidenceLow    ConcertConfidence = "low"
)

// ConcertMatch is the output of concert resolution. Derived per request,
// never persisted as its own row.
type ConcertMatch struct {
	ConcertID      primitive.ObjectID `json:"concertId"`
	ArtistID       primitive.ObjectID `json:"artistId"`
	VenueID        primitive.ObjectID `json:"venueId"`
	Confidence     ConcertConfidence  `json:"confidence"`
	DistanceMeters float64            `json:"distanceMeters"`
	DaysDifference int                `json:"daysDifference"`
	Details        string             `json:"details,omitempty"`
}

// SongMatchMethod records how a song match was established.
type SongMatchMethod string

const (
	SongMatchFingerprint     SongMatchMethod = "fingerprint"
	SongMatchSetlistCrossref SongMatchMethod = "setlist_crossref"
)

// SongMatch is the output of song matching. Confidence is the continuous
// 0-100 score passed through from the external recognizer, distinct from the
// discrete ConcertConfidence label.
type SongMatch struct {
	SongID     *primitive.ObjectID `json:"songId,omitempty"`
	Title      string              `json:"title"`
	ArtistName string              `json:"artistName,omitempty"`
	AlbumName  string              `json:"albumName,omitempty"`
	Confidence float64             `json:"confidence"`
	Method     SongMatchMethod     `json:"method"`
}
