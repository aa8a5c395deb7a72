package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Artist is a performer in the catalog, deduplicated by name.
type Artist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // Natural key, unique
	ImageURL  string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Venue is the geographic anchor for concert distance scoring.
type Venue struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // Natural key, unique
	City      string             `bson:"city" json:"city"`
	State     string             `bson:"state,omitempty" json:"state,omitempty"`
	Country   string             `bson:"country" json:"country"`
	Latitude  *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Concert is a single live event. At most one concert exists per external
// setlist id; the unique index on externalSetlistId makes the first-sighting
// insert race safe under concurrent uploads.
type Concert struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ArtistID           primitive.ObjectID `bson:"artistId" json:"artistId"`
	VenueID            primitive.ObjectID `bson:"venueId" json:"venueId"`
	ConcertDate        time.Time          `bson:"concertDate" json:"concertDate"`
	TourName           string             `bson:"tourName,omitempty" json:"tourName,omitempty"`
	ExternalSetlistID  string             `bson:"externalSetlistId,omitempty" json:"externalSetlistId,omitempty"`
	ExternalPollstarID string             `bson:"externalPollstarId,omitempty" json:"externalPollstarId,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Attendee links a user to a concert they were physically at.
// Unique on (userId, concertId); duplicate inserts are a no-op.
type Attendee struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ConcertID primitive.ObjectID `bson:"concertId" json:"concertId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
