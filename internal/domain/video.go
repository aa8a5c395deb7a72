package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video stores metadata about an uploaded concert recording. The actual file
// resides in S3; creation of this row is the durability checkpoint for an
// upload: once it exists the pipeline cannot fail the request.
type Video struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	ConcertID       *primitive.ObjectID `bson:"concertId,omitempty" json:"concertId,omitempty"` // Set at most once, at ingestion
	SongID          *primitive.ObjectID `bson:"songId,omitempty" json:"songId,omitempty"`       // Set at most once, at ingestion
	Title           string              `bson:"title,omitempty" json:"title,omitempty"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	StorageURL      string              `bson:"storageUrl" json:"storageUrl"`
	StorageKey      string              `bson:"storageKey" json:"-"` // Object key in the bucket - internal use
	FileName        string              `bson:"fileName" json:"fileName"`
	ContentType     string              `bson:"contentType" json:"contentType"`
	Size            int64               `bson:"size" json:"size"`
	RecordedAt      *time.Time          `bson:"recordedAt,omitempty" json:"recordedAt,omitempty"`
	Latitude        *float64            `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude       *float64            `bson:"longitude,omitempty" json:"longitude,omitempty"`
	DeviceMake      string              `bson:"deviceMake,omitempty" json:"deviceMake,omitempty"`
	DeviceModel     string              `bson:"deviceModel,omitempty" json:"deviceModel,omitempty"`
	Width           int                 `bson:"width,omitempty" json:"width,omitempty"`
	Height          int                 `bson:"height,omitempty" json:"height,omitempty"`
	DurationSeconds int                 `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	ViewsCount      int64               `bson:"viewsCount" json:"viewsCount"`
	UploadedAt      time.Time           `bson:"uploadedAt" json:"uploadedAt"`
}
