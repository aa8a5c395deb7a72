package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConcertHandler serves the browse side of the catalog.
type ConcertHandler struct {
	concertService service.ConcertService
	videoService   service.VideoService
}

// NewConcertHandler creates a new ConcertHandler.
func NewConcertHandler(concertService service.ConcertService, videoService service.VideoService) *ConcertHandler {
	return &ConcertHandler{
		concertService: concertService,
		videoService:   videoService,
	}
}

// --- DTOs ---

type ConcertResponse struct {
	ID          string    `json:"id"`
	ArtistID    string    `json:"artistId"`
	VenueID     string    `json:"venueId"`
	ConcertDate time.Time `json:"concertDate"`
	TourName    string    `json:"tourName,omitempty"`
}

type SongResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	OrderInSetlist int    `json:"orderInSetlist,omitempty"`
	Source         string `json:"source"`
}

type ConcertDetailResponse struct {
	ConcertResponse
	Setlist []SongResponse `json:"setlist"`
}

// ListConcerts godoc
// @Summary List recent concerts
// @Tags Concerts
// @Produce json
// @Param limit query int false "Max results (default 50)"
// @Success 200 {array} ConcertResponse
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /concerts [get]
func (h *ConcertHandler) ListConcerts(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}

	concerts, err := h.concertService.ListConcerts(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list concerts.")
		return
	}

	resp := make([]ConcertResponse, 0, len(concerts))
	for i := range concerts {
		resp = append(resp, mapConcertToResponse(&concerts[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetConcert godoc
// @Summary Get a concert with its setlist
// @Tags Concerts
// @Produce json
// @Param concertId path string true "Concert's ObjectID Hex"
// @Success 200 {object} ConcertDetailResponse
// @Failure 400 {object} gin.H "Invalid concert ID format"
// @Failure 404 {object} gin.H "Concert not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /concerts/{concertId} [get]
func (h *ConcertHandler) GetConcert(c *gin.Context) {
	concertID, err := primitive.ObjectIDFromHex(c.Param("concertId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid concert ID format.")
		return
	}

	concert, songs, err := h.concertService.GetConcert(c.Request.Context(), concertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Concert not found.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve concert.")
		return
	}

	detail := ConcertDetailResponse{
		ConcertResponse: mapConcertToResponse(concert),
		Setlist:         make([]SongResponse, 0, len(songs)),
	}
	for _, s := range songs {
		detail.Setlist = append(detail.Setlist, SongResponse{
			ID:             s.ID.Hex(),
			Title:          s.Title,
			OrderInSetlist: s.OrderInSetlist,
			Source:         string(s.Source),
		})
	}
	c.JSON(http.StatusOK, detail)
}

// GetConcertVideos godoc
// @Summary List a concert's videos in recording order
// @Tags Concerts
// @Produce json
// @Param concertId path string true "Concert's ObjectID Hex"
// @Success 200 {array} service.VideoDetails
// @Failure 400 {object} gin.H "Invalid concert ID format"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /concerts/{concertId}/videos [get]
func (h *ConcertHandler) GetConcertVideos(c *gin.Context) {
	concertID, err := primitive.ObjectIDFromHex(c.Param("concertId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid concert ID format.")
		return
	}

	videos, err := h.videoService.GetConcertVideos(c.Request.Context(), concertID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list concert videos.")
		return
	}
	c.JSON(http.StatusOK, videos)
}

func mapConcertToResponse(concert *domain.Concert) ConcertResponse {
	return ConcertResponse{
		ID:          concert.ID.Hex(),
		ArtistID:    concert.ArtistID.Hex(),
		VenueID:     concert.VenueID.Hex(),
		ConcertDate: concert.ConcertDate,
		TourName:    concert.TourName,
	}
}
