package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxUploadSize caps a single upload at 500 MB.
const MaxUploadSize = 500 << 20

// VideoHandler serves upload and playback endpoints.
type VideoHandler struct {
	ingestService service.IngestService
	videoService  service.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(ingestService service.IngestService, videoService service.VideoService) *VideoHandler {
	return &VideoHandler{
		ingestService: ingestService,
		videoService:  videoService,
	}
}

// Upload godoc
// @Summary Upload a concert video
// @Description Accepts a video file, stores it and runs concert/song auto-matching.
// @Tags Videos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Video file"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Success 201 {object} service.UploadResult "Video stored; concert/song sections are null when no match was found"
// @Failure 400 {object} gin.H "Missing or invalid file"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	fileHeader, err := c.FormFile("video")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing 'video' file in request.")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		abortWithError(c, http.StatusBadRequest, "Invalid or missing video content type.")
		return
	}

	// Spool to a local temp file; metadata probing and audio extraction need
	// a real path. The ingest service removes it on every exit path.
	tempPath := filepath.Join(os.TempDir(), "upload-"+uuid.NewString()+filepath.Ext(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to receive uploaded file.")
		return
	}

	result, err := h.ingestService.ProcessUpload(c.Request.Context(), service.UploadInput{
		UserID:      userID,
		TempPath:    tempPath,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingFile) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Upload failed: %v", err))
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetVideo godoc
// @Summary Get a video with playback URL
// @Tags Videos
// @Produce json
// @Security BearerAuth
// @Param videoId path string true "Video's ObjectID Hex"
// @Success 200 {object} service.VideoDetails
// @Failure 400 {object} gin.H "Invalid video ID format"
// @Failure 404 {object} gin.H "Video not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /videos/{videoId} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	details, err := h.videoService.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Video not found.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve video.")
		return
	}

	c.JSON(http.StatusOK, details)
}
