package api

import (
	"net/http"

	"stagesnap/concert-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	ingestService service.IngestService,
	videoService service.VideoService,
	concertService service.ConcertService,
) {

	authHandler := NewAuthHandler(authService)
	videoHandler := NewVideoHandler(ingestService, videoService)
	concertHandler := NewConcertHandler(concertService, videoService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public browse endpoints.
		apiV1.GET("/concerts", concertHandler.ListConcerts)
		apiV1.GET("/concerts/:concertId", concertHandler.GetConcert)
		apiV1.GET("/concerts/:concertId/videos", concertHandler.GetConcertVideos)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		protected.POST("/videos", videoHandler.Upload)
		protected.GET("/videos/:videoId", videoHandler.GetVideo)
	}
}
