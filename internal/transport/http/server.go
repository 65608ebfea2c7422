package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/upload"
)

// NewServer builds the HTTP server: REST API, upload endpoints, static
// upload serving and the websocket entry point.
func NewServer(hub *core.Hub, authService *auth.Service, uploads *upload.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	if uploads != nil {
		router.MaxMultipartMemory = uploads.MaxBytes()
	}

	apiHandlers := NewAPIHandlers(authService, logger)
	chatHandlers := NewChatHandlers(hub, logger)
	uploadHandlers := NewUploadHandlers(uploads, logger)

	router.GET("/healthz", healthHandler)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", apiHandlers.Register)
			authGroup.POST("/login", apiHandlers.Login)
			authGroup.POST("/guest", apiHandlers.GuestLogin)
			authGroup.GET("/profile", AuthMiddleware(authService, logger), apiHandlers.Profile)
		}

		api.GET("/messages", chatHandlers.GetGlobalMessages)
		api.POST("/messages", chatHandlers.PostGlobalMessage)
		api.GET("/rooms", chatHandlers.ListRooms)
		api.GET("/rooms/:roomId/messages", chatHandlers.GetRoomMessages)
		api.POST("/rooms/:roomId/messages", chatHandlers.PostRoomMessage)
		api.GET("/rooms/:roomId/members", chatHandlers.GetRoomMembers)
		api.GET("/online", chatHandlers.GetOnlineUsers)
		api.POST("/admin/clear-messages", chatHandlers.ClearAllMessages)

		files := api.Group("/files")
		{
			files.POST("/upload", AuthMiddleware(authService, logger), uploadHandlers.Upload)
			files.GET("/:filename", uploadHandlers.Info)
			files.DELETE("/:filename", AuthMiddleware(authService, logger), uploadHandlers.Delete)
		}
	}

	if uploads != nil {
		router.Static("/uploads", uploads.Dir())
	}

	// The websocket upgrade needs to hijack the connection, which gin's
	// response writer refuses once headers are out; serve /ws beside the
	// router on a plain mux.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, cfg.WSRateLimit, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
