// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/tablesnap/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	ConvertMgr        ConvertManager
	Version           string
	AllowFileDeletion bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Upload  UploadHandler
	Convert ConvertHandler

	allowFileDeletion bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:            NewHealthHandler(deps.Version),
		Upload:            NewUploadHandler(deps.Store),
		Convert:           NewConvertHandler(deps.Store, deps.ConvertMgr),
		allowFileDeletion: deps.AllowFileDeletion,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// File upload routes
	uploadGroup := e.Group("/api/files")
	uploadGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	uploadGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetFile)

	// Conditional delete based on config
	if handlers.allowFileDeletion {
		uploadGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	}

	// Conversion session routes
	convertGroup := e.Group("/api/convert")
	convertGroup.POST("", handlers.Convert.HandleStartConvert)
	convertGroup.GET("/:sessionId", handlers.Convert.HandleConvertStatus)
	convertGroup.GET("/:sessionId/stream", handlers.Convert.HandleConvertStream)
	convertGroup.GET("/:sessionId/download", handlers.Convert.HandleDownloadCSV)
}
