// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/tablesnap/backend/internal/models"
	"github.com/tablesnap/backend/internal/state"
)

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// ConvertHandler handles conversion session operations
type ConvertHandler interface {
	HandleStartConvert(c echo.Context) error
	HandleConvertStatus(c echo.Context) error
	HandleConvertStream(c echo.Context) error
	HandleDownloadCSV(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ConvertManager defines the interface for conversion session management.
// This allows mocking in tests.
type ConvertManager interface {
	StartSession(file *models.FileInfo, filePath string) (*models.ConvertSession, error)
	GetSession(id string) (*models.ConvertSession, bool)
	Result(id string) (csv, fileName string, ok bool)
	Subscribe(id string) (<-chan state.Snapshot, func(), bool)
}
