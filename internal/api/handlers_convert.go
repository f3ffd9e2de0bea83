// handlers_convert.go - Conversion session operation handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tablesnap/backend/internal/storage"
)

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store      storage.Store
	convertMgr ConvertManager
}

// NewConvertHandler creates a new convert handler instance
func NewConvertHandler(store storage.Store, convertMgr ConvertManager) ConvertHandler {
	return &ConvertHandlerImpl{
		store:      store,
		convertMgr: convertMgr,
	}
}

// HandleStartConvert starts a conversion session for an uploaded file
func (h *ConvertHandlerImpl) HandleStartConvert(c echo.Context) error {
	var req startConvertRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}

	filePath, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}

	sess, err := h.convertMgr.StartSession(info, filePath)
	if err != nil {
		return NewInternalError("failed to start conversion", err)
	}

	return c.JSON(http.StatusAccepted, sess)
}

// HandleConvertStatus returns the current status of a conversion session
func (h *ConvertHandlerImpl) HandleConvertStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.convertMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, sess)
}

// HandleConvertStream streams conversion status via SSE. One event is sent
// per coalesced state change, plus an initial status on connect. The stream
// ends when the session reaches a terminal status.
func (h *ConvertHandlerImpl) HandleConvertStream(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	updates, cancel, ok := h.convertMgr.Subscribe(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	defer cancel()

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	// Send initial status
	sess, ok := h.convertMgr.GetSession(id)
	if !ok {
		h.sendSSEError(c, "session not found")
		return nil
	}
	h.sendSSEData(c, sess)
	if sess.Status.Terminal() {
		return nil
	}

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-updates:
			sess, ok := h.convertMgr.GetSession(id)
			if !ok {
				h.sendSSEError(c, "session not found")
				return nil
			}

			h.sendSSEData(c, sess)

			if sess.Status.Terminal() {
				return nil
			}

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil

		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// HandleDownloadCSV serves the conversion result as a CSV attachment named
// after the source PDF.
func (h *ConvertHandlerImpl) HandleDownloadCSV(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	csv, fileName, ok := h.convertMgr.Result(id)
	if !ok {
		return NewNotFoundError("result", id)
	}

	name := deriveCSVName(fileName)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// deriveCSVName turns a source PDF name into the download name: strip one
// trailing ".pdf" case-insensitively, then append ".csv". An empty source
// name falls back to a default.
func deriveCSVName(fileName string) string {
	base := fileName
	if len(base) >= 4 && strings.EqualFold(base[len(base)-4:], ".pdf") {
		base = base[:len(base)-4]
	}
	if base == "" {
		base = "tables"
	}
	return base + ".csv"
}

// SSE helpers

func (h *ConvertHandlerImpl) sendSSEData(c echo.Context, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", data)
	c.Response().Flush()
}

func (h *ConvertHandlerImpl) sendSSEError(c echo.Context, msg string) {
	fmt.Fprintf(c.Response(), "event: error\ndata: %q\n\n", msg)
	c.Response().Flush()
}

// Request types

type startConvertRequest struct {
	FileID string `json:"fileId"`
}
