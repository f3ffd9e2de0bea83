// handlers_upload_test.go - Tests for upload handlers
package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/tablesnap/backend/internal/models"
	"github.com/tablesnap/backend/internal/testutil"
)

// multipartPDF builds a multipart body with one file part carrying the given
// media type. writer.CreateFormFile always declares application/octet-stream,
// so the part header is built by hand.
func multipartPDF(t *testing.T, fileName, mediaType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", mediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create form part: %v", err)
	}
	part.Write(content)
	writer.Close()

	return body, writer.FormDataContentType()
}

func TestUploadHandler_HandleUploadFile(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		mediaType  string
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name:       "valid pdf upload",
			fileName:   "report.pdf",
			mediaType:  models.PDFMediaType,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "octet stream rejected",
			fileName:   "report.pdf",
			mediaType:  "application/octet-stream",
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "INVALID_FILE_TYPE",
		},
		{
			name:       "plain text rejected even with pdf extension",
			fileName:   "report.pdf",
			mediaType:  "text/plain",
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "INVALID_FILE_TYPE",
		},
		{
			name:       "pdf with parameters rejected",
			fileName:   "report.pdf",
			mediaType:  "application/pdf; charset=binary",
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "INVALID_FILE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			handler := NewUploadHandler(store)

			body, contentType := multipartPDF(t, tt.fileName, tt.mediaType, []byte("%PDF-1.4 fake"))

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleUploadFile(c)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				if store.GetFileCount() != 0 {
					t.Error("rejected upload must not be stored")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.ID == "" {
				t.Error("expected non-empty ID in response")
			}
			if response.Name != tt.fileName {
				t.Errorf("expected name %s, got %s", tt.fileName, response.Name)
			}
			if response.MediaType != models.PDFMediaType {
				t.Errorf("expected pdf media type, got %s", response.MediaType)
			}
		})
	}
}

func TestUploadHandler_HandleUploadFile_NoFile(t *testing.T) {
	store := testutil.NewMockStorage()
	handler := NewUploadHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleUploadFile(c)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", apiErr.Code)
	}
}

func TestUploadHandler_HandleGetFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("file-1", "report.pdf", []byte("data"))
	handler := NewUploadHandler(store)

	t.Run("existing file", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("file-1")

		if err := handler.HandleGetFile(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var info models.FileInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if info.Name != "report.pdf" {
			t.Errorf("expected report.pdf, got %s", info.Name)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/files/nope", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nope")

		err := handler.HandleGetFile(c)
		if err == nil {
			t.Fatal("expected error for unknown file")
		}
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404 APIError, got %v", err)
		}
	})
}

func TestUploadHandler_HandleDeleteFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("file-1", "report.pdf", []byte("data"))
	handler := NewUploadHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/files/file-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("file-1")

	if err := handler.HandleDeleteFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if store.GetFileCount() != 0 {
		t.Error("expected file to be removed")
	}
}
