// manager_test.go - Tests for storage layer
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tablesnap/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		_, err := NewLocalStore(uploadDir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "%PDF-1.4 fake content"
		info, err := store.Save("report.pdf", models.PDFMediaType, strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "report.pdf" {
			t.Errorf("Expected name 'report.pdf', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.MediaType != models.PDFMediaType {
			t.Errorf("Expected pdf media type, got %v", info.MediaType)
		}
	})

	t.Run("creates physical file", func(t *testing.T) {
		store := createTestStore(t)

		content := "file bytes"
		info, err := store.Save("report.pdf", models.PDFMediaType, strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("report.pdf", models.PDFMediaType, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	t.Run("returns saved metadata", func(t *testing.T) {
		got, err := store.Get(info.ID)
		if err != nil {
			t.Fatalf("Failed to get file: %v", err)
		}
		if got.Name != "report.pdf" {
			t.Errorf("Expected name 'report.pdf', got %v", got.Name)
		}
	})

	t.Run("unknown id errors", func(t *testing.T) {
		if _, err := store.Get("missing"); err == nil {
			t.Error("Expected error for unknown id")
		}
	})
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)

	first, _ := store.Save("first.pdf", models.PDFMediaType, strings.NewReader("1"))
	time.Sleep(5 * time.Millisecond)
	second, _ := store.Save("second.pdf", models.PDFMediaType, strings.NewReader("2"))

	t.Run("newest first", func(t *testing.T) {
		files, err := store.List(10)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("Expected 2 files, got %d", len(files))
		}
		if files[0].ID != second.ID || files[1].ID != first.ID {
			t.Error("Expected files sorted newest first")
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		files, err := store.List(1)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 1 {
			t.Errorf("Expected 1 file, got %d", len(files))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("report.pdf", models.PDFMediaType, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Failed to delete file: %v", err)
	}

	if _, err := store.Get(info.ID); err == nil {
		t.Error("Expected metadata to be removed")
	}
	if _, err := os.Stat(filepath.Join(store.uploadDir, info.ID)); !os.IsNotExist(err) {
		t.Error("Expected blob to be removed from disk")
	}

	if err := store.Delete(info.ID); err == nil {
		t.Error("Expected error deleting unknown id")
	}
}

func TestLocalStore_GetFilePath(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("report.pdf", models.PDFMediaType, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("Failed to get file path: %v", err)
	}
	if path != filepath.Join(store.uploadDir, info.ID) {
		t.Errorf("Unexpected path %v", path)
	}

	if _, err := store.GetFilePath("missing"); err == nil {
		t.Error("Expected error for unknown id")
	}
}
