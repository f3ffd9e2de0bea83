// Package convert runs the PDF-to-CSV conversion pipeline: extract the text
// layer, check it is non-empty, send it to the model, and clean the response.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tablesnap/backend/internal/extract"
	"github.com/tablesnap/backend/internal/llm"
	"github.com/tablesnap/backend/internal/models"
	"github.com/tablesnap/backend/internal/state"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 20

// SessionMaxAge is how long to keep finished sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// User-facing pipeline messages. The frontend shows these verbatim.
const (
	MsgInvalidFileType = "Only PDF files are supported"
	MsgUnreadablePDF   = "Could not read the PDF file. It may be corrupted or encrypted."
	MsgNoTextExtracted = "No text could be extracted from this PDF."
	MsgNoTablesFound   = "The AI found no tables in this document."
	MsgConvertFailed   = "The AI failed to convert the document. Please try again."
)

// TextExtractor extracts the text layer of a PDF on disk.
type TextExtractor interface {
	ExtractText(path string) (extract.Result, error)
}

// Completer sends a prompt to the model and returns its raw output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Manager owns active conversion sessions.
type Manager struct {
	sessions  map[string]*SessionState
	mu        sync.RWMutex
	extractor TextExtractor
	completer Completer
}

// SessionState holds one conversion attempt and its live state store.
type SessionState struct {
	ID       string
	FileID   string
	FileName string
	State    *state.Store

	PageCount    int
	SkippedPages int
	CreatedAt    time.Time
	elapsed      int64
}

// NewManager creates a conversion manager.
func NewManager(extractor TextExtractor, completer Completer) *Manager {
	return &Manager{
		sessions:  make(map[string]*SessionState),
		extractor: extractor,
		completer: completer,
	}
}

// StartSession begins the conversion pipeline for an uploaded file.
func (m *Manager) StartSession(file *models.FileInfo, filePath string) (*models.ConvertSession, error) {
	// Clean up old sessions if at limit
	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()

	st := state.NewStore()
	st.SetFile(file)

	sess := &SessionState{
		ID:        sessionID,
		FileID:    file.ID,
		FileName:  file.Name,
		State:     st,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()

	// Run the pipeline in a background goroutine
	go m.runConvert(sessionID, filePath)

	m.mu.RLock()
	view := m.viewOf(sess)
	m.mu.RUnlock()
	return view, nil
}

func (m *Manager) runConvert(sessionID, filePath string) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	st := sess.State

	// Recover from panics to prevent backend crash. The loading flag must be
	// down on every exit path, crash included.
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Convert %s] PANIC recovered: %v\n", sessionID[:8], r)
			st.SetResult("")
			st.SetError(MsgConvertFailed)
		}
		st.SetLoading(false)
	}()

	start := time.Now()
	fmt.Printf("[Convert %s] Starting conversion of %s\n", sessionID[:8], filePath)

	st.SetLoading(true)
	st.SetResult("")
	st.SetError("")

	// Stage 1: text extraction. Per-page failures are skipped inside the
	// extractor; only a document-level failure aborts.
	res, err := m.extractor.ExtractText(filePath)
	if err != nil {
		fmt.Printf("[Convert %s] ERROR: extraction failed: %v\n", sessionID[:8], err)
		st.SetError(MsgUnreadablePDF)
		st.SetLoading(false)
		return
	}

	m.mu.Lock()
	sess.PageCount = res.PageCount
	sess.SkippedPages = res.SkippedPages
	m.mu.Unlock()

	fmt.Printf("[Convert %s] Extracted %d chars from %d pages (%d skipped)\n",
		sessionID[:8], len(res.Text), res.PageCount, res.SkippedPages)

	// Stage 2: emptiness check. Scanned or image-only PDFs end here.
	if strings.TrimSpace(res.Text) == "" {
		fmt.Printf("[Convert %s] No extractable text\n", sessionID[:8])
		st.SetError(MsgNoTextExtracted)
		st.SetLoading(false)
		return
	}

	// Stage 3: model conversion.
	csv, err := m.convertWithModel(sessionID, res.Text, st)

	elapsed := time.Since(start).Milliseconds()
	m.mu.Lock()
	sess.elapsed = elapsed
	m.mu.Unlock()

	if err != nil {
		return
	}
	fmt.Printf("[Convert %s] Conversion complete in %dms (%d bytes of CSV)\n",
		sessionID[:8], elapsed, len(csv))
}

// convertWithModel runs the model stage. The loading flag is dropped in a
// deferred call so it clears whether the stage succeeds, errors, or panics.
func (m *Manager) convertWithModel(sessionID, text string, st *state.Store) (string, error) {
	defer st.SetLoading(false)

	raw, err := m.completer.Complete(context.Background(), llm.BuildPrompt(text))
	if err != nil {
		fmt.Printf("[Convert %s] ERROR: model request failed: %v\n", sessionID[:8], err)
		st.SetError(MsgConvertFailed)
		return "", err
	}

	csv, err := llm.Clean(raw)
	if err != nil {
		if errors.Is(err, llm.ErrNoTables) {
			fmt.Printf("[Convert %s] Model found no tables\n", sessionID[:8])
			st.SetError(MsgNoTablesFound)
		} else {
			fmt.Printf("[Convert %s] ERROR: unusable model response: %v\n", sessionID[:8], err)
			st.SetError(MsgConvertFailed)
		}
		return "", err
	}

	st.SetResult(csv)
	return csv, nil
}

// GetSession returns the API view of a session.
func (m *Manager) GetSession(id string) (*models.ConvertSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return m.viewOf(sess), true
}

// viewOf derives the API view from the session's state fields. Caller must
// hold at least a read lock.
func (m *Manager) viewOf(sess *SessionState) *models.ConvertSession {
	snap := sess.State.Snapshot()

	status := models.StatusPending
	switch {
	case snap.Loading:
		status = models.StatusConverting
	case snap.Err != "":
		status = models.StatusError
	case snap.Result != "":
		status = models.StatusComplete
	}

	return &models.ConvertSession{
		ID:               sess.ID,
		FileID:           sess.FileID,
		FileName:         sess.FileName,
		Status:           status,
		Error:            snap.Err,
		PageCount:        sess.PageCount,
		SkippedPages:     sess.SkippedPages,
		ProcessingTimeMs: sess.elapsed,
		HasResult:        snap.Result != "",
	}
}

// Result returns the CSV text and source file name for a finished session.
func (m *Manager) Result(id string) (csv, fileName string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, found := m.sessions[id]
	if !found {
		return "", "", false
	}
	snap := sess.State.Snapshot()
	if snap.Result == "" {
		return "", "", false
	}
	return snap.Result, sess.FileName, true
}

// Subscribe attaches a coalesced state listener to a session. The cancel func
// must be called when the listener is done.
func (m *Manager) Subscribe(id string) (<-chan state.Snapshot, func(), bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, nil, false
	}
	ch, cancel := sess.State.Subscribe()
	return ch, cancel, true
}

// cleanupOldSessionsIfNeeded removes finished sessions if at capacity.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var toDelete []string
	for id, sess := range m.sessions {
		snap := sess.State.Snapshot()
		if !snap.Loading && (snap.Err != "" || snap.Result != "") {
			toDelete = append(toDelete, id)
		}
	}

	toFree := len(m.sessions) - MaxSessions + 1
	deleted := 0
	for _, id := range toDelete {
		if deleted >= toFree {
			break
		}
		if sess, ok := m.sessions[id]; ok {
			sess.State.Close()
			delete(m.sessions, id)
			deleted++
			fmt.Printf("[Manager] Cleaned up old session %s to free memory\n", id[:8])
		}
	}
}

// CleanupOldSessions removes finished sessions older than maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, sess := range m.sessions {
		snap := sess.State.Snapshot()
		if snap.Loading {
			continue
		}
		if snap.Err == "" && snap.Result == "" {
			continue
		}
		if sess.CreatedAt.Before(cutoff) {
			sess.State.Close()
			delete(m.sessions, id)
			fmt.Printf("[Manager] Cleaned up aged session %s (created %s ago)\n",
				id[:8], time.Since(sess.CreatedAt).Round(time.Second))
		}
	}
}

// Close releases all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		sess.State.Close()
		delete(m.sessions, id)
	}
}
