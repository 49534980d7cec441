package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasalvaidya/crop-health/internal/config"
)

const validImportCSV = "crop_id,created_at,n_score,p_score,k_score,n_severity\n" +
	"1,2024-03-01,0.42,0.18,0.11,attention\n" +
	"2,2024-03-02,12,15,9,\n" +
	"1,2024-03-03,180,15,9,\n"

type importFixture struct {
	router   *gin.Engine
	imports  *fakeImports
	scans    *fakeScans
	recorder *recordingRecorder
}

func newImportFixture(maxSize int64) *importFixture {
	gin.SetMode(gin.TestMode)
	f := &importFixture{
		imports:  newFakeImports(),
		scans:    &fakeScans{},
		recorder: &recordingRecorder{},
	}
	h := NewImportHandler(f.imports, f.scans, &fakeClaims{},
		config.ImportConfig{MaxFileSize: maxSize, BatchSize: 2}, f.recorder)
	h.now = func() time.Time { return fixedNow }

	f.router = gin.New()
	f.router.Use(asFarmer())
	f.router.POST("/scans/import", h.HandleImport)
	return f
}

func (f *importFixture) upload(t *testing.T, filename, content, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scans/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type importBody struct {
	ImportID  uuid.UUID `json:"import_id"`
	FarmerID  uuid.UUID `json:"farmer_id"`
	RowCount  int       `json:"row_count"`
	Status    string    `json:"status"`
	Duplicate bool      `json:"duplicate"`
	Warnings  []string  `json:"warnings"`
	ScanIDs   []int64   `json:"scan_ids"`
}

// TestHandleImport_StoresValidRows verifies a CSV import stores its valid rows.
func TestHandleImport_StoresValidRows(t *testing.T) {
	f := newImportFixture(1 << 20)

	w := f.upload(t, "scans.csv", validImportCSV, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body importBody
	decodeData(t, w, &body)
	assert.Equal(t, farmerA, body.FarmerID, "imports belong to the caller's farmer")
	assert.Equal(t, 2, body.RowCount)
	assert.Equal(t, ImportCompleted, body.Status)
	assert.False(t, body.Duplicate)
	require.Len(t, body.Warnings, 1, "the out-of-range row is reported")
	assert.Contains(t, body.Warnings[0], "row 4 skipped")
	assert.Len(t, body.ScanIDs, 2)

	require.Len(t, f.scans.scans, 2)
	assert.Equal(t, farmerA, f.scans.scans[0].FarmerID)
	assert.Equal(t, 0.42, f.scans.scans[0].NScore)

	stored := f.imports.get(body.ImportID)
	require.NotNil(t, stored)
	assert.Equal(t, ImportCompleted, stored.Status)
	require.NotNil(t, stored.ContentHash)
	assert.Len(t, *stored.ContentHash, 64, "content hash is hex SHA-256")
	assert.Equal(t, 1, f.recorder.imports[ImportCompleted])
	assert.Equal(t, 2, f.recorder.rows)
}

// TestHandleImport_DuplicateContent verifies a re-uploaded file returns the first import.
func TestHandleImport_DuplicateContent(t *testing.T) {
	f := newImportFixture(1 << 20)

	first := f.upload(t, "scans.csv", validImportCSV, "")
	require.Equal(t, http.StatusCreated, first.Code)
	var original importBody
	decodeData(t, first, &original)

	again := f.upload(t, "renamed.csv", validImportCSV, "")
	require.Equal(t, http.StatusOK, again.Code, again.Body.String())
	var dup importBody
	decodeData(t, again, &dup)

	assert.True(t, dup.Duplicate)
	assert.Equal(t, original.ImportID, dup.ImportID)
	assert.Len(t, f.scans.scans, 2, "no rows are stored twice")
}

// TestHandleImport_IdempotencyKey verifies a replayed key is answered with 409.
func TestHandleImport_IdempotencyKey(t *testing.T) {
	f := newImportFixture(1 << 20)

	first := f.upload(t, "scans.csv", validImportCSV, "import-42")
	require.Equal(t, http.StatusCreated, first.Code)
	var original importBody
	decodeData(t, first, &original)

	replay := f.upload(t, "other.csv", "crop_id,n_score,p_score,k_score\n1,1,2,3\n", "import-42")
	require.Equal(t, http.StatusConflict, replay.Code)

	env := decode(t, replay)
	assert.Equal(t, "error", env.Status, "a conflict is not a success")
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE", env.Error.Code)
	var existing importBody
	require.NoError(t, json.Unmarshal(env.Data, &existing))
	assert.Equal(t, original.ImportID, existing.ImportID, "the conflict carries the original import")
	assert.Len(t, f.scans.scans, 2)
}

// TestHandleImport_RejectedUploadKeepsKeyUsable verifies a key sent with a
// rejected upload is still free for the corrected retry.
func TestHandleImport_RejectedUploadKeepsKeyUsable(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"not a csv", "scans.xlsx", validImportCSV},
		{"missing required column", "scans.csv", "crop_id,n_score\n1,10\n"},
		{"no valid rows", "scans.csv", "crop_id,n_score,p_score,k_score\n1,500,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(1 << 20)

			rejected := f.upload(t, tt.filename, tt.content, "retry-1")
			require.Equal(t, http.StatusBadRequest, rejected.Code, rejected.Body.String())

			retry := f.upload(t, "scans.csv", validImportCSV, "retry-1")
			require.Equal(t, http.StatusCreated, retry.Code, retry.Body.String())

			var body importBody
			decodeData(t, retry, &body)
			assert.Equal(t, ImportCompleted, body.Status)
			assert.Len(t, f.scans.scans, 2, "the retry imports its rows")
		})
	}
}

// TestHandleImport_Rejections verifies request-level failures.
func TestHandleImport_Rejections(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		f := newImportFixture(16)
		w := f.upload(t, "scans.csv", validImportCSV, "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "FILE_TOO_LARGE", decode(t, w).Error.Code)
	})

	t.Run("not a csv", func(t *testing.T) {
		f := newImportFixture(1 << 20)
		w := f.upload(t, "scans.xlsx", validImportCSV, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		f := newImportFixture(1 << 20)
		req := httptest.NewRequest(http.MethodPost, "/scans/import", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestHandleImport_InvalidContentMarksFailed verifies parse failures are recorded on the import.
func TestHandleImport_InvalidContentMarksFailed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing required column", "crop_id,n_score\n1,10\n"},
		{"no valid rows", "crop_id,n_score,p_score,k_score\n1,500,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(1 << 20)
			w := f.upload(t, "scans.csv", tt.content, "")
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			require.Len(t, f.imports.imports, 1)
			for _, imp := range f.imports.imports {
				assert.Equal(t, ImportFailed, imp.Status)
			}
			assert.Empty(t, f.scans.scans)
			assert.Equal(t, 1, f.recorder.imports[ImportFailed])
		})
	}
}

// TestHandleImport_InsertFailure verifies storage errors surface as 500.
func TestHandleImport_InsertFailure(t *testing.T) {
	f := newImportFixture(1 << 20)
	f.scans.err = errors.New("disk full")

	w := f.upload(t, "scans.csv", validImportCSV, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestHandleImport_WithoutPostgres verifies SQLite deployments refuse imports.
func TestHandleImport_WithoutPostgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewImportHandler(nil, nil, nil, config.ImportConfig{}, nil)
	r := gin.New()
	r.Use(asFarmer())
	r.POST("/scans/import", h.HandleImport)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scans/import", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
