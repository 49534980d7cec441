package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const strictThresholds = `
version: strict-1
health_classification:
  thresholds:
    attention:
      min_score: 60
    healthy:
      min_score: 90
`

// TestClassify_DefaultThresholds verifies tiers against the built-in defaults.
func TestClassify_DefaultThresholds(t *testing.T) {
	tests := []struct {
		score string
		want  string
	}{
		{"85", "healthy"},
		{"80", "healthy"},
		{"65", "attention"},
		{"30", "critical"},
	}
	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			got := runJSON(t, "classify", tt.score)
			assert.Equal(t, tt.want, got["status"])
		})
	}
}

// TestClassify_CustomThresholds verifies --thresholds replaces the defaults.
func TestClassify_CustomThresholds(t *testing.T) {
	path := writeFile(t, "thresholds.yaml", strictThresholds)

	got := runJSON(t, "--thresholds", path, "classify", "85")
	assert.Equal(t, "attention", got["status"], "85 is below the stricter healthy tier")
}

// TestClassify_RejectsBadInput verifies argument validation.
func TestClassify_RejectsBadInput(t *testing.T) {
	_, err := run(t, "classify", "150")
	assert.Error(t, err)

	_, err = run(t, "classify", "abc")
	assert.Error(t, err)

	_, err = run(t, "--thresholds", filepath.Join(t.TempDir(), "missing.json"), "classify", "50")
	assert.Error(t, err, "a named thresholds file must exist")
}

// TestNutrient verifies deficiency scores are inverted before classifying.
func TestNutrient(t *testing.T) {
	got := runJSON(t, "nutrient", "90")
	assert.Equal(t, "deficient", got["status"])
	assert.Equal(t, true, got["needs_fertilizer"])

	got = runJSON(t, "nutrient", "0.05")
	assert.Equal(t, "excess", got["status"], "fractions are normalized")
}

// TestTrend verifies epsilon handling from the command line.
func TestTrend(t *testing.T) {
	got := runJSON(t, "trend", "70", "60")
	assert.Equal(t, "increase", got["direction"])
	assert.Equal(t, "significant", got["significance"])

	got = runJSON(t, "trend", "62", "60")
	assert.Equal(t, "stable", got["direction"], "changes within epsilon are stable")
}

// TestReport_WithHistory verifies report generation from scan files.
func TestReport_WithHistory(t *testing.T) {
	current := writeFile(t, "current.json",
		`{"scan_id": 2, "crop_id": 1, "created_at": "2024-03-10T09:00:00Z", "n_score": 40, "p_score": 30, "k_score": 20}`)
	previous := writeFile(t, "previous.json",
		`{"scan_id": 1, "crop_id": 1, "created_at": "2024-03-01T09:00:00Z", "n_score": 60, "p_score": 50, "k_score": 40}`)

	report := runJSON(t, "report", "--scan", current, "--previous", previous, "--baseline", previous)

	classification := report["health_classification"].(map[string]interface{})
	assert.Equal(t, 70.0, classification["overall_score"])
	assert.Equal(t, "attention", classification["status"])

	history := report["historical_comparison"].(map[string]interface{})
	assert.Equal(t, true, history["has_history"])
	trend := history["overall_trend"].(map[string]interface{})
	assert.Equal(t, "increase", trend["direction"], "overall health rose from 50 to 70")

	field := report["field_info"].(map[string]interface{})
	assert.Equal(t, 1.0, field["crop_id"])
}

// TestReport_Preview verifies the condensed preview output.
func TestReport_Preview(t *testing.T) {
	current := writeFile(t, "current.json",
		`{"scan_id": 2, "crop_id": 1, "created_at": "2024-03-10T09:00:00Z", "n_score": 40, "p_score": 30, "k_score": 20}`)
	previous := writeFile(t, "previous.json",
		`{"scan_id": 1, "crop_id": 1, "created_at": "2024-03-01T09:00:00Z", "n_score": 60, "p_score": 50, "k_score": 30}`)

	preview := runJSON(t, "report", "--preview", "--scan", current, "--previous", previous)

	comparison := preview["comparison"].(map[string]interface{})
	assert.Equal(t, "Improving", comparison["trend_label"])
	changes := comparison["changes"].(map[string]interface{})
	assert.Equal(t, 20.0, changes["n_change"])
	assert.Equal(t, 10.0, changes["k_change"])
}

// TestReport_RequiresScan verifies the --scan flag is mandatory.
func TestReport_RequiresScan(t *testing.T) {
	_, err := run(t, "report")
	assert.Error(t, err)
}

// TestChart verifies chart generation and its failure modes.
func TestChart(t *testing.T) {
	scans := writeFile(t, "scans.json", `[
		{"scan_id": 1, "crop_id": 1, "created_at": "2024-03-01T09:00:00Z", "n_score": 60, "p_score": 50, "k_score": 40},
		{"scan_id": 2, "crop_id": 1, "created_at": "2024-03-10T09:00:00Z", "n_score": 40, "p_score": 30, "k_score": 20}
	]`)

	line := runJSON(t, "chart", "--scans", scans, "--type", "line")
	assert.Equal(t, "line", line["type"])
	assert.Len(t, line["labels"], 2)

	_, err := run(t, "chart", "--scans", scans, "--type", "pie")
	assert.Error(t, err, "unknown chart types are rejected")

	single := writeFile(t, "single.json",
		`[{"scan_id": 1, "crop_id": 1, "created_at": "2024-03-01T09:00:00Z", "n_score": 60, "p_score": 50, "k_score": 40}]`)
	_, err = run(t, "chart", "--scans", single, "--type", "bar")
	assert.Error(t, err, "a bar chart needs two scans")
}

// TestHistory_FromSQLite verifies history listing from a legacy database.
func TestHistory_FromSQLite(t *testing.T) {
	farmer := uuid.New()
	path := filepath.Join(t.TempDir(), "legacy.db")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE leaf_scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_uuid TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL,
			crop_id INTEGER DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE diagnoses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id INTEGER UNIQUE NOT NULL,
			n_score REAL, p_score REAL, k_score REAL,
			n_confidence REAL, p_confidence REAL, k_confidence REAL,
			n_severity TEXT, p_severity TEXT, k_severity TEXT,
			overall_status TEXT, detected_class TEXT
		);`)
	require.NoError(t, err)
	for i, created := range []string{"2024-03-01 09:00:00", "2024-03-10 09:00:00"} {
		_, err = conn.Exec(`INSERT INTO leaf_scans (scan_uuid, user_id, crop_id, created_at) VALUES (?, ?, 1, ?)`,
			uuid.NewString(), farmer.String(), created)
		require.NoError(t, err)
		_, err = conn.Exec(`INSERT INTO diagnoses (scan_id, n_score, p_score, k_score) VALUES (?, 0.6, 0.5, 0.4)`, i+1)
		require.NoError(t, err)
	}
	require.NoError(t, conn.Close())

	out, err := run(t, "history", "--db", path, "--farmer", farmer.String(), "--limit", "5")
	require.NoError(t, err)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &items), "output: %s", out)
	require.Len(t, items, 2)
	assert.Equal(t, 2.0, items[0]["scan_id"], "newest first")

	_, err = run(t, "history", "--db", path, "--farmer", "not-a-uuid")
	assert.Error(t, err)
}

// TestConfigShow verifies both output formats.
func TestConfigShow(t *testing.T) {
	cfg := runJSON(t, "config", "show")
	assert.Equal(t, "default", cfg["version"])

	out, err := run(t, "config", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "health_classification:")
	assert.Contains(t, out, "version: default")

	_, err = run(t, "config", "show", "--format", "xml")
	assert.Error(t, err)
}

// TestConfigValidate verifies documents are checked without being installed.
func TestConfigValidate(t *testing.T) {
	good := writeFile(t, "good.yaml", strictThresholds)
	out, err := run(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "valid (version strict-1)")

	bad := writeFile(t, "bad.json",
		`{"health_classification": {"thresholds": {"attention": {"min_score": 95}, "healthy": {"min_score": 90}}}}`)
	_, err = run(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attention.min_score")
}
