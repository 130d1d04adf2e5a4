package formatter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	th "github.com/desertthunder/reelx/internal/testing"
)

func sampleList() ShotList {
	return ShotList{
		Title:      "Coffee Shop Launch",
		SocialPost: "Fresh beans daily!\n\n[\"#coffee\", \"#austin\"]",
		Scenes: []models.Scene{
			{ID: 1, Description: "[Scene 1] Door opens", Duration: "5", Notes: "golden hour", VideoFile: "/clips/door.mp4"},
			{ID: 2, Description: "POV: first sip", Duration: "4.5s"},
			{ID: 3, Description: "Caption: see you soon", Duration: "soon"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleList())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Scene,Description,Duration,Notes,Video" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][1] != "[Scene 1] Door opens" || records[1][4] != "/clips/door.mp4" {
			t.Errorf("unexpected first row %v", records[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleList())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Coffee Shop Launch",
			"## Social Media Post",
			"#coffee #austin",
			"**Scenes**: 3",
			"**Estimated duration**: 0:10",
			"1. [Scene 1] Door opens [5]",
			"   - Notes: golden hour",
			"   - Video: `door.mp4`",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleList())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Project: Coffee Shop Launch") || !strings.Contains(output, "2. POV: first sip") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleList())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Title        string         `json:"title"`
			Scenes       []models.Scene `json:"scenes"`
			TotalSeconds float64        `json:"totalSeconds"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Title != "Coffee Shop Launch" || len(decoded.Scenes) != 3 || decoded.TotalSeconds != 9.5 {
			t.Errorf("unexpected JSON %+v", decoded)
		}
	})

	t.Run("Empty Shot List", func(t *testing.T) {
		data, err := ExportToMarkdown(ShotList{Title: "Empty"})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "**Scenes**: 0") {
			t.Errorf("unexpected output %s", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{" txt ", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.input, got, err)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	if FormatMarkdown.Ext() != ".md" || FormatCSV.Ext() != ".csv" {
		t.Error("unexpected extensions")
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shots.csv")
		written, err := WriteExport(sampleList(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, written)
		if !strings.HasPrefix(th.MustReadFile(t, written), "Scene,Description") {
			t.Error("unexpected file content")
		}
	})

	t.Run("Default Path", func(t *testing.T) {
		dir := t.TempDir()
		wd, _ := os.Getwd()
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(wd)

		written, err := WriteExport(sampleList(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "coffee-shop-launch_shots.md" {
			t.Errorf("unexpected default path %s", written)
		}
	})

	t.Run("Unwritable", func(t *testing.T) {
		if _, err := WriteExport(sampleList(), FormatText, filepath.Join(t.TempDir(), "missing", "x.txt")); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Coffee Shop Launch!":   "coffee-shop-launch",
		"  ":                    "project",
		"POV: café opening":     "pov-caf-opening",
		strings.Repeat("a", 50): strings.Repeat("a", 40),
	}
	for input, want := range tests {
		if got := Slug(input); got != want {
			t.Errorf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(65); got != "1:05" {
		t.Errorf("expected 1:05, got %s", got)
	}
	if got := FormatSeconds(0); got != "0:00" {
		t.Errorf("expected 0:00, got %s", got)
	}
}

func TestDownloadRender(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("movie-bytes"))
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "final.mp4")
		n, err := DownloadRender(context.Background(), srv.Client(), srv.URL, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 11 || th.MustReadFile(t, path) != "movie-bytes" {
			t.Errorf("unexpected download result %d", n)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadRender(context.Background(), srv.Client(), srv.URL, filepath.Join(t.TempDir(), "x.mp4")); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadRender(context.Background(), nil, "", "x.mp4"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
