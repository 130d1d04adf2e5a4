// package formatter renders generated content for display and exports shot lists (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// ShotList is the exportable view of a project's scenes.
type ShotList struct {
	Title      string         `json:"title"`
	SocialPost string         `json:"socialPost,omitempty"`
	Scenes     []models.Scene `json:"scenes"`
}

// TotalSeconds sums the parseable scene durations.
func (s ShotList) TotalSeconds() float64 {
	var total float64
	for _, sc := range s.Scenes {
		if v, ok := sc.Seconds(); ok {
			total += v
		}
	}
	return total
}

// FormatSeconds renders a duration as m:ss.
func FormatSeconds(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Export renders list in format.
func Export(list ShotList, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(list)
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list)
	case FormatText:
		return ExportToText(list)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToJSON renders the shot list with its total duration.
func ExportToJSON(list ShotList) ([]byte, error) {
	data, err := json.MarshalIndent(struct {
		ShotList
		TotalSeconds float64 `json:"totalSeconds"`
	}{list, list.TotalSeconds()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode shot list: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders one row per scene with columns: Scene, Description, Duration, Notes, Video
func ExportToCSV(list ShotList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Scene", "Description", "Duration", "Notes", "Video"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, sc := range list.Scenes {
		record := []string{
			fmt.Sprint(sc.ID),
			sc.Description,
			sc.Duration,
			sc.Notes,
			sc.VideoFile,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the shot list as a heading, the social post and a numbered scene list
func ExportToMarkdown(list ShotList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Title)

	if list.SocialPost != "" {
		buf.WriteString("## Social Media Post\n\n")
		for _, block := range Sections(list.SocialPost) {
			if len(block.Hashtags) > 0 {
				fmt.Fprintf(&buf, "%s\n\n", strings.Join(block.Hashtags, " "))
				continue
			}
			fmt.Fprintf(&buf, "%s\n\n", block.Text)
		}
	}

	fmt.Fprintf(&buf, "**Scenes**: %d\n", len(list.Scenes))
	fmt.Fprintf(&buf, "**Estimated duration**: %s\n\n", FormatSeconds(list.TotalSeconds()))

	buf.WriteString("## Shots\n\n")
	for _, sc := range list.Scenes {
		duration := ""
		if sc.Duration != "" {
			duration = fmt.Sprintf(" [%s]", sc.Duration)
		}
		fmt.Fprintf(&buf, "%d. %s%s\n", sc.ID, sc.Description, duration)
		if sc.Notes != "" {
			fmt.Fprintf(&buf, "   - Notes: %s\n", sc.Notes)
		}
		if sc.HasVideo() {
			fmt.Fprintf(&buf, "   - Video: `%s`\n", filepath.Base(sc.VideoFile))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the shot list as plain text
func ExportToText(list ShotList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Project: %s\n", list.Title)
	fmt.Fprintf(&buf, "Scenes: %d (%s)\n\n", len(list.Scenes), FormatSeconds(list.TotalSeconds()))

	for _, sc := range list.Scenes {
		fmt.Fprintf(&buf, "%d. %s\n", sc.ID, sc.Description)
	}

	return buf.Bytes(), nil
}

// WriteExport writes list to path in format.
//
// Defaults to {title}_shots{ext} in the working directory.
func WriteExport(list ShotList, format Format, path string) (string, error) {
	if path == "" {
		path = Slug(list.Title) + "_shots" + format.Ext()
	}

	data, err := Export(list, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a lowercase file-name-safe token.
func Slug(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	if slug == "" {
		return "project"
	}
	return slug
}

// DownloadRender saves the rendered video at url to path.
func DownloadRender(ctx context.Context, client *http.Client, url, path string) (int64, error) {
	if url == "" {
		return 0, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download video: status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write video: %w", err)
	}
	return n, nil
}
