// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/reelx/internal/models"
)

// MP4Header is the smallest prefix that content sniffing reports as video/mp4.
var MP4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
	0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm',
}

// MockRenderer is a test double for [services.Renderer] that replays scripted statuses.
//
// Each MovieStatus call consumes the next entry of Statuses (or Errs at the same index); the last entry repeats.
type MockRenderer struct {
	mu        sync.Mutex
	JobID     string
	CreateErr error
	Statuses  []models.RenderJob
	Errs      []error
	Submitted []models.VideoTemplate
	Polls     int
}

func (m *MockRenderer) CreateMovie(ctx context.Context, tmpl models.VideoTemplate) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Submitted = append(m.Submitted, tmpl)
	return m.JobID, nil
}

func (m *MockRenderer) MovieStatus(ctx context.Context, jobID string) (*models.RenderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.Polls
	m.Polls++

	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}
	if len(m.Statuses) == 0 {
		return &models.RenderJob{ProjectID: jobID, Status: models.StatusProcessing}, nil
	}
	if i >= len(m.Statuses) {
		i = len(m.Statuses) - 1
	}
	job := m.Statuses[i]
	job.ProjectID = jobID
	return &job, nil
}

func (m *MockRenderer) Name() string { return "mock" }

// PollCount returns how many status calls were made.
func (m *MockRenderer) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Polls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// WriteVideo writes a file that sniffs as video/mp4 into dir and returns its path.
func WriteVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := append(append([]byte{}, MP4Header...), []byte("clip:"+name)...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write video %s: %v", path, err)
	}
	return path
}

// WriteText writes a plain text file into dir and returns its path.
func WriteText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
