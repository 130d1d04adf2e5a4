package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// entity carries the identity and lifecycle fields shared by persistent models.
type entity struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newEntity(sequence int) entity {
	now := time.Now()
	return entity{sequence: sequence, createdAt: now, updatedAt: now}
}

func (e *entity) ID() string                { return e.id }
func (e *entity) SetID(id string)           { e.id = id }
func (e *entity) Sequence() int             { return e.sequence }
func (e *entity) SetSequence(seq int)       { e.sequence = seq }
func (e *entity) CreatedAt() time.Time      { return e.createdAt }
func (e *entity) SetCreatedAt(t time.Time)  { e.createdAt = t }
func (e *entity) UpdatedAt() time.Time      { return e.updatedAt }
func (e *entity) SetUpdatedAt(t time.Time)  { e.updatedAt = t }
func (e *entity) DeletedAt() *time.Time     { return e.deletedAt }
func (e *entity) SetDeletedAt(t *time.Time) { e.deletedAt = t }
func (e *entity) IsDeleted() bool           { return e.deletedAt != nil }

// Project is a persisted prompt-to-video draft.
type Project struct {
	entity
	Prompt     string
	Script     string
	SocialPost string
}

// NewProject creates a [Project] for prompt. The id is assigned by the repository.
func NewProject(sequence int, prompt string) *Project {
	return &Project{entity: newEntity(sequence), Prompt: prompt}
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("project prompt is required")
	}
	return nil
}

// Title returns the first line of the prompt, truncated for list views.
func (p *Project) Title() string {
	line, _, _ := strings.Cut(strings.TrimSpace(p.Prompt), "\n")
	if r := []rune(line); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return line
}

// Scene is one editable shot of a script.
type Scene struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Notes       string `json:"notes"`
	VideoFile   string `json:"videoFile,omitempty"`
}

// HasVideo reports whether a local clip is attached.
func (s Scene) HasVideo() bool { return s.VideoFile != "" }

// Seconds parses the leading number of the free-form duration text ("5", "4.5s", "6 seconds").
func (s Scene) Seconds() (float64, bool) {
	v, ok := leadingNumber(s.Duration)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// leadingNumber parses the number at the start of text, ignoring any unit after it.
func leadingNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	end := 0
	for end < len(text) && (text[end] == '.' || (text[end] >= '0' && text[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ElementVideo is the element type that carries a clip.
const ElementVideo = "video"

// VideoElement is one element of a [SceneTemplate].
type VideoElement struct {
	Type   string   `json:"type"`
	Src    string   `json:"src,omitempty"`
	Fit    string   `json:"fit,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// Seconds is a duration in seconds that decodes from a JSON number or from text starting with one ("5", "4.5s", "6 seconds").
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Seconds(n)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("duration must be a number: %s", string(data))
	}
	if strings.TrimSpace(text) == "" {
		*s = 0
		return nil
	}
	n, ok := leadingNumber(text)
	if !ok {
		return fmt.Errorf("duration must be a number: %q", text)
	}
	*s = Seconds(n)
	return nil
}

// SceneTemplate is a scene stub in a render template.
//
// SceneID binds the stub to a [Scene]; it is never serialized.
type SceneTemplate struct {
	Comment         string         `json:"comment,omitempty"`
	Duration        Seconds        `json:"duration,omitempty"`
	BackgroundColor string         `json:"background-color,omitempty"`
	Elements        []VideoElement `json:"elements"`
	SceneID         int            `json:"-"`
}

// VideoIndex returns the index of the first video element, or -1.
func (t SceneTemplate) VideoIndex() int {
	for i, el := range t.Elements {
		if el.Type == ElementVideo {
			return i
		}
	}
	return -1
}

// HasVideo reports whether the stub contains a video element.
func (t SceneTemplate) HasVideo() bool { return t.VideoIndex() >= 0 }

// VideoTemplate is the full render template.
type VideoTemplate struct {
	Resolution string          `json:"resolution,omitempty"`
	Quality    string          `json:"quality,omitempty"`
	Scenes     []SceneTemplate `json:"scenes"`
}

// UploadedScene pairs a scene id with the hosted URL of its clip.
type UploadedScene struct {
	SceneID   int    `json:"sceneId"`
	VideoURL  string `json:"videoUrl"`
	ProjectID string `json:"projectId,omitempty"`
}

// JobStatus is the lifecycle status of a render job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status change is expected.
func (s JobStatus) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// RenderJob is a render job as reported by the rendering service.
//
// ProjectID is the rendering service's job identifier.
type RenderJob struct {
	ProjectID string    `json:"projectId"`
	Status    JobStatus `json:"status"`
	URL       string    `json:"url,omitempty"`
	Message   string    `json:"message,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
}

// RenderRecord is a [RenderJob] persisted against the [Project] that submitted it.
type RenderRecord struct {
	RenderJob
	DraftID string
	Created time.Time
	Updated time.Time
}

// AuthUser is the identity embedded in a [Session].
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an auth backend session.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         AuthUser `json:"user"`
}

// Expired reports whether the session has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// TikTokUser is the basic profile returned by the TikTok user info endpoint.
type TikTokUser struct {
	OpenID      string `json:"open_id"`
	UnionID     string `json:"union_id,omitempty"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Handle returns the best available name for greetings.
func (u TikTokUser) Handle() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.OpenID
}
