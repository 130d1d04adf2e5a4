package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// ProjectRepository implements models.Repository[*models.Project].
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository with the given database connection
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, sequence, prompt, script, social_post, created_at, updated_at, deleted_at`

// Create inserts a new project with a generated ID and sequence
func (r *ProjectRepository) Create(project *models.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	sequence, err := NextSequence(r.db, "projects")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	project.SetID(shared.GenerateID())
	project.SetSequence(sequence)

	_, err = r.db.Exec(`
		INSERT INTO projects (id, sequence, prompt, script, social_post, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		project.ID(),
		sequence,
		project.Prompt,
		project.Script,
		project.SocialPost,
		project.CreatedAt(),
		project.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID, excluding soft-deleted projects
func (r *ProjectRepository) Get(id string) (*models.Project, error) {
	row := r.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ? AND deleted_at IS NULL`, id)
	return scanProject(row)
}

// GetBySequence retrieves a project by its sequence number
func (r *ProjectRepository) GetBySequence(sequence int) (*models.Project, error) {
	row := r.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE sequence = ? AND deleted_at IS NULL`, sequence)
	return scanProject(row)
}

// Latest returns the most recently updated project.
func (r *ProjectRepository) Latest() (*models.Project, error) {
	row := r.db.QueryRow(`SELECT ` + projectColumns + ` FROM projects WHERE deleted_at IS NULL ORDER BY updated_at DESC, sequence DESC LIMIT 1`)
	return scanProject(row)
}

// Update stores the generated content of a project
func (r *ProjectRepository) Update(project *models.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	now := time.Now()
	project.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE projects
		SET prompt = ?, script = ?, social_post = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, project.Prompt, project.Script, project.SocialPost, now, project.ID())
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return affectedOne(result, shared.ErrProjectNotFound, project.ID())
}

// Delete soft-deletes a project by ID
func (r *ProjectRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE projects SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return affectedOne(result, shared.ErrProjectNotFound, id)
}

// List retrieves projects ordered by sequence.
//
// Supported criteria: "query" (substring of the prompt) and "limit" (int).
func (r *ProjectRepository) List(criteria map[string]any) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE deleted_at IS NULL`
	args := []any{}

	if q, ok := criteria["query"].(string); ok && strings.TrimSpace(q) != "" {
		query += " AND prompt LIKE ?"
		args = append(args, "%"+strings.TrimSpace(q)+"%")
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return projects, nil
}

func scanProject(row scanner) (*models.Project, error) {
	var (
		id         string
		sequence   int
		prompt     string
		script     string
		socialPost string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &prompt, &script, &socialPost, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	project := models.NewProject(sequence, prompt)
	project.SetID(id)
	project.Script = script
	project.SocialPost = socialPost
	project.SetCreatedAt(createdAt)
	project.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		project.SetDeletedAt(&deletedAt.Time)
	}

	return project, nil
}
