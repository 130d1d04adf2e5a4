package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// SceneRepository persists the scene list of a project.
//
// Scenes have no identity outside their project, so the list is saved as a whole.
type SceneRepository struct {
	db *sql.DB
}

// NewSceneRepository creates a new SceneRepository with the given database connection
func NewSceneRepository(db *sql.DB) *SceneRepository {
	return &SceneRepository{db: db}
}

// SaveAll replaces the scenes of projectID.
func (r *SceneRepository) SaveAll(projectID string, scenes []models.Scene) error {
	if projectID == "" {
		return fmt.Errorf("%w: project id is required", shared.ErrMissingArgument)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scenes WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear scenes: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scenes (project_id, scene_id, description, duration, notes, video_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare scene insert: %w", err)
	}
	defer stmt.Close()

	for _, sc := range scenes {
		if _, err := stmt.Exec(projectID, sc.ID, sc.Description, sc.Duration, sc.Notes, sc.VideoFile); err != nil {
			return fmt.Errorf("failed to insert scene %d: %w", sc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scenes: %w", err)
	}
	return nil
}

// List returns the scenes of projectID ordered by scene id.
func (r *SceneRepository) List(projectID string) ([]models.Scene, error) {
	rows, err := r.db.Query(`
		SELECT scene_id, description, duration, notes, video_path
		FROM scenes
		WHERE project_id = ?
		ORDER BY scene_id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	scenes := []models.Scene{}
	for rows.Next() {
		var sc models.Scene
		if err := rows.Scan(&sc.ID, &sc.Description, &sc.Duration, &sc.Notes, &sc.VideoFile); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		scenes = append(scenes, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return scenes, nil
}

// Clear removes every scene of projectID.
func (r *SceneRepository) Clear(projectID string) error {
	if _, err := r.db.Exec(`DELETE FROM scenes WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear scenes: %w", err)
	}
	return nil
}
