package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitecraft/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, user_id, name, initial_prompt, current_code, current_version_id, is_published, created_at, updated_at`

func (db *DB) CreateProject(ctx context.Context, userID uuid.UUID, name, initialPrompt string) (*models.Project, error) {
	query := `
		INSERT INTO projects (user_id, name, initial_prompt)
		VALUES ($1, $2, $3)
		RETURNING ` + projectColumns

	project, err := scanProject(db.Pool.QueryRow(ctx, query, userID, name, initialPrompt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Printf("Created project: %s (ID: %s)", project.Name, project.ID)
	return project, nil
}

func (db *DB) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (db *DB) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// DeleteProject removes the project; versions and conversation turns go
// with it through ON DELETE CASCADE.
func (db *DB) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := db.Pool.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}

	log.Printf("Deleted project: %s", projectID)
	return nil
}

// SaveProjectCode overwrites current_code and detaches the project from
// its version history.
func (db *DB) SaveProjectCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Project, error) {
	query := `
		UPDATE projects
		SET current_code = $2, current_version_id = NULL, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to save project code: %w", err)
	}
	return project, nil
}

func (db *DB) TogglePublish(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `
		UPDATE projects
		SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to toggle publish: %w", err)
	}

	log.Printf("TogglePublish: project=%s published=%t", project.ID, project.IsPublished)
	return project, nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.InitialPrompt,
		&project.CurrentCode,
		&project.CurrentVersionID,
		&project.IsPublished,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func scanProjects(rows rowsScanner) ([]models.Project, error) {
	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
