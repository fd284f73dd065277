package database

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"sitecraft/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const versionColumns = `id, project_id, code, description, created_at`

// AppendVersion stores an immutable snapshot. The project's current
// pointer is left alone.
func (db *DB) AppendVersion(ctx context.Context, projectID uuid.UUID, code, description string) (*models.Version, error) {
	return appendVersion(ctx, db.Pool, projectID, code, description)
}

// SetCurrentVersion points the project at one of its own versions and
// copies that version's code into current_code in a single statement.
// Returns ErrVersionNotFound if the version belongs to another project.
func (db *DB) SetCurrentVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Project, error) {
	return setCurrentVersion(ctx, db.Pool, projectID, versionID)
}

// CommitVersion appends a version and makes it current in one transaction.
// On error nothing has been written.
func (db *DB) CommitVersion(ctx context.Context, projectID uuid.UUID, code, description string) (*models.Version, error) {
	start := time.Now()
	defer func() {
		log.Printf("CommitVersion: duration=%v project=%s bytes=%d", time.Since(start), projectID, len(code))
	}()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	version, err := appendVersion(ctx, tx, projectID, code, description)
	if err != nil {
		return nil, err
	}
	if _, err := setCurrentVersion(ctx, tx, projectID, version.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}
	return version, nil
}

func (db *DB) GetVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE id = $1 AND project_id = $2`

	version, err := scanVersion(db.Pool.QueryRow(ctx, query, versionID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// VersionsByTime streams a project's versions, oldest first. Rows are read
// as the caller ranges; ranging again re-runs the query.
func (db *DB) VersionsByTime(ctx context.Context, projectID uuid.UUID) iter.Seq2[models.Version, error] {
	return func(yield func(models.Version, error) bool) {
		query := `
			SELECT ` + versionColumns + `
			FROM versions
			WHERE project_id = $1
			ORDER BY created_at ASC, seq ASC
		`

		rows, err := db.Pool.Query(ctx, query, projectID)
		if err != nil {
			yield(models.Version{}, fmt.Errorf("failed to query versions: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			version, err := scanVersion(rows)
			if err != nil {
				yield(models.Version{}, fmt.Errorf("failed to scan version: %w", err))
				return
			}
			if !yield(*version, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(models.Version{}, fmt.Errorf("error iterating versions: %w", err))
		}
	}
}

func (db *DB) ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.Version, error) {
	versions := []models.Version{}
	for v, err := range db.VersionsByTime(ctx, projectID) {
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func appendVersion(ctx context.Context, q querier, projectID uuid.UUID, code, description string) (*models.Version, error) {
	query := `
		INSERT INTO versions (project_id, code, description)
		VALUES ($1, $2, $3)
		RETURNING ` + versionColumns

	version, err := scanVersion(q.QueryRow(ctx, query, projectID, code, description))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to append version: %w", err)
	}
	return version, nil
}

func setCurrentVersion(ctx context.Context, q querier, projectID, versionID uuid.UUID) (*models.Project, error) {
	query := `
		UPDATE projects p
		SET current_code = v.code, current_version_id = v.id, updated_at = NOW()
		FROM versions v
		WHERE p.id = $1 AND v.id = $2 AND v.project_id = p.id
		RETURNING p.id, p.user_id, p.name, p.initial_prompt, p.current_code,
			p.current_version_id, p.is_published, p.created_at, p.updated_at
	`

	project, err := scanProject(q.QueryRow(ctx, query, projectID, versionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to set current version: %w", err)
	}
	return project, nil
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var version models.Version
	err := row.Scan(
		&version.ID,
		&version.ProjectID,
		&version.Code,
		&version.Description,
		&version.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &version, nil
}
