package database

import (
	"context"
	"fmt"
	"log"
	"sitecraft/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BatchInsertError indicates which turn failed during a batch append.
// Turns before FailedIndex were written.
type BatchInsertError struct {
	FailedIndex int
	Total       int
	Err         error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("failed to append turn at index %d/%d: %v", e.FailedIndex, e.Total, e.Err)
}

func (e *BatchInsertError) Unwrap() error {
	return e.Err
}

// AppendTurn writes exactly one conversation row. Turns are never
// deduplicated.
func (db *DB) AppendTurn(ctx context.Context, projectID uuid.UUID, role models.Role, content string) (uuid.UUID, error) {
	if !role.Valid() {
		return uuid.Nil, fmt.Errorf("invalid role %q", role)
	}

	query := `
		INSERT INTO conversation_turns (project_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id uuid.UUID
	if err := db.Pool.QueryRow(ctx, query, projectID, string(role), content).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, models.ErrProjectNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to append turn: %w", err)
	}
	return id, nil
}

// AppendTurns writes several turns of one role in a single round-trip,
// preserving their order.
func (db *DB) AppendTurns(ctx context.Context, projectID uuid.UUID, role models.Role, contents ...string) error {
	if len(contents) == 0 {
		return nil
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	start := time.Now()
	defer func() {
		log.Printf("AppendTurns: duration=%v project=%s count=%d", time.Since(start), projectID, len(contents))
	}()

	query := `
		INSERT INTO conversation_turns (project_id, role, content)
		VALUES ($1, $2, $3)
	`

	batch := &pgx.Batch{}
	for _, content := range contents {
		batch.Queue(query, projectID, string(role), content)
	}

	results := db.Pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for i := range contents {
		if _, err := results.Exec(); err != nil {
			return &BatchInsertError{
				FailedIndex: i,
				Total:       len(contents),
				Err:         err,
			}
		}
	}

	return nil
}

// ListTurns returns a project's conversation oldest first.
func (db *DB) ListTurns(ctx context.Context, projectID uuid.UUID) ([]models.ConversationTurn, error) {
	query := `
		SELECT id, project_id, role, content, created_at
		FROM conversation_turns
		WHERE project_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := db.Pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

func scanTurn(row rowScanner) (*models.ConversationTurn, error) {
	var turn models.ConversationTurn
	var role string
	err := row.Scan(&turn.ID, &turn.ProjectID, &role, &turn.Content, &turn.Timestamp)
	if err != nil {
		return nil, err
	}
	turn.Role = models.Role(role)
	return &turn, nil
}

func scanTurns(rows rowsScanner) ([]models.ConversationTurn, error) {
	turns := []models.ConversationTurn{}
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, *turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}

	return turns, nil
}
