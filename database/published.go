package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitecraft/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultPageLimit = 24
	MaxPageLimit     = 100
)

// SearchQueryParser validates and transforms user search queries to PostgreSQL tsquery format.
// Enforces minimum/maximum length and sanitizes special characters.
type SearchQueryParser struct {
	minLength int
	maxLength int
}

// NewSearchQueryParser creates a SearchQueryParser with default limits.
// Default: minimum 3 characters, maximum 1000 characters.
func NewSearchQueryParser() *SearchQueryParser {
	return &SearchQueryParser{
		minLength: 3,
		maxLength: 1000,
	}
}

// Parse converts a user's search query to PostgreSQL tsquery format.
// Performs the following transformations:
//  1. Trims whitespace
//  2. Validates length (min 3, max 1000 chars)
//  3. Removes special characters (quotes, parentheses)
//  4. Splits into words
//  5. Filters out single-character words
//  6. Converts to lowercase
//  7. Joins with " & " (AND operator)
//
// Examples:
//
//	"Bakery Landing" → "bakery & landing"
//	"a portfolio b" → "portfolio"
//
// Returns an error wrapping models.ErrInvalidQuery if the query is too
// short, too long, or becomes empty after filtering.
func (p *SearchQueryParser) Parse(query string) (string, error) {
	terms, err := p.Terms(query)
	if err != nil {
		return "", err
	}
	return strings.Join(terms, " & "), nil
}

// Terms applies the same validation as Parse and returns the individual
// lowercase search terms.
func (p *SearchQueryParser) Terms(query string) ([]string, error) {
	query = strings.TrimSpace(query)

	if len(query) < p.minLength {
		return nil, fmt.Errorf("search query must be at least %d characters: %w", p.minLength, models.ErrInvalidQuery)
	}

	if len(query) > p.maxLength {
		return nil, fmt.Errorf("search query too long (max %d characters): %w", p.maxLength, models.ErrInvalidQuery)
	}

	query = p.sanitize(query)

	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, fmt.Errorf("search query is empty: %w", models.ErrInvalidQuery)
	}

	validWords := p.filterValidWords(words)
	if len(validWords) == 0 {
		return nil, fmt.Errorf("no valid search terms: %w", models.ErrInvalidQuery)
	}

	return validWords, nil
}

func (p *SearchQueryParser) sanitize(query string) string {
	replacements := map[string]string{
		`"`: "",
		"'": "",
		"(": "",
		")": "",
		"&": "",
		"|": "",
		"!": "",
		":": "",
	}

	for old, new := range replacements {
		query = strings.ReplaceAll(query, old, new)
	}

	return query
}

func (p *SearchQueryParser) filterValidWords(words []string) []string {
	valid := []string{}
	for _, word := range words {
		if len(word) >= 2 {
			valid = append(valid, strings.ToLower(word))
		}
	}
	return valid
}

// ListPublishedProjects returns published projects, newest activity first,
// with an optional full-text search over name and initial prompt.
// Uses COUNT(*) OVER() to get the total in the same query.
func (db *DB) ListPublishedProjects(ctx context.Context, params models.PublishedQuery) ([]models.Project, int64, error) {
	start := time.Now()
	defer func() {
		log.Printf("ListPublishedProjects: duration=%v search=%q", time.Since(start), params.Search)
	}()

	limit, offset := NormalizePage(params.Limit, params.Offset)

	qb := NewQueryBuilder()
	qb.AddCondition(columnIsPublished, true)

	orderBy := columnUpdatedAt + " DESC"
	if strings.TrimSpace(params.Search) != "" {
		tsQuery, err := NewSearchQueryParser().Parse(params.Search)
		if err != nil {
			return nil, 0, err
		}
		n := qb.AddFullTextSearch(searchDocument, tsQuery)
		orderBy = fmt.Sprintf("ts_rank(to_tsvector('english', %s), to_tsquery('english', $%d)) DESC, %s DESC",
			searchDocument, n, columnUpdatedAt)
	}
	window, err := ParseTimeRange(params.StartTime, params.EndTime)
	if err != nil {
		return nil, 0, err
	}
	qb.AddTimeRange(columnCreatedAt, window)

	// SAFETY: All user input is parameterized. whereClause only contains safe SQL.
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM projects
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, projectColumns, qb.WhereClause(), orderBy, qb.NextArgNum(), qb.NextArgNum()+1)

	args := append(qb.Args(), limit, offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list published projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	var total int64
	for rows.Next() {
		var p models.Project
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.InitialPrompt, &p.CurrentCode,
			&p.CurrentVersionID, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating projects: %w", err)
	}

	// COUNT(*) OVER() has no row to ride on when the page is past the end.
	if len(projects) == 0 && offset > 0 {
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM projects %s`, qb.WhereClause())
		if err := db.Pool.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to count published projects: %w", err)
		}
	}

	return projects, total, nil
}

// GetPublishedSite returns the code of a published project. Unpublished
// projects and projects without code are reported as not found.
func (db *DB) GetPublishedSite(ctx context.Context, projectID uuid.UUID) (*models.PublishedSite, error) {
	query := `
		SELECT id, current_code
		FROM projects
		WHERE id = $1 AND is_published AND current_code <> ''
	`

	var site models.PublishedSite
	if err := db.Pool.QueryRow(ctx, query, projectID).Scan(&site.ProjectID, &site.Code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get published site: %w", err)
	}
	return &site, nil
}
