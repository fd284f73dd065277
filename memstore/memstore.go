// Package memstore is an in-process store with the same contracts as the
// Postgres store. It backs STORE_BACKEND=memory and the workflow tests.
package memstore

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sitecraft/database"
	"sitecraft/models"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	apiKeys  map[string]uuid.UUID
	projects map[uuid.UUID]*models.Project
	versions map[uuid.UUID][]models.Version
	turns    map[uuid.UUID][]models.ConversationTurn
	last     time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*models.User),
		apiKeys:  make(map[string]uuid.UUID),
		projects: make(map[uuid.UUID]*models.Project),
		versions: make(map[uuid.UUID][]models.Version),
		turns:    make(map[uuid.UUID][]models.ConversationTurn),
	}
}

// tick returns a strictly increasing timestamp so insertion order and
// time order agree. Callers hold s.mu.
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

// Users and credit ledger

func (s *Store) CreateUser(ctx context.Context, name string, credits int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	user := &models.User{
		ID:        uuid.New(),
		Name:      name,
		APIKey:    fmt.Sprintf("sc_%s", uuid.New().String()),
		Credits:   credits,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[user.ID] = user
	s.apiKeys[user.APIKey] = user.ID

	log.Printf("Created user: %s (ID: %s)", user.Name, user.ID)
	clone := *user
	return &clone, nil
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.apiKeys[apiKey]
	if !ok {
		return nil, fmt.Errorf("invalid API key: %w", models.ErrUserNotFound)
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *Store) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	if user.Credits < amount {
		return models.ErrInsufficientBalance
	}
	user.Credits -= amount
	user.UpdatedAt = s.tick()
	return nil
}

func (s *Store) RefundCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.Credits += amount
	user.UpdatedAt = s.tick()
	return nil
}

// Projects

func (s *Store) CreateProject(ctx context.Context, userID uuid.UUID, name, initialPrompt string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, models.ErrUserNotFound
	}

	now := s.tick()
	project := &models.Project{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		InitialPrompt: initialPrompt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.projects[project.ID] = project

	log.Printf("Created project: %s (ID: %s)", project.Name, project.ID)
	return cloneProject(project), nil
}

func (s *Store) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	return cloneProject(project), nil
}

func (s *Store) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := []models.Project{}
	for _, p := range s.projects {
		if p.UserID == userID {
			projects = append(projects, *cloneProject(p))
		}
	}
	sortByUpdatedDesc(projects)
	return projects, nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return models.ErrProjectNotFound
	}
	delete(s.projects, projectID)
	delete(s.versions, projectID)
	delete(s.turns, projectID)

	log.Printf("Deleted project: %s", projectID)
	return nil
}

func (s *Store) SaveProjectCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	project.CurrentCode = code
	project.CurrentVersionID = nil
	project.UpdatedAt = s.tick()
	return cloneProject(project), nil
}

func (s *Store) TogglePublish(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	project.IsPublished = !project.IsPublished
	project.UpdatedAt = s.tick()

	log.Printf("TogglePublish: project=%s published=%t", project.ID, project.IsPublished)
	return cloneProject(project), nil
}

// Versions

func (s *Store) AppendVersion(ctx context.Context, projectID uuid.UUID, code, description string) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendVersion(projectID, code, description)
}

func (s *Store) SetCurrentVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setCurrentVersion(projectID, versionID)
}

// CommitVersion appends and repoints under one lock, so readers never see
// the new version without the pointer.
func (s *Store) CommitVersion(ctx context.Context, projectID uuid.UUID, code, description string) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.appendVersion(projectID, code, description)
	if err != nil {
		return nil, err
	}
	if _, err := s.setCurrentVersion(projectID, version.ID); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *Store) GetVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.versions[projectID] {
		if v.ID == versionID {
			version := v
			return &version, nil
		}
	}
	return nil, models.ErrVersionNotFound
}

// VersionsByTime yields a snapshot of the project's versions, oldest
// first. Each range takes a fresh snapshot.
func (s *Store) VersionsByTime(ctx context.Context, projectID uuid.UUID) iter.Seq2[models.Version, error] {
	return func(yield func(models.Version, error) bool) {
		s.mu.RLock()
		snapshot := slices.Clone(s.versions[projectID])
		s.mu.RUnlock()

		for _, v := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(models.Version{}, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (s *Store) ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.Version, error) {
	versions := []models.Version{}
	for v, err := range s.VersionsByTime(ctx, projectID) {
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (s *Store) appendVersion(projectID uuid.UUID, code, description string) (*models.Version, error) {
	if _, ok := s.projects[projectID]; !ok {
		return nil, models.ErrProjectNotFound
	}

	version := models.Version{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Code:        code,
		Description: description,
		Timestamp:   s.tick(),
	}
	s.versions[projectID] = append(s.versions[projectID], version)
	return &version, nil
}

func (s *Store) setCurrentVersion(projectID, versionID uuid.UUID) (*models.Project, error) {
	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.ErrVersionNotFound
	}

	for _, v := range s.versions[projectID] {
		if v.ID == versionID {
			id := v.ID
			project.CurrentCode = v.Code
			project.CurrentVersionID = &id
			project.UpdatedAt = s.tick()
			return cloneProject(project), nil
		}
	}
	return nil, models.ErrVersionNotFound
}

// Conversation

func (s *Store) AppendTurn(ctx context.Context, projectID uuid.UUID, role models.Role, content string) (uuid.UUID, error) {
	if !role.Valid() {
		return uuid.Nil, fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return uuid.Nil, models.ErrProjectNotFound
	}
	return s.appendTurn(projectID, role, content), nil
}

func (s *Store) AppendTurns(ctx context.Context, projectID uuid.UUID, role models.Role, contents ...string) error {
	if len(contents) == 0 {
		return nil
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return &database.BatchInsertError{FailedIndex: 0, Total: len(contents), Err: models.ErrProjectNotFound}
	}
	for _, content := range contents {
		s.appendTurn(projectID, role, content)
	}
	return nil
}

func (s *Store) ListTurns(ctx context.Context, projectID uuid.UUID) ([]models.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := slices.Clone(s.turns[projectID])
	if turns == nil {
		turns = []models.ConversationTurn{}
	}
	return turns, nil
}

func (s *Store) appendTurn(projectID uuid.UUID, role models.Role, content string) uuid.UUID {
	turn := models.ConversationTurn{
		ID:        uuid.New(),
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		Timestamp: s.tick(),
	}
	s.turns[projectID] = append(s.turns[projectID], turn)
	return turn.ID
}

// Published listing

// ListPublishedProjects mirrors the Postgres listing: every search term
// must appear in the name or initial prompt, newest activity first.
func (s *Store) ListPublishedProjects(ctx context.Context, params models.PublishedQuery) ([]models.Project, int64, error) {
	var terms []string
	if strings.TrimSpace(params.Search) != "" {
		var err error
		terms, err = database.NewSearchQueryParser().Terms(params.Search)
		if err != nil {
			return nil, 0, err
		}
	}

	window, err := database.ParseTimeRange(params.StartTime, params.EndTime)
	if err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	matched := []models.Project{}
	for _, p := range s.projects {
		if !p.IsPublished {
			continue
		}
		if !window.Contains(p.CreatedAt) {
			continue
		}
		if !containsAll(strings.ToLower(p.Name+" "+p.InitialPrompt), terms) {
			continue
		}
		matched = append(matched, *cloneProject(p))
	}
	s.mu.RUnlock()

	sortByUpdatedDesc(matched)

	limit, offset := database.NormalizePage(params.Limit, params.Offset)
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Project{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *Store) GetPublishedSite(ctx context.Context, projectID uuid.UUID) (*models.PublishedSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok || !project.IsPublished || project.CurrentCode == "" {
		return nil, models.ErrProjectNotFound
	}
	return &models.PublishedSite{ProjectID: project.ID, Code: project.CurrentCode}, nil
}

func containsAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

func sortByUpdatedDesc(projects []models.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
}

func cloneProject(p *models.Project) *models.Project {
	clone := *p
	if p.CurrentVersionID != nil {
		id := *p.CurrentVersionID
		clone.CurrentVersionID = &id
	}
	return &clone
}
