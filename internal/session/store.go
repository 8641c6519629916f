// Package session persists run snapshots as JSON files, one directory per
// project.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSessions is returned by Latest when a project has no runs yet.
var ErrNoSessions = errors.New("no sessions recorded for project")

// Store handles persistence of sessions.
type Store struct {
	basePath string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{basePath: dir}
}

// ProjectHash generates a consistent short hash for a project root.
func (s *Store) ProjectHash(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	hash := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(hash[:])[:12]
}

// Save persists a session to disk, replacing any earlier snapshot with the
// same ID.
func (s *Store) Save(session *Session) error {
	if session.ID == "" {
		return fmt.Errorf("session has no id")
	}
	if session.ProjectHash == "" {
		session.ProjectHash = s.ProjectHash(session.ProjectRoot)
	}

	dir := filepath.Join(s.basePath, session.ProjectHash)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	filename := filepath.Join(dir, session.ID+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load retrieves a specific session.
func (s *Store) Load(id, projectRoot string) (*Session, error) {
	filename := filepath.Join(s.basePath, s.ProjectHash(projectRoot), id+".json")
	return readSession(filename)
}

// List returns all sessions of a project, newest first.
func (s *Store) List(projectRoot string) ([]SessionMeta, error) {
	dir := filepath.Join(s.basePath, s.ProjectHash(projectRoot))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []SessionMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list session directory: %w", err)
	}

	sessions := make([]SessionMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := readSession(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable or invalid files
		}
		sessions = append(sessions, SessionMeta{
			ID:        sess.ID,
			Title:     sess.Title,
			Outcome:   sess.Outcome,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Latest loads the most recent session of a project.
func (s *Store) Latest(projectRoot string) (*Session, error) {
	metas, err := s.List(projectRoot)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrNoSessions
	}
	return s.Load(metas[0].ID, projectRoot)
}

func readSession(filename string) (*Session, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
