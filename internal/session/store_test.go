package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
)

func TestStore_SaveLoadList(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	root := "/path/to/web_template"

	fs := factsheet.New("build a crypto price tracker")
	fs.ProjectScope = &factsheet.ProjectScope{IsExternalURLsRequired: true}
	fs.ExternalURLs = []string{"https://api.binance.com"}

	older := &Session{
		ID:          "run-1",
		ProjectRoot: root,
		Title:       TitleFrom(fs.ProjectDescription),
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
		Outcome:     OutcomeFailed,
		FailedAgent: "Backend Developer",
		Error:       "code still fails to build after 11 attempts",
		FactSheet:   fs,
	}
	newer := &Session{
		ID:          "run-2",
		ProjectRoot: root,
		Title:       "second",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Outcome:     OutcomeSucceeded,
		FactSheet:   factsheet.New("second"),
	}
	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	expected := filepath.Join(base, store.ProjectHash(root), "run-1.json")
	_, err := os.Stat(expected)
	require.NoError(t, err)

	loaded, err := store.Load("run-1", root)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, loaded.Outcome)
	assert.Equal(t, fs.ExternalURLs, loaded.FactSheet.ExternalURLs)
	assert.Nil(t, loaded.FactSheet.BackendCode)

	list, err := store.List(root)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2", list[0].ID)

	latest, err := store.Latest(root)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)
}

func TestStore_EmptyProject(t *testing.T) {
	store := NewStore(t.TempDir())

	list, err := store.List("/nowhere")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Latest("/nowhere")
	assert.ErrorIs(t, err, ErrNoSessions)

	assert.Error(t, store.Save(&Session{}))
}

func TestStore_SkipsInvalidFiles(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	root := "/p"
	require.NoError(t, store.Save(&Session{ID: "ok", ProjectRoot: root, UpdatedAt: time.Now()}))
	require.NoError(t, os.WriteFile(filepath.Join(base, store.ProjectHash(root), "broken.json"), []byte("{"), 0644))

	list, err := store.List(root)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].ID)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "short", TitleFrom("short\nsecond line"))
	long := TitleFrom("build a website that tracks the price of every crypto currency on every exchange")
	assert.Len(t, []rune(long), 60)
	assert.Contains(t, long, "...")
}
