package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autodev/internal/config"
)

func newTestFiles(t *testing.T) (*Files, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default().Project
	cfg.Root = root
	return NewFiles(cfg), root
}

func TestFiles_ResolvesAgainstRoot(t *testing.T) {
	f, root := newTestFiles(t)
	assert.Equal(t, filepath.Join(root, "src", "code_template.rs"), f.Template)
	assert.Equal(t, filepath.Join(root, "src", "main.rs"), f.EntryPoint)
	assert.Equal(t, filepath.Join(root, "schemas", "api_schema.json"), f.Schema)
}

func TestFiles_ReadTemplate(t *testing.T) {
	f, root := newTestFiles(t)

	_, err := f.ReadTemplate()
	assert.Error(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(f.Template, []byte("// template"), 0644))

	tpl, err := f.ReadTemplate()
	require.NoError(t, err)
	assert.Equal(t, "// template", tpl)
}

func TestFiles_EntryPointRoundTrip(t *testing.T) {
	f, _ := newTestFiles(t)

	require.NoError(t, f.WriteEntryPoint("fn main() {}"))
	require.NoError(t, f.WriteEntryPoint("fn main() { println!(\"v2\"); }"))

	got, err := f.ReadEntryPoint()
	require.NoError(t, err)
	assert.Equal(t, "fn main() { println!(\"v2\"); }", got)
}

func TestFiles_SaveSchemaCreatesDir(t *testing.T) {
	f, _ := newTestFiles(t)
	raw := `[{"route":"/"}]`

	require.NoError(t, f.SaveSchema(raw))
	data, err := os.ReadFile(f.Schema)
	require.NoError(t, err)
	assert.Equal(t, raw, string(data))
}
