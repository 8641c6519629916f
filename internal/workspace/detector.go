// Package workspace recognizes the generated project's toolchain.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectType represents the type of project.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeRust    ProjectType = "rust"
	ProjectTypeUnknown ProjectType = "unknown"
)

// manifests are checked in order; the first one present wins.
var manifests = []struct {
	file string
	typ  ProjectType
}{
	{"Cargo.toml", ProjectTypeRust},
	{"go.mod", ProjectTypeGo},
	{"package.json", ProjectTypeNode},
	{"pyproject.toml", ProjectTypePython},
	{"requirements.txt", ProjectTypePython},
}

var extTypes = map[string]ProjectType{
	".rs":  ProjectTypeRust,
	".go":  ProjectTypeGo,
	".ts":  ProjectTypeNode,
	".tsx": ProjectTypeNode,
	".js":  ProjectTypeNode,
	".jsx": ProjectTypeNode,
	".py":  ProjectTypePython,
}

// DetectProjectType detects the project type using manifest-first detection
// with an extension count over root and src/ as fallback.
func DetectProjectType(repoRoot string) ProjectType {
	for _, m := range manifests {
		if _, err := os.Stat(filepath.Join(repoRoot, m.file)); err == nil {
			return m.typ
		}
	}

	counts := make(map[ProjectType]int)
	for _, dir := range []string{repoRoot, filepath.Join(repoRoot, "src")} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if typ, ok := extTypes[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
				counts[typ]++
			}
		}
	}

	best, bestCount := ProjectTypeUnknown, 0
	for _, m := range manifests {
		if counts[m.typ] > bestCount {
			best, bestCount = m.typ, counts[m.typ]
		}
	}
	// A single stray file is not enough to pick a toolchain.
	if bestCount >= 2 {
		return best
	}
	return ProjectTypeUnknown
}

// GetBuildCommand returns the build command for a project type. An empty
// name means the project has no build step.
func GetBuildCommand(projectType ProjectType) (string, []string) {
	switch projectType {
	case ProjectTypeGo:
		return "go", []string{"build", "./..."}
	case ProjectTypeNode:
		return "npm", []string{"run", "build", "--if-present"}
	case ProjectTypePython:
		return "python3", []string{"-m", "compileall", "-q", "."}
	case ProjectTypeRust:
		return "cargo", []string{"build"}
	default:
		return "", nil
	}
}

// GetRunCommand returns the command that starts the project's server.
func GetRunCommand(projectType ProjectType) (string, []string) {
	switch projectType {
	case ProjectTypeGo:
		return "go", []string{"run", "."}
	case ProjectTypeNode:
		return "npm", []string{"start"}
	case ProjectTypePython:
		return "python3", []string{"main.py"}
	case ProjectTypeRust:
		return "cargo", []string{"run"}
	default:
		return "", nil
	}
}
