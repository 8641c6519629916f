package sandbox

import (
	"github.com/ChamsBouzaiene/autodev/internal/workspace"
)

// GetDockerImage returns the build image for a project type. A configured
// image takes precedence. Rust uses the Debian image because common web
// crates link against glibc.
func GetDockerImage(projectType workspace.ProjectType, config Config) string {
	if config.DockerImage != "" {
		return config.DockerImage
	}

	switch projectType {
	case workspace.ProjectTypeRust:
		return "rust:1-slim"
	case workspace.ProjectTypeGo:
		return "golang:alpine"
	case workspace.ProjectTypeNode:
		return "node:alpine"
	case workspace.ProjectTypePython:
		return "python:alpine"
	default:
		return "alpine:latest"
	}
}
