// Langchat CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/langchat/internal/dagger"
)

// Langchat is the main module for the langchat CI/CD pipeline
type Langchat struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Langchat CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Langchat {
	return &Langchat{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
// go-sqlite3 needs CGO, so tests, builds and linting all start here.
func (l *Langchat) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", l.Source)
}

// Test runs the langchat unit tests via "go test". Postgres history tests
// run when a DSN is given.
func (l *Langchat) Test(
	ctx context.Context,

	// PostgreSQL DSN for the history driver tests
	// +optional
	postgresDSN *dagger.Secret,
) (string, error) {
	ctr := l.goContainer()
	if postgresDSN != nil {
		ctr = ctr.WithSecretVariable("LANGCHAT_TEST_POSTGRES_DSN", postgresDSN)
	}

	return ctr.
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
