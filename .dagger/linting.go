package main

import (
	"context"
	"fmt"

	"dagger/langchat/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// lintOpts layers golangci-lint on top of goContainer() so the sqlite dev
// headers and Go caches are already in place.
func (l *Langchat) lintOpts() dagger.GolangcilintOpts {
	base := l.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		})

	return dagger.GolangcilintOpts{
		BaseCtr: base,
	}
}

// CheckLint runs golangci-lint against the langchat source without applying fixes.
func (l *Langchat) CheckLint(ctx context.Context) (string, error) {
	return dag.Golangcilint(l.Source, l.lintOpts()).Check(ctx)
}

// FixLint runs golangci-lint with --fix and returns the modified source directory.
func (l *Langchat) FixLint(ctx context.Context) *dagger.Directory {
	return dag.Golangcilint(l.Source, l.lintOpts()).Lint()
}
