package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/langchat/internal/dagger"
)

// Build and return a directory holding the langchat binary for the
// container's platform. CGO is required by the sqlite history driver,
// so binaries are built natively rather than cross-compiled.
func (l *Langchat) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	build := l.goContainer().
		WithExec([]string{"sh", "-c", "mkdir -p /out/$(go env GOOS)/$(go env GOARCH)"}).
		WithExec([]string{"sh", "-c", fmt.Sprintf(
			"go build -ldflags %q -o /out/$(go env GOOS)/$(go env GOARCH)/ ./cli/langchat",
			ldflags,
		)})

	return build.Directory("/out")
}

// BuildRelease compiles versioned release binaries with embedded version info
func (l *Langchat) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/langchat/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/langchat/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/langchat/pkg/utils.Buildtime=%s'", buildtime),
	}

	return l.Build(ctx, strings.Join(ldflags, " "))
}
