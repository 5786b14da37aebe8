package main

import (
	"fmt"
	"os"

	"github.com/cafvcs/caf/internal/repo"
)

// requireRepo prints the stable "No repository found" error and returns
// false when r's repo directory is absent. Every command except init calls
// this before touching the repository.
func requireRepo(r *repo.Repository) bool {
	if r.Exists() {
		return true
	}
	fmt.Fprintf(os.Stderr, "No repository found at %s\n", r.RepoDir())
	return false
}

// reportRepositoryError prints a repo-layer error wrapped with the stable
// "Repository error" prefix and returns the CLI's error exit code.
func reportRepositoryError(err error) int {
	fmt.Fprintf(os.Stderr, "Repository error: %v\n", err)
	return -1
}
