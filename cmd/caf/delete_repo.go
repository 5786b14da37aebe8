package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
)

func runDeleteRepo(r *repo.Repository) int {
	if !requireRepo(r) {
		return -1
	}
	if err := r.Delete(); err != nil {
		return reportRepositoryError(err)
	}
	fmt.Printf("Deleted repository at %s\n", r.RepoDir())
	return 0
}
