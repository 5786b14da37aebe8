package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
)

func runInit(r *repo.Repository, args []string) int {
	defaultBranch := "main"
	if len(args) > 0 {
		defaultBranch = args[0]
	}

	if err := r.Init(defaultBranch); err != nil {
		return reportRepositoryError(err)
	}

	fmt.Printf("Initialized repository at %s\n", r.RepoDir())
	return 0
}
