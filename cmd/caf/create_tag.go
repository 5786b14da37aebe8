package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/objects"
	"github.com/cafvcs/caf/internal/repo"
)

func runCreateTag(r *repo.Repository, args []string) int {
	if !requireRepo(r) {
		return -1
	}
	var name, target string
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		target = args[1]
	}

	var targetHash objects.Hash
	if target != "" {
		var err error
		targetHash, err = r.ResolveCommit(target)
		if err != nil {
			return reportRepositoryError(err)
		}
	}

	if err := r.CreateTag(name, targetHash); err != nil {
		return reportRepositoryError(err)
	}
	fmt.Printf("Tag %q created\n", name)
	return 0
}
