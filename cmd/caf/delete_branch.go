package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
)

func runDeleteBranch(r *repo.Repository, args []string) int {
	if !requireRepo(r) {
		return -1
	}
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	if err := r.DeleteBranch(name); err != nil {
		return reportRepositoryError(err)
	}
	fmt.Printf("Branch %q deleted\n", name)
	return 0
}
