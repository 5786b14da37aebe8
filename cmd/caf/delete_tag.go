package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
)

func runDeleteTag(r *repo.Repository, args []string) int {
	if !requireRepo(r) {
		return -1
	}
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	if err := r.DeleteTag(name); err != nil {
		return reportRepositoryError(err)
	}
	fmt.Printf("Tag %q deleted.\n", name)
	return 0
}
