package main

import (
	"fmt"

	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

func runTags(r *repo.Repository, cw *termcolor.Writer) int {
	if !requireRepo(r) {
		return -1
	}
	names, err := r.ListTags()
	if err != nil {
		return reportRepositoryError(err)
	}
	if len(names) == 0 {
		fmt.Println("No tags found.")
		return 0
	}

	fmt.Println("Tags:")
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	renderTagList(names, cw)
	return 0
}
