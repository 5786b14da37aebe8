package main

import (
	"fmt"
	"time"

	"github.com/cafvcs/caf/internal/objects"
	"github.com/cafvcs/caf/internal/repo"
	"github.com/cafvcs/caf/internal/termcolor"
)

func runLog(r *repo.Repository, _ []string, cw *termcolor.Writer) int {
	if !requireRepo(r) {
		return -1
	}

	head, err := r.Refs().Resolve("HEAD")
	if err != nil {
		return reportRepositoryError(err)
	}
	if head == "" {
		fmt.Println("No commits in the repository")
		return 0
	}

	var commits []objects.Commit
	var hashes []objects.Hash
	for hash := head; hash != ""; {
		c, err := r.Objects().LoadCommit(hash)
		if err != nil {
			return reportRepositoryError(err)
		}
		commits = append(commits, c)
		hashes = append(hashes, hash)
		hash = c.Parent
	}

	for i, c := range commits {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s %s\n", cw.Yellow("commit"), hashes[i])
		fmt.Printf("Author: %s\n", c.Author)
		fmt.Printf("Date:   %s\n", time.Unix(c.Timestamp, 0).UTC().Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Println()
		fmt.Printf("    %s\n", c.Message)
	}
	return 0
}
