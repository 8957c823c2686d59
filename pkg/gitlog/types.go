// Package gitlog extracts structured commit history from a git
// repository by shelling out to the git CLI.
package gitlog

// File change status values.
const (
	StatusAdded    = "added"
	StatusModified = "modified"
	StatusDeleted  = "deleted"
	StatusRenamed  = "renamed"
	StatusBinary   = "binary"
)

// FileChange is one changed file within a commit. Binary files carry
// zero insertions/deletions and StatusBinary.
type FileChange struct {
	Path       string `json:"path"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
	Status     string `json:"status"`
}

// Commit is a single commit record. SHA is treated as an opaque unique
// key; Date is the ISO-8601 UTC rendering of Timestamp.
type Commit struct {
	SHA       string       `json:"sha"`
	Author    string       `json:"author"`
	Email     string       `json:"email"`
	Timestamp int64        `json:"timestamp"`
	Date      string       `json:"date"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body"`
	Files     []FileChange `json:"files_changed"`
}

// LinesChanged returns insertions plus deletions across all files.
func (c Commit) LinesChanged() (insertions, deletions int) {
	for _, f := range c.Files {
		insertions += f.Insertions
		deletions += f.Deletions
	}
	return insertions, deletions
}

// Stats holds aggregate statistics over a window.
type Stats struct {
	TotalCommits      int      `json:"total_commits"`
	TotalFilesChanged int      `json:"total_files_changed"`
	TotalInsertions   int      `json:"total_insertions"`
	TotalDeletions    int      `json:"total_deletions"`
	Authors           []string `json:"authors"`
	FirstCommitDate   string   `json:"first_commit_date,omitempty"`
	LastCommitDate    string   `json:"last_commit_date,omitempty"`
}

// Window is the history between two resolved refs. Commits are ordered
// newest-first (git log native order); the ordering is part of the
// contract and stable across invocations on unchanged history. A Window
// is constructed once per query and never mutated afterwards.
type Window struct {
	FromRef  string   `json:"from_ref"`
	ToRef    string   `json:"to_ref"`
	FromSHA  string   `json:"from_sha"`
	ToSHA    string   `json:"to_sha"`
	Commits  []Commit `json:"commits"`
	Stats    Stats    `json:"stats"`
	Warnings []string `json:"warnings,omitempty"`
}
