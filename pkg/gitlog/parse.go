package gitlog

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record format for git log. Fields are separated by the ASCII unit
// separator (0x1F) and each record is bracketed by the record separator
// (0x1E). The body is the last field, so a body containing 0x1F still
// parses: field splitting stops after five separators. Bodies
// containing 0x1E are handled by the fragment-folding pass in parseLog.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "%x1e%H%x1f%an%x1f%ae%x1f%at%x1f%s%x1f%b%x1e"
)

// metadataRe identifies the start of a genuine commit record: a full
// 40-hex SHA immediately followed by a field separator.
var metadataRe = regexp.MustCompile(`^[0-9a-f]{40}` + fieldSep)

// numstatRe matches one git --numstat line. Binary files report "-" in
// both numeric columns.
var numstatRe = regexp.MustCompile(`^(\d+|-)\t(\d+|-)\t(.+)$`)

// parseLog turns raw git log output in the logFormat record format into
// commit records.
//
// Splitting on the record separator yields, per commit, one metadata
// token followed by one trailer token (numstat lines and, with -p, the
// patch text). Commit bodies are free text and may themselves contain
// the record separator; such a body splinters into extra tokens that
// sit between the metadata token and the genuine trailer. Since git
// emits exactly one closing separator per record, every token in a
// group except the last is a body fragment and is folded back in. The
// residual blind spot — a body that embeds a full fake metadata
// prefix — would need an adversarially crafted commit and is accepted.
func parseLog(raw string, logger *slog.Logger) []Commit {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	tokens := strings.Split(raw, recordSep)

	var commits []Commit
	i := 0

	// Leading token is whatever preceded the first record; blank in
	// practice.
	if len(tokens) > 0 && !isMetadata(tokens[0]) {
		i = 1
	}

	for i < len(tokens) {
		tok := tokens[i]
		if !isMetadata(tok) {
			logger.Warn("skipping unrecognized git log fragment", "bytes", len(tok))
			i++
			continue
		}

		// Collect every following token up to the next metadata token.
		var group []string
		j := i + 1
		for j < len(tokens) && !isMetadata(tokens[j]) {
			group = append(group, tokens[j])
			j++
		}

		// All but the last group member are body fragments split off by
		// a record separator inside the body.
		bodyExtra := ""
		trailer := ""
		if len(group) > 0 {
			trailer = group[len(group)-1]
			if len(group) > 1 {
				bodyExtra = recordSep + strings.Join(group[:len(group)-1], recordSep)
			}
		}

		commit, ok := parseMetadata(tok, bodyExtra, logger)
		if ok {
			commit.Files = parseNumstat(trailer)
			commits = append(commits, commit)
		}

		i = j
	}

	return commits
}

func isMetadata(tok string) bool {
	return metadataRe.MatchString(tok) && strings.Count(tok, fieldSep) >= 5
}

// parseMetadata decodes one metadata token into a commit. bodyExtra is
// appended to the body field to restore record separators the split
// consumed.
func parseMetadata(tok, bodyExtra string, logger *slog.Logger) (Commit, bool) {
	parts := strings.SplitN(tok, fieldSep, 6)
	if len(parts) < 6 {
		logger.Warn("invalid commit metadata", "fields", len(parts))
		return Commit{}, false
	}

	timestamp, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
	if err != nil {
		logger.Warn("invalid commit timestamp", "value", parts[3])
		timestamp = 0
	}

	return Commit{
		SHA:       strings.TrimSpace(parts[0]),
		Author:    strings.TrimSpace(parts[1]),
		Email:     strings.TrimSpace(parts[2]),
		Timestamp: timestamp,
		Date:      isoDate(timestamp),
		Subject:   strings.TrimSpace(parts[4]),
		Body:      strings.TrimSpace(parts[5] + bodyExtra),
	}, true
}

// parseNumstat extracts per-file change entries from a record trailer.
// Lines that are not numstat lines (blank lines, patch text under -p)
// are ignored. Merge commits produce an empty trailer and therefore no
// file entries.
func parseNumstat(trailer string) []FileChange {
	var files []FileChange

	for _, line := range strings.Split(trailer, "\n") {
		m := numstatRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		binary := m[1] == "-" && m[2] == "-"
		insertions := 0
		deletions := 0
		if !binary {
			insertions, _ = strconv.Atoi(m[1])
			deletions, _ = strconv.Atoi(m[2])
		}

		files = append(files, FileChange{
			Path:       m[3],
			Insertions: insertions,
			Deletions:  deletions,
			Status:     fileStatus(m[3], insertions, deletions, binary),
		})
	}

	return files
}

// fileStatus derives the change status from the numstat shape. Renames
// are recognizable by the arrow git prints in the path column.
func fileStatus(path string, insertions, deletions int, binary bool) string {
	switch {
	case strings.Contains(path, " => "):
		return StatusRenamed
	case binary:
		return StatusBinary
	case insertions > 0 && deletions == 0:
		return StatusAdded
	case insertions == 0 && deletions > 0:
		return StatusDeleted
	default:
		return StatusModified
	}
}

// buildStats computes window aggregates. The totals are exact sums over
// the per-file entries, so they always reconcile with the commits.
func buildStats(commits []Commit) Stats {
	stats := Stats{TotalCommits: len(commits)}

	authors := make(map[string]struct{})
	paths := make(map[string]struct{})
	var first, last int64

	for _, c := range commits {
		authors[c.Author] = struct{}{}
		for _, f := range c.Files {
			paths[f.Path] = struct{}{}
			stats.TotalInsertions += f.Insertions
			stats.TotalDeletions += f.Deletions
		}
		if c.Timestamp > 0 {
			if first == 0 || c.Timestamp < first {
				first = c.Timestamp
			}
			if c.Timestamp > last {
				last = c.Timestamp
			}
		}
	}

	stats.TotalFilesChanged = len(paths)
	stats.Authors = make([]string, 0, len(authors))
	for a := range authors {
		stats.Authors = append(stats.Authors, a)
	}
	sort.Strings(stats.Authors)

	if first > 0 {
		stats.FirstCommitDate = isoDate(first)
		stats.LastCommitDate = isoDate(last)
	}

	return stats
}

func isoDate(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format("2006-01-02T15:04:05Z")
}
