// Package gitenrich populates snapshot buckets with the git commits whose
// author-time falls in that bucket's hour, by shelling out to the git
// binary — the same subprocess idiom the teacher uses for file listing,
// extended here to log/show queries.
package gitenrich

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"recap/internal/snapshot"
)

// FindRepoRoot walks upward from path looking for a .git directory. Returns
// "" if none is found (not an error — enrichment simply yields no commits).
func FindRepoRoot(path string) string {
	dir := path
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info != nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Enrich populates bucket.GitCommits for every bucket in buckets whose
// author-time falls in that bucket's local hour and whose author email
// matches authorEmail (when non-empty). Any git failure at any sub-step
// yields "no commits for this bucket" rather than a propagated error.
func Enrich(ctx context.Context, buckets []*snapshot.Bucket, projectPath, authorEmail string, loc *time.Location) {
	root := FindRepoRoot(projectPath)
	if root == "" {
		return
	}
	for _, b := range buckets {
		start, err := time.ParseInLocation("2006-01-02T15:04:05", b.HourBucket, loc)
		if err != nil {
			continue
		}
		end := start.Add(time.Hour)
		commits := logCommits(ctx, root, start, end, authorEmail)
		for i := range commits {
			additions, deletions := showNumstat(ctx, root, commits[i].Hash)
			commits[i].Additions = additions
			commits[i].Deletions = deletions
		}
		b.GitCommits = commits
	}
}

// CommitHashesInRange returns the hashes of every commit authored in
// [start, end) under projectPath's repository, filtered by authorEmail
// when non-empty. Used by the work item synthesizer for cross-source
// dedup inputs, independent of the hourly bucketing pipeline.
func CommitHashesInRange(ctx context.Context, projectPath string, start, end time.Time, authorEmail string) []string {
	root := FindRepoRoot(projectPath)
	if root == "" {
		return nil
	}
	commits := logCommits(ctx, root, start, end, authorEmail)
	hashes := make([]string, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	return hashes
}

// logCommits runs `git log --since <start> --until <end> --format=...`
// across all branches and returns parsed commits, filtered by author email.
func logCommits(ctx context.Context, root string, start, end time.Time, authorEmail string) []snapshot.CommitRecord {
	args := []string{
		"-C", root, "log", "--all",
		"--since=" + start.Format(time.RFC3339),
		"--until=" + end.Format(time.RFC3339),
		"--format=%H|%an|%ae|%aI|%s",
	}
	out, err := runGit(ctx, args...)
	if err != nil {
		return nil
	}

	var commits []snapshot.CommitRecord
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 5)
		if len(parts) != 5 {
			continue
		}
		if authorEmail != "" && parts[2] != authorEmail {
			continue
		}
		ts, err := time.Parse(time.RFC3339, parts[3])
		if err != nil {
			continue
		}
		commits = append(commits, snapshot.CommitRecord{
			Hash:      parts[0],
			Message:   parts[4],
			Timestamp: ts,
		})
	}
	return commits
}

// showNumstat runs `git show --numstat --format=` for hash and sums
// additions/deletions across tracked (non-binary) lines.
func showNumstat(ctx context.Context, root, hash string) (additions, deletions int) {
	out, err := runGit(ctx, "-C", root, "show", "--numstat", "--format=", hash)
	if err != nil {
		return 0, 0
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "-" || fields[1] == "-" {
			continue // binary file, no line stats
		}
		a, errA := strconv.Atoi(fields[0])
		d, errD := strconv.Atoi(fields[1])
		if errA != nil || errD != nil {
			continue
		}
		additions += a
		deletions += d
	}
	return additions, deletions
}

func runGit(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}
