// Package version identifies the Artemis checkout the suite is testing
package version

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	gogit "github.com/go-git/go-git/v5"
)

// DefaultRepoURL is the public home of the Artemis sources
const DefaultRepoURL = "https://github.com/cs-au-dk/Artemis"

// shortHashLen is the number of hash characters shown in the link text
const shortHashLen = 8

// CurrentCommit returns the hash of HEAD in the repository containing dir
func CurrentCommit(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repo: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Hyperlink renders a spreadsheet formula linking to commit on repoURL
func Hyperlink(repoURL, commit string) string {
	if commit == "" {
		return ""
	}
	if repoURL == "" {
		repoURL = DefaultRepoURL
	}
	short := commit
	if len(short) > shortHashLen {
		short = short[:shortHashLen]
	}
	link := fmt.Sprintf("%s/commit/%s", strings.TrimSuffix(repoURL, "/"), commit)
	return fmt.Sprintf("=HYPERLINK(%s, %s)", formulaString(link), formulaString(short))
}

// formulaString quotes s as a spreadsheet string literal, where an embedded
// quote is written twice
func formulaString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Lookup returns the hyperlink of the checked out commit, or "" when it
// cannot be determined.
func Lookup(dir, repoURL string, logger log.Logger) string {
	if logger == nil {
		logger = log.Root()
	}
	commit, err := CurrentCommit(dir)
	if err != nil {
		logger.Warn("Could not determine the Artemis version", "dir", dir, "err", err)
		return ""
	}
	logger.Debug("Artemis version", "commit", commit)
	return Hyperlink(repoURL, commit)
}
