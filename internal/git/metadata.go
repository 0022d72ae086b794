package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RepositoryMetadata describes the repository a project directory belongs to.
type RepositoryMetadata struct {
	BranchName     *string
	CommitHash     *string
	RemoteURL      *string
	Subfolder      string // Project directory relative to RepoRootFolder, slash separated
	RepoRootFolder string
}

// CollectRepositoryMetadata collects branch, commit, origin URL and subfolder for the
// repository containing sourceFolder. ErrNotRepository is returned when there is none.
func CollectRepositoryMetadata(sourceFolder string) (*RepositoryMetadata, error) {
	if sourceFolder == "" {
		return nil, fmt.Errorf("source folder is not set")
	}

	absSource, err := filepath.Abs(sourceFolder)
	if err != nil {
		return nil, err
	}

	repoRootFolder, repo, err := findGitRepository(absSource)
	if err != nil {
		return nil, err
	}

	md := &RepositoryMetadata{
		RepoRootFolder: filepath.Clean(repoRootFolder),
	}
	if rel, err := filepath.Rel(md.RepoRootFolder, absSource); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			branchName := head.Name().Short()
			md.BranchName = &branchName
		}
		hash := head.Hash().String()
		md.CommitHash = &hash
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			remoteURL := strings.TrimSuffix(cfg.URLs[0], ".git")
			md.RemoteURL = &remoteURL
		}
	}

	return md, nil
}

// findGitRepository opens the repository containing dir, walking up parent directories.
func findGitRepository(dir string) (string, *git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil, ErrNotRepository
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve worktree: %w", err)
	}
	return wt.Filesystem.Root(), repo, nil
}
