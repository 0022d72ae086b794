package git

import "errors"

// ErrNotRepository is returned when a directory is not inside a git work tree.
var ErrNotRepository = errors.New("source folder is not a git repository")
