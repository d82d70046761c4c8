package watch

import "errors"

var (
	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrPathNotExist indicates the path does not exist.
	ErrPathNotExist = errors.New("path does not exist")

	// ErrNotRegular indicates a path that is not a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrAlreadyWatching indicates the file is already watched.
	ErrAlreadyWatching = errors.New("already watching file")

	// ErrNotWatching indicates the file is not watched.
	ErrNotWatching = errors.New("not watching file")
)
