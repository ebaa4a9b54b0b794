package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrBookNotFound = errors.New("book not found")
	ErrNoteNotFound = errors.New("note not found")
	ErrNotFound     = errors.New("no rows found")
	ErrNoChange     = errors.New("no rows affected")
)
