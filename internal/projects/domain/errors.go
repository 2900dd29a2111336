package domain

import "errors"

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrNoCurrentProject = errors.New("no current project")
	ErrUnknownLanguage  = errors.New("unknown source language")
)
