package domain

import "errors"

var (
	ErrDeckNotFound      = errors.New("deck not found")
	ErrEmptyDeck         = errors.New("deck has no cards")
	ErrSessionNotFound   = errors.New("spread session not found")
	ErrReadingIncomplete = errors.New("reading is not fully revealed")
	ErrUpstreamLLM       = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON    = errors.New("LLM returned invalid JSON after retry")
)
