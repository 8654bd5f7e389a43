package services

import "errors"

var (
	// Ingestion-time failures. Fatal to readiness, never to the process.
	ErrDirectoryUnreadable = errors.New("documents directory unreadable")
	ErrNoInputFiles        = errors.New("no input files in documents directory")
	ErrNoDocumentsLoaded   = errors.New("no documents could be loaded")

	// Query-time failures, recoverable per request.
	ErrKnowledgeBaseUnavailable = errors.New("knowledge base unavailable")
	ErrGenerationFailed         = errors.New("answer generation failed")

	ErrIndexNotFound = errors.New("index not found")
)
