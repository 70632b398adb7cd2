// Package models defines data structures for the StudyRot ingestion database.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// FileStatus tracks the extraction state of an uploaded file.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusPending, FileStatusProcessing, FileStatusCompleted, FileStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state. Pollers should stop
// once they observe a terminal status.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed
}

// KnowledgeFile is the persisted per-upload record tracking extraction
// progress. ExtractedText is set exactly once, on the transition to
// completed; it stays nil for failed attempts.
type KnowledgeFile struct {
	ID              surrealmodels.RecordID `json:"id"`
	Name            string                 `json:"name"`
	KnowledgeBaseID surrealmodels.RecordID `json:"knowledge_base"`
	Status          FileStatus             `json:"status"`
	ExtractedText   *string                `json:"extracted_text,omitempty"`
	Created         time.Time              `json:"created"`
	Updated         time.Time              `json:"updated"`
}

// KnowledgeBase groups the uploaded files of one course.
type KnowledgeBase struct {
	ID          surrealmodels.RecordID `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Created     time.Time              `json:"created"`
}

// KnowledgeBaseInput holds the caller-supplied fields for creating or
// updating a knowledge base.
type KnowledgeBaseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractedFile is the projection returned to the thread-generation
// consumer: completed files only, with their text.
type ExtractedFile struct {
	ID   surrealmodels.RecordID `json:"id"`
	Name string                 `json:"name"`
	Text string                 `json:"text"`
}
