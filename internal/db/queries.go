package db

import (
	"context"
	"fmt"

	"github.com/studyrot/studyrot/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// QueryCreateKnowledgeBase creates a new knowledge base.
func (c *Client) QueryCreateKnowledgeBase(ctx context.Context, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error) {
	results, err := surrealdb.Query[[]models.KnowledgeBase](ctx, c.db, `
		CREATE knowledge_base SET
			title = $title,
			description = $description
	`, map[string]any{
		"title":       input.Title,
		"description": input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create knowledge base: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create knowledge base: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// QueryGetKnowledgeBase returns a knowledge base by ID, or nil if it does not exist.
func (c *Client) QueryGetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error) {
	results, err := surrealdb.Query[[]models.KnowledgeBase](ctx, c.db, `
		SELECT * FROM type::record("knowledge_base", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get knowledge base: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// QueryListKnowledgeBases returns all knowledge bases, most recent first.
func (c *Client) QueryListKnowledgeBases(ctx context.Context) ([]models.KnowledgeBase, error) {
	results, err := surrealdb.Query[[]models.KnowledgeBase](ctx, c.db, `
		SELECT * FROM knowledge_base ORDER BY created DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list knowledge bases: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.KnowledgeBase{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryUpdateKnowledgeBase updates title and description of a knowledge base.
// Returns ErrNotFound if the knowledge base does not exist.
func (c *Client) QueryUpdateKnowledgeBase(ctx context.Context, id string, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error) {
	results, err := surrealdb.Query[[]models.KnowledgeBase](ctx, c.db, `
		UPDATE type::record("knowledge_base", $id) SET
			title = $title,
			description = $description
	`, map[string]any{
		"id":          id,
		"title":       input.Title,
		"description": input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("update knowledge base: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// QueryDeleteKnowledgeBase deletes a knowledge base and all of its files.
// Returns ErrNotFound if the knowledge base does not exist.
func (c *Client) QueryDeleteKnowledgeBase(ctx context.Context, id string) error {
	kb, err := c.QueryGetKnowledgeBase(ctx, id)
	if err != nil {
		return err
	}
	if kb == nil {
		return ErrNotFound
	}

	// Cascade: files reference the base, remove them first
	_, err = surrealdb.Query[any](ctx, c.db, `
		DELETE knowledge_file WHERE knowledge_base = type::record("knowledge_base", $id);
		DELETE type::record("knowledge_base", $id);
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete knowledge base: %w", wrapQueryError(err))
	}
	return nil
}

// QueryCreateFile creates an ingestion record in "pending" state for an
// uploaded file. The record exists before extraction is triggered so status
// polling never races with ingestion.
func (c *Client) QueryCreateFile(ctx context.Context, kbID, name string) (*models.KnowledgeFile, error) {
	results, err := surrealdb.Query[[]models.KnowledgeFile](ctx, c.db, `
		CREATE knowledge_file SET
			name = $name,
			knowledge_base = type::record("knowledge_base", $kb),
			status = "pending"
	`, map[string]any{
		"name": name,
		"kb":   kbID,
	})
	if err != nil {
		return nil, fmt.Errorf("create file: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create file: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// QueryGetFile returns a file record by ID, or nil if it does not exist.
// The extracted text is included; callers that only poll status should
// ignore it or use the status projection in the HTTP layer.
func (c *Client) QueryGetFile(ctx context.Context, id string) (*models.KnowledgeFile, error) {
	results, err := surrealdb.Query[[]models.KnowledgeFile](ctx, c.db, `
		SELECT * FROM type::record("knowledge_file", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// QueryListFiles returns all file records of a knowledge base, oldest first.
func (c *Client) QueryListFiles(ctx context.Context, kbID string) ([]models.KnowledgeFile, error) {
	results, err := surrealdb.Query[[]models.KnowledgeFile](ctx, c.db, `
		SELECT * FROM knowledge_file
		WHERE knowledge_base = type::record("knowledge_base", $kb)
		ORDER BY created ASC
	`, map[string]any{"kb": kbID})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.KnowledgeFile{}, nil
	}
	return (*results)[0].Result, nil
}

// SetFileProcessing transitions a file record to "processing".
func (c *Client) SetFileProcessing(ctx context.Context, id string) error {
	return c.updateStatus(ctx, id, `
		UPDATE type::record("knowledge_file", $id) SET
			status = "processing",
			updated = time::now()
	`, map[string]any{"id": id})
}

// SetFileCompleted transitions a file record to "completed" and stores the
// extracted text. This is the only write that sets extracted_text.
func (c *Client) SetFileCompleted(ctx context.Context, id, text string) error {
	return c.updateStatus(ctx, id, `
		UPDATE type::record("knowledge_file", $id) SET
			status = "completed",
			extracted_text = $text,
			updated = time::now()
	`, map[string]any{"id": id, "text": text})
}

// SetFileFailed transitions a file record to "failed". The extracted text
// stays unset.
func (c *Client) SetFileFailed(ctx context.Context, id string) error {
	return c.updateStatus(ctx, id, `
		UPDATE type::record("knowledge_file", $id) SET
			status = "failed",
			updated = time::now()
	`, map[string]any{"id": id})
}

func (c *Client) updateStatus(ctx context.Context, id, sql string, vars map[string]any) error {
	results, err := surrealdb.Query[[]models.KnowledgeFile](ctx, c.db, sql, vars)
	if err != nil {
		return fmt.Errorf("update file status: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update file status %q: %w", id, ErrNotFound)
	}
	return nil
}

// QueryListCompletedFiles returns the extracted text of all completed files
// in a knowledge base, oldest first. Pending, processing and failed records
// are excluded.
func (c *Client) QueryListCompletedFiles(ctx context.Context, kbID string) ([]models.ExtractedFile, error) {
	results, err := surrealdb.Query[[]models.ExtractedFile](ctx, c.db, `
		SELECT id, name, extracted_text AS text FROM knowledge_file
		WHERE knowledge_base = type::record("knowledge_base", $kb)
			AND status = "completed"
		ORDER BY created ASC
	`, map[string]any{"kb": kbID})
	if err != nil {
		return nil, fmt.Errorf("list completed files: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.ExtractedFile{}, nil
	}
	return (*results)[0].Result, nil
}
