package threads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyrot/studyrot/internal/metrics"
	"github.com/studyrot/studyrot/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// ErrNoContent indicates the knowledge base has no completed extractions
// to generate a thread from.
var ErrNoContent = errors.New("no extracted text available")

// maxContextChars bounds how much course material is stuffed into one
// prompt. Roughly 8k tokens worth of text.
const maxContextChars = 32000

// Post is one entry of a simulated social-media thread.
type Post struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Handle  string `json:"handle"`
	Content string `json:"content"`
	Likes   int    `json:"likes"`
	Replies []Post `json:"replies,omitempty"`
}

// TextStore supplies the completed extracted texts of a knowledge base.
// Implemented by db.Client.
type TextStore interface {
	QueryListCompletedFiles(ctx context.Context, kbID string) ([]models.ExtractedFile, error)
}

// TextGenerator is the opaque remote text-generation service. Implemented
// by Model; tests substitute a fake.
type TextGenerator interface {
	Name() string
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator produces study threads from a knowledge base's extracted text.
type Generator struct {
	store     TextStore
	model     TextGenerator
	collector *metrics.Collector
}

// NewGenerator creates a thread generator. collector may be nil.
func NewGenerator(store TextStore, model TextGenerator, collector *metrics.Collector) *Generator {
	return &Generator{store: store, model: model, collector: collector}
}

const systemPrompt = `You generate a twitter-thread-like conversation that teaches the provided course material.
Return ONLY valid JSON and nothing else, following exactly this structure:
{"result":[{"id":"r1","author":"ReactTips","handle":"@ReactTips","content":"...","likes":25,"replies":[{"id":"r1-r1","author":"FrontendDev","handle":"@FrontendDev","content":"...","likes":8}]}]}`

// Generate pulls the completed extracted texts of a knowledge base and
// asks the LLM for a simulated study thread. Returns ErrNoContent when no
// file in the base has completed extraction.
func (g *Generator) Generate(ctx context.Context, kbID string) ([]Post, error) {
	files, err := g.store.QueryListCompletedFiles(ctx, kbID)
	if err != nil {
		return nil, fmt.Errorf("load extracted texts: %w", err)
	}

	material := buildMaterial(files)
	if material == "" {
		return nil, ErrNoContent
	}

	userPrompt := "Course material:\n\n" + material

	start := time.Now()
	raw, err := g.model.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate thread: %w", err)
	}
	g.recordUsage(systemPrompt+userPrompt, raw, time.Since(start))

	posts, err := parsePosts(raw)
	if err != nil {
		return nil, fmt.Errorf("parse thread response: %w", err)
	}
	return posts, nil
}

// buildMaterial concatenates the extracted texts, newest last, truncated
// to the prompt budget. Files whose extraction produced empty text (e.g.
// unsupported formats) are skipped.
func buildMaterial(files []models.ExtractedFile) string {
	var b strings.Builder
	for _, f := range files {
		if f.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(f.Name)
		b.WriteString("\n\n")
		b.WriteString(f.Text)
		if b.Len() >= maxContextChars {
			break
		}
	}

	material := b.String()
	if len(material) > maxContextChars {
		material = material[:maxContextChars]
	}
	return material
}

// parsePosts decodes the LLM response. Models frequently wrap JSON in
// markdown code fences despite instructions, so those are stripped first.
// Accepts either {"result": [...]} or a bare array.
func parsePosts(raw string) ([]Post, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var wrapper struct {
		Result []Post `json:"result"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil && wrapper.Result != nil {
		return wrapper.Result, nil
	}

	var posts []Post
	if err := json.Unmarshal([]byte(cleaned), &posts); err != nil {
		return nil, fmt.Errorf("invalid thread JSON: %w", err)
	}
	return posts, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (g *Generator) recordUsage(prompt, response string, duration time.Duration) {
	if g.collector == nil {
		return
	}
	inTokens := int64(llms.CountTokens(g.model.Name(), prompt))
	outTokens := int64(llms.CountTokens(g.model.Name(), response))
	g.collector.RecordLLMUsage(metrics.OpThreadGenerate, duration, inTokens, outTokens)
}
