package threads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyrot/studyrot/internal/metrics"
	"github.com/studyrot/studyrot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	files []models.ExtractedFile
	err   error
}

func (f *fakeStore) QueryListCompletedFiles(ctx context.Context, kbID string) ([]models.ExtractedFile, error) {
	return f.files, f.err
}

type fakeModel struct {
	response string
	err      error
	prompt   string
}

func (f *fakeModel) Name() string { return "gpt-4o-mini" }

func (f *fakeModel) GenerateWithSystem(ctx context.Context, system, user string) (string, error) {
	f.prompt = user
	return f.response, f.err
}

const sampleResponse = `{"result":[{"id":"r1","author":"OSNerd","handle":"@OSNerd","content":"Schedulers decide who runs next.","likes":12,"replies":[{"id":"r1-r1","author":"KernelKid","handle":"@KernelKid","content":"What about priority inversion?","likes":3}]}]}`

func TestGenerate(t *testing.T) {
	store := &fakeStore{files: []models.ExtractedFile{
		{Name: "week1.pdf", Text: "scheduling basics"},
		{Name: "week2.pptx", Text: "context switching"},
	}}
	model := &fakeModel{response: sampleResponse}

	g := NewGenerator(store, model, nil)
	posts, err := g.Generate(context.Background(), "kb1")
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "OSNerd", posts[0].Author)
	assert.Equal(t, 12, posts[0].Likes)
	require.Len(t, posts[0].Replies, 1)
	assert.Equal(t, "@KernelKid", posts[0].Replies[0].Handle)

	// The prompt carries every file's text, labelled by name
	assert.Contains(t, model.prompt, "week1.pdf")
	assert.Contains(t, model.prompt, "context switching")
}

func TestGenerateNoContent(t *testing.T) {
	tests := []struct {
		name  string
		files []models.ExtractedFile
	}{
		{name: "no files", files: nil},
		{name: "only empty texts", files: []models.ExtractedFile{{Name: "notes.xyz", Text: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&fakeStore{files: tt.files}, &fakeModel{}, nil)
			_, err := g.Generate(context.Background(), "kb1")
			assert.ErrorIs(t, err, ErrNoContent)
		})
	}
}

func TestGenerateStoreError(t *testing.T) {
	g := NewGenerator(&fakeStore{err: errors.New("db down")}, &fakeModel{}, nil)
	_, err := g.Generate(context.Background(), "kb1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoContent)
}

func TestGenerateModelError(t *testing.T) {
	store := &fakeStore{files: []models.ExtractedFile{{Name: "a.pdf", Text: "x"}}}
	g := NewGenerator(store, &fakeModel{err: errors.New("rate limited")}, nil)
	_, err := g.Generate(context.Background(), "kb1")
	require.Error(t, err)
}

func TestGenerateRecordsMetrics(t *testing.T) {
	store := &fakeStore{files: []models.ExtractedFile{{Name: "a.pdf", Text: "some material"}}}
	collector := metrics.NewCollector()

	g := NewGenerator(store, &fakeModel{response: sampleResponse}, collector)
	_, err := g.Generate(context.Background(), "kb1")
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.ThreadGenerate)
	assert.Equal(t, int64(1), snap.ThreadGenerate.Count)
	require.NotNil(t, snap.ThreadGenerate.TotalInputTokens)
	assert.Positive(t, *snap.ThreadGenerate.TotalInputTokens)
}

func TestParsePosts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{name: "wrapper object", raw: sampleResponse, wantLen: 1},
		{name: "bare array", raw: `[{"id":"r1","author":"A","handle":"@A","content":"c","likes":1}]`, wantLen: 1},
		{name: "json code fence", raw: "```json\n" + sampleResponse + "\n```", wantLen: 1},
		{name: "plain code fence", raw: "```\n" + sampleResponse + "\n```", wantLen: 1},
		{name: "surrounding whitespace", raw: "\n\n  " + sampleResponse + "  \n", wantLen: 1},
		{name: "empty result", raw: `{"result":[]}`, wantLen: 0},
		{name: "not json", raw: "Sure! Here's your thread: nope", wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := parsePosts(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, posts, tt.wantLen)
		})
	}
}

func TestBuildMaterialTruncates(t *testing.T) {
	files := []models.ExtractedFile{
		{Name: "huge.pdf", Text: strings.Repeat("a", maxContextChars)},
		{Name: "more.pdf", Text: strings.Repeat("b", 1000)},
	}

	material := buildMaterial(files)
	assert.LessOrEqual(t, len(material), maxContextChars)
	assert.NotContains(t, material, "bbb", "second file does not fit the budget")
}
