package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/voicecare/config"
	"github/itish2003/voicecare/services"
)

type lengthEmbedder struct{}

func (lengthEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (lengthEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "warranty") {
		return "Two years.", nil
	}
	return "I am not sure.", nil
}

func testConfig(t *testing.T, docsDir string) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("DOCS_DIR", docsDir)
	t.Setenv("INDEX_PATH", filepath.Join(t.TempDir(), "knowledge-index"))
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, docsDir string) *App {
	t.Helper()
	app, err := newApp(context.Background(), testConfig(t, docsDir), &services.Providers{
		Embedder:  lengthEmbedder{},
		Generator: echoGenerator{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	return app
}

func TestApp_StartIngestionRaisesReadiness(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "warranty.txt"), []byte("Every device has a two year warranty."), 0o644))
	app := newTestApp(t, docs)

	assert.Equal(t, services.InitializingMessage, app.Assistant.Reply(context.Background(), "track order").Response)

	app.StartIngestion(context.Background())
	select {
	case <-app.Readiness.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("ingestion did not complete")
	}

	decision := app.Assistant.Reply(context.Background(), "how long is the warranty?")
	assert.Equal(t, "Two years. (from warranty.txt)", decision.Response)
}

func TestApp_FailedIngestionStaysNotReady(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	app.StartIngestion(context.Background())
	time.Sleep(200 * time.Millisecond)

	assert.False(t, app.Readiness.IsReady())
	assert.Equal(t, "Please wait, initializing knowledge base...", app.Assistant.Reply(context.Background(), "hello").Response)
}

func TestApp_RouterConfig(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	rc := app.RouterConfig()
	assert.Equal(t, "voicecare", rc.ServiceName)
	assert.Equal(t, "Polly.Joanna-Neural", rc.Voice.Voice)
	assert.Equal(t, 10, rc.Voice.GatherTimeout)
	assert.Equal(t, app.StartedAt, rc.StartedAt)
	assert.False(t, rc.StartedAt.IsZero())
}

func TestNew_MissingProviderKeyStillStarts(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "warranty.txt"), []byte("Every device has a two year warranty."), 0o644))
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	cfg := testConfig(t, docs)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	err = app.Knowledge.Rebuild(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	assert.False(t, app.Readiness.IsReady())
	assert.Equal(t, services.InitializingMessage, app.Assistant.Reply(context.Background(), "how long is the warranty?").Response)
}
