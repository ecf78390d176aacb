package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/geofind/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
	provider, err := NewProvider(config)
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost, "host is normalized")
	assert.NotNil(t, provider.Embedder())

	corrector := provider.Corrector()
	require.NotNil(t, corrector)
	assert.IsType(t, &Corrector{}, corrector)
	assert.Same(t, corrector, provider.Corrector(), "corrector is built once")
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	config := ai.NewConfig()
	config.EmbeddingModel = ""
	_, err := NewProvider(config)
	assert.Error(t, err)
}

func TestUnavailableCorrector(t *testing.T) {
	boom := errors.New("bad base url")
	fix, err := unavailableCorrector{err: boom}.Correct(context.Background(), "Omsk", nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, fix.IsZero())
}
