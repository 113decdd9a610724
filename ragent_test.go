package ragent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("create new service", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		service, err := NewService(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, service)
		defer service.Close()

		// Verify components are initialized
		assert.NotNil(t, service.DocumentRepository())
		assert.NotNil(t, service.CheckpointRepository())
		assert.NotNil(t, service.Provider())
		assert.NotNil(t, service.backend)
		assert.NotNil(t, service.logger)
	})

	t.Run("in-memory storage", func(t *testing.T) {
		service, err := NewService("", WithInMemoryStorage())
		require.NoError(t, err)
		require.NotNil(t, service)
		defer service.Close()
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open storage at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		service, err := NewService(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, service)
	})
}

func TestService_Close(t *testing.T) {
	service, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, service)

	err = service.Close()
	assert.NoError(t, err)
}

func TestService_FactoryMethods(t *testing.T) {
	service, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, service)
	defer service.Close()

	t.Run("can create search engine", func(t *testing.T) {
		engine, err := service.NewSearchEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("can create library", func(t *testing.T) {
		library, err := service.NewLibrary()
		require.NoError(t, err)
		require.NotNil(t, library)
		library.Release()
	})

	t.Run("can create pipeline", func(t *testing.T) {
		pipeline, err := service.NewPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
	})
}
