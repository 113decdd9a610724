// Copyright 2025 Nils Holmstrom
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ragent wires the retrieval-augmented chat components together:
// a BadgerDB-backed document store, an embedding/generation provider,
// the similarity search engine, the document library, and the staged
// answer pipeline.
package ragent

import (
	"log/slog"

	"github.com/nholmst/ragent/agent"
	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/ai/openai"
	"github.com/nholmst/ragent/knowledge"
	"github.com/nholmst/ragent/search"
	"github.com/nholmst/ragent/storage"
	"github.com/nholmst/ragent/storage/badger"
)

// Service owns the storage backend and AI provider shared by the
// components it constructs.
type Service struct {
	backend        *badger.Backend
	documentRepo   storage.DocumentRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	logger         *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemoryStorage uses an in-memory document store.
// Intended for tests and ephemeral runs.
func WithInMemoryStorage() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// NewService opens the storage backend at filePath and constructs the
// shared repositories and AI provider.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	// Apply options
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create repositories
	documentRepo := badger.NewDocumentRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:        backend,
		documentRepo:   documentRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		logger:         slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (s *Service) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.documentRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.documentRepo
}

func (s *Service) CheckpointRepository() storage.CheckpointRepository {
	return s.checkpointRepo
}

func (s *Service) Provider() ai.AIProvider {
	return s.provider
}

// NewSearchEngine constructs a search engine over the service's collection.
func (s *Service) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(s.documentRepo, s.provider, opts...)
}

// NewLibrary constructs a document library over the service's collection.
func (s *Service) NewLibrary(opts ...knowledge.Option) (*knowledge.Library, error) {
	return knowledge.NewLibrary(s.documentRepo, s.provider, opts...)
}

// NewPipeline constructs the agent pipeline with conversation memory
// backed by the service's checkpoint store.
func (s *Service) NewPipeline(opts ...agent.Option) (*agent.Pipeline, error) {
	engine, err := s.NewSearchEngine()
	if err != nil {
		return nil, err
	}
	return agent.NewPipeline(engine, s.checkpointRepo, s.provider, opts...)
}
