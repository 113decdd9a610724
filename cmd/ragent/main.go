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


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nholmst/ragent"
	"github.com/nholmst/ragent/agent"
	"github.com/nholmst/ragent/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env if present; environment stays authoritative
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ragent",
		Usage: "Retrieval-augmented chat over a personal knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Interactive chat session against the knowledge base",
				Action: chatCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "persona",
						Usage: "Name the assistant answers as",
						Value: "Peter",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of documents retrieved per query",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity for retrieved documents",
						Value: 0.7,
					},
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation id to resume",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity for results",
						Value: 0.7,
					},
				),
			},
			{
				Name:      "add",
				Usage:     "Add a document to the knowledge base",
				ArgsUsage: "<text>",
				Action:    addCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document id (generated when omitted)",
					},
					&cli.StringSliceFlag{
						Name:  "meta",
						Usage: "Metadata entry as key=value (repeatable)",
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List documents in the knowledge base",
				Action: listCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of documents to skip",
						Value: 0,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for every document",
				Action: reembedCommand,
				Flags:  serviceFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// serviceFlags returns the flags shared by all commands that open the
// service: storage location and AI provider settings.
func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "./ragent-db",
			EnvVars: []string{"RAGENT_DB"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"RAGENT_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "text-embedding-3-small",
			EnvVars: []string{"RAGENT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "generation-model",
			Usage:   "Generation model name",
			Value:   "gpt-4o-mini",
			EnvVars: []string{"RAGENT_GENERATION_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the AI service",
			Value:   "none",
			EnvVars: []string{"RAGENT_API_KEY", "OPENAI_API_KEY"},
		},
	}
}

// openService builds the service from the common flags.
func openService(c *cli.Context) (*ragent.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	service, err := ragent.NewService(c.String("db"), ragent.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return service, nil
}

func chatCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	pipeline, err := service.NewPipeline(
		agent.WithPersona(c.String("persona")),
		agent.WithTopK(c.Int("top-k")),
		agent.WithThreshold(float32(c.Float64("threshold"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	conversationId := c.String("conversation")
	ctx := context.Background()

	fmt.Fprintln(os.Stderr, "Type a question, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "/quit" || query == "/exit" {
			break
		}

		result := pipeline.Run(ctx, query, conversationId, "", nil)
		conversationId = result.ConversationId

		fmt.Println(result.Response)
		if result.Err != "" {
			fmt.Fprintf(os.Stderr, "(degraded: %s)\n", result.Err)
		}
	}
	return scanner.Err()
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	engine, err := service.NewSearchEngine()
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	results, err := engine.Search(context.Background(), query, c.Int("top-k"), float32(c.Float64("threshold")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%d. [%.3f] %s\n   %s\n", i+1, result.Similarity, result.Id, result.Text)
	}
	return nil
}

func addCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("document text is required")
	}

	metadata, err := parseMetadata(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	library, err := service.NewLibrary()
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}
	defer library.Release()

	doc, err := library.AddDocument(context.Background(), c.String("id"), text, metadata)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	fmt.Printf("Added document %s\n", doc.Id)
	return nil
}

func listCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	library, err := service.NewLibrary()
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}
	defer library.Release()

	docs, total, err := library.ListDocuments(context.Background(), c.Int("limit"), c.Int("offset"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%s  %s  %s\n", doc.Id, doc.CreatedAt.Format("2006-01-02 15:04:05"), doc.Text())
	}
	fmt.Printf("%d of %d documents\n", len(docs), total)
	return nil
}

func reembedCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	library, err := service.NewLibrary()
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}
	defer library.Release()

	stats, err := library.ReembedAll(context.Background())
	if stats != nil {
		fmt.Fprintf(os.Stderr, "Scanned: %d  Reembedded: %d  Skipped: %d  Failed: %d\n",
			stats.Total, stats.Reembedded, stats.Skipped, stats.Failed)
	}
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// parseMetadata converts key=value flags into a metadata map.
func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q: expected key=value", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
