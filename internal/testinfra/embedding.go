// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultEmbeddingImage is the Ollama image used for embedding tests.
	DefaultEmbeddingImage = "ollama/ollama:latest"

	// DefaultEmbeddingPort is the Ollama API port.
	DefaultEmbeddingPort = "11434"

	// DefaultEmbeddingModel is a small embedding model (~46MB) that
	// keeps integration runs fast. It produces 384-dimension vectors,
	// matching the production default.
	DefaultEmbeddingModel = "all-minilm"
)

// EmbeddingContainer represents a running embedding service for testing.
// The service speaks the same wire format as production: POST
// /api/embeddings {model, prompt} returning {embedding}.
type EmbeddingContainer struct {
	testcontainers.Container
	URL   string
	Model string
}

// EmbeddingOption configures the embedding container.
type EmbeddingOption func(*embeddingConfig)

type embeddingConfig struct {
	image        string
	model        string
	startTimeout time.Duration
	logger       testcontainers.Logging
}

// WithEmbeddingImage sets a custom Ollama image.
func WithEmbeddingImage(image string) EmbeddingOption {
	return func(c *embeddingConfig) {
		c.image = image
	}
}

// WithEmbeddingModel sets the model pulled after startup.
func WithEmbeddingModel(model string) EmbeddingOption {
	return func(c *embeddingConfig) {
		c.model = model
	}
}

// WithStartTimeout sets the timeout for waiting for the service to start.
func WithStartTimeout(timeout time.Duration) EmbeddingOption {
	return func(c *embeddingConfig) {
		c.startTimeout = timeout
	}
}

// WithContainerLog directs setup progress to a logger, typically
// NewContainerLogger(t).
func WithContainerLog(logger testcontainers.Logging) EmbeddingOption {
	return func(c *embeddingConfig) {
		c.logger = logger
	}
}

// NewEmbeddingContainer starts an embedding service container and pulls
// the configured model. The model pull downloads over the network, so
// allow a generous context deadline on first run.
//
// Example:
//
//	ctx := context.Background()
//	svc, err := NewEmbeddingContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer svc.Terminate(ctx)
//
//	// Point an internal/embedding client at svc.URL with svc.Model
func NewEmbeddingContainer(ctx context.Context, opts ...EmbeddingOption) (*EmbeddingContainer, error) {
	cfg := &embeddingConfig{
		image:        DefaultEmbeddingImage,
		model:        DefaultEmbeddingModel,
		startTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultEmbeddingPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultEmbeddingPort+"/tcp"),
			wait.ForHTTP("/").WithPort(DefaultEmbeddingPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding container: %w", err)
	}

	if cfg.logger != nil {
		cfg.logger.Printf("embedding container started, pulling model %s", cfg.model)
	}

	if err := pullModel(ctx, container, cfg.model); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("pull embedding model: %w", err)
	}

	if cfg.logger != nil {
		cfg.logger.Printf("embedding model %s ready", cfg.model)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultEmbeddingPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &EmbeddingContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
		Model:     cfg.model,
	}, nil
}

// pullModel downloads the model inside the container. The server is
// already running at this point, so the CLI talks to it over localhost.
func pullModel(ctx context.Context, container testcontainers.Container, model string) error {
	code, outputReader, err := container.Exec(ctx, []string{"ollama", "pull", model})
	if err != nil {
		return fmt.Errorf("exec model pull: %w", err)
	}
	if code != 0 {
		output, _ := io.ReadAll(outputReader)
		return fmt.Errorf("model pull failed with code %d: %s", code, string(output))
	}
	return nil
}

// Terminate stops and removes the embedding container.
func (c *EmbeddingContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// TagsEndpoint returns the URL listing the models the service has
// available, useful for readiness polling.
func (c *EmbeddingContainer) TagsEndpoint() string {
	return c.URL + "/api/tags"
}

// Logs returns the container logs for debugging.
func (c *EmbeddingContainer) Logs(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	var logs []byte
	buf := make([]byte, 1024)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			logs = append(logs, buf[:n]...)
		}
		if err != nil {
			break
		}
	}

	return string(logs), nil
}
