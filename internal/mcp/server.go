// Package mcp provides an MCP (Model Context Protocol) server for coevolve.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/ratelimit"
	"github.com/nvandessel/coevolve/internal/store"
)

// Server wraps the MCP SDK server and provides coevolve tools.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	root         string
	logger       *slog.Logger
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	loadConfig   func() (*config.CoevolveConfig, error)

	// runMu serializes simulations; they share the saved final network.
	runMu sync.Mutex
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "coevolve")
	Version string // Server version
	Root    string // Project root directory
	Logger  *slog.Logger
}

// NewServer creates a new MCP server with coevolve tools. The run store is
// opened from the user configuration.
func NewServer(cfg *Config) (*Server, error) {
	base, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := base.Store.Path
	if path == "" {
		path = store.DefaultDBPath(cfg.Root)
	}
	runStore, err := store.New(base.Store.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:       mcpServer,
		store:        runStore,
		root:         cfg.Root,
		logger:       logger,
		auditLogger:  NewAuditLogger(store.DataDir(cfg.Root)),
		toolLimiters: ratelimit.NewToolLimiters(),
		loadConfig:   config.Load,
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.Close()
	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	s.auditLogger.Close()
	return s.store.Close()
}
