package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	app_service "token-discovery-indexer/internal/application/service"
	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	domain_service "token-discovery-indexer/internal/domain/service"
	"token-discovery-indexer/internal/infrastructure/api"
	"token-discovery-indexer/internal/infrastructure/blockchain"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/database"
	"token-discovery-indexer/internal/infrastructure/logger"
	"token-discovery-indexer/internal/infrastructure/messaging"
	"token-discovery-indexer/internal/infrastructure/sink"
	"token-discovery-indexer/internal/infrastructure/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var (
	configFile  string
	profileFlag string
	traceFile   string
	limitFlag   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "token-discovery-indexer",
		Short: "Discovers token contracts from block execution traces",
		Long: `Consumes traced blocks, detects freshly deployed or initialized token
contracts, resolves their on-chain metadata and writes them to the token
store and the configured sinks.`,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default: search ./config.yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the streaming discovery daemon",
		RunE:  runDaemon,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a single traced block from a JSON file",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&traceFile, "file", "", "path to a traced block JSON file")
	scanCmd.Flags().StringVar(&profileFlag, "profile", "", "metadata profile override (standard|legacy)")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "List tokens from the local store",
		RunE:  runCatalog,
	}
	catalogCmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum tokens to list, 0 for all")

	rootCmd.AddCommand(runCmd, scanCmd, catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		os.Exit(1)
	}
}

// runDaemon wires and runs the long-lived discovery service
func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.RPC),
		fx.Supply(&cfg.Detection),
		fx.Supply(&cfg.Store),
		fx.Supply(&cfg.Graph),
		fx.Supply(&cfg.API),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			storage.NewBoltTokenStore,
			blockchain.NewEthereumClient,
			func(c *blockchain.EthereumClient) domain_service.ReadCallExecutor { return c },
			newCandidateFilter,
			blockchain.NewTokenDiscoveryService,
			newGraphRepository,
			newTokenSink,
			messaging.NewBlockConsumer,
		),

		// Application providers
		fx.Provide(
			app_service.NewDiscoveryApplicationService,
			app_service.NewCatalogService,
			api.NewServer,
		),

		// Lifecycle hooks
		fx.Invoke(startDiscovery),
		fx.Invoke(startAPIServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		return err
	}

	log.Info("Application stopped successfully")
	return nil
}

// newCandidateFilter assembles the caller deny list for the configured profile
func newCandidateFilter(cfg *config.Config, log *logger.Logger) *domain_service.CandidateFilterService {
	denied := append([]common.Address{}, domain_service.DefaultDeniedCallers...)
	if blockchain.MetadataProfile(cfg.Detection.Profile) == blockchain.ProfileLegacy {
		denied = append(denied, domain_service.LegacyDeniedCallers...)
	}
	for _, raw := range cfg.Detection.ExtraDeniedCallers {
		denied = append(denied, common.HexToAddress(raw))
	}
	return domain_service.NewCandidateFilterService(denied, log)
}

// newGraphRepository provides the graph repository when the graph is enabled
func newGraphRepository(cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) repository.GraphRepository {
	if !cfg.Graph.Enabled {
		return nil
	}
	return database.NewNeo4JGraphRepository(client, log)
}

// newTokenSink builds the sink selected by configuration
func newTokenSink(cfg *config.Config, log *logger.Logger) (domain_service.TokenSink, error) {
	return sink.NewTokenSink(&cfg.Sink, cfg.NATS.URL, log)
}

// startDiscovery starts block consumption and processing
func startDiscovery(
	lifecycle fx.Lifecycle,
	consumer *messaging.BlockConsumer,
	processor domain_service.BlockProcessingService,
	ethClient *blockchain.EthereumClient,
	neo4jClient *database.Neo4JClient,
	store repository.TokenRepository,
	tokenSink domain_service.TokenSink,
	log *logger.Logger,
	cfg *config.Config,
) {
	var loop sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting discovery service...")

			if cfg.Graph.Enabled {
				log.Info("Connecting to deployment graph database")
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
			}

			log.Info("NATS configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled))

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			loop.Add(1)
			go func() {
				defer loop.Done()
				processBlocks(consumer, processor, log, cfg)
			}()

			log.Info("Discovery service started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping discovery service...")

			// Stop intake first, then let the workers drain the channel
			if err := consumer.Disconnect(); err != nil {
				log.Error("Failed to disconnect from NATS", zap.Error(err))
			}
			loop.Wait()

			if err := tokenSink.Close(); err != nil {
				log.Error("Failed to close token sink", zap.Error(err))
			}
			if cfg.Graph.Enabled {
				if err := neo4jClient.Close(ctx); err != nil {
					log.Error("Failed to close Neo4J connection", zap.Error(err))
				}
			}
			ethClient.Close()
			return store.Close()
		},
	})
}

// startAPIServer starts the catalog HTTP server
func startAPIServer(
	lifecycle fx.Lifecycle,
	server *api.Server,
	cfg *config.Config,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.API.Enabled {
				log.Info("Catalog API is disabled")
				return nil
			}
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			if !cfg.API.Enabled {
				return nil
			}
			return server.Stop(ctx)
		},
	})
}

// processBlocks drains the consumer channel with a pool of workers
func processBlocks(
	consumer *messaging.BlockConsumer,
	processor domain_service.BlockProcessingService,
	log *logger.Logger,
	cfg *config.Config,
) {
	blockChan := consumer.GetBlockChannel()

	var workers sync.WaitGroup
	for i := 0; i < cfg.App.WorkerPoolSize; i++ {
		workers.Add(1)
		go func(workerID int) {
			defer workers.Done()
			log.Info("Starting block worker", zap.Int("worker_id", workerID))

			for block := range blockChan {
				if block == nil {
					continue
				}
				if err := processor.ProcessBlock(context.Background(), block); err != nil {
					log.Error("Failed to process block",
						zap.Uint64("block_number", block.Number),
						zap.Int("worker_id", workerID),
						zap.Error(err))
				}
			}
		}(i)
	}
	workers.Wait()
}

// runScan scans one traced block from a file and prints discoveries to stdout
func runScan(cmd *cobra.Command, args []string) error {
	if traceFile == "" {
		return fmt.Errorf("--file is required")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if profileFlag != "" {
		cfg.Detection.Profile = profileFlag
	}

	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	data, err := os.ReadFile(traceFile)
	if err != nil {
		return fmt.Errorf("failed to read trace file: %w", err)
	}

	var block entity.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return fmt.Errorf("failed to parse traced block: %w", err)
	}

	ethClient, err := blockchain.NewEthereumClient(&cfg.RPC, log)
	if err != nil {
		return err
	}
	defer ethClient.Close()

	filter := newCandidateFilter(cfg, log)
	discovery := blockchain.NewTokenDiscoveryService(ethClient, filter, &cfg.Detection, log)

	discoveries, err := discovery.DiscoverTokens(cmd.Context(), &block)
	if err != nil {
		return fmt.Errorf("failed to scan block: %w", err)
	}

	out := sink.NewStdoutSink(log)
	return out.WriteTokens(cmd.Context(), discoveries)
}

// runCatalog lists tokens from the local store
func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger("warn", cfg.App.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewBoltTokenStore(&cfg.Store, log)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	tokens, err := store.ListTokens(cmd.Context(), limitFlag)
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	for _, token := range tokens {
		line, err := json.Marshal(token)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}
	return nil
}
