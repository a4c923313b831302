package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/chainindex/indexer-infrastructure/ingest"
	"github.com/chainindex/indexer-infrastructure/ingest/db"
	"github.com/chainindex/indexer-infrastructure/ingest/elastic"
	"github.com/chainindex/indexer-infrastructure/logger"
	"github.com/chainindex/indexer-infrastructure/secrets"
	"github.com/chainindex/indexer-infrastructure/secrets/helper"
)

// demoSource feeds the pipeline with synthetic block events, standing in for
// a node's signal dispatch
type demoSource struct {
	acceptedBlockFns     []func(*ingest.BlockState)
	irreversibleBlockFns []func(*ingest.BlockState)
	acceptedTrxFns       []func(*ingest.TransactionMetadata)
	appliedTrxFns        []func(*ingest.TransactionTrace)
}

var _ ingest.EventSource = (*demoSource)(nil)

func (s *demoSource) SubscribeAcceptedBlock(fn func(*ingest.BlockState)) func() {
	s.acceptedBlockFns = append(s.acceptedBlockFns, fn)

	return func() {}
}

func (s *demoSource) SubscribeIrreversibleBlock(fn func(*ingest.BlockState)) func() {
	s.irreversibleBlockFns = append(s.irreversibleBlockFns, fn)

	return func() {}
}

func (s *demoSource) SubscribeAcceptedTransaction(fn func(*ingest.TransactionMetadata)) func() {
	s.acceptedTrxFns = append(s.acceptedTrxFns, fn)

	return func() {}
}

func (s *demoSource) SubscribeAppliedTransaction(fn func(*ingest.TransactionTrace)) func() {
	s.appliedTrxFns = append(s.appliedTrxFns, fn)

	return func() {}
}

func (s *demoSource) produce(ctx context.Context, interval time.Duration) {
	const irreversibleLag = 6

	blockNum := uint64(1)
	ticker := time.NewTicker(interval)

	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state := &ingest.BlockState{
			BlockNum:       blockNum,
			BlockID:        fmt.Sprintf("%08x", blockNum),
			Validated:      true,
			InCurrentChain: true,
			Block: &ingest.SignedBlock{
				Timestamp: time.Now().UTC(),
				Producer:  "demoproducer",
			},
		}

		for _, fn := range s.acceptedBlockFns {
			fn(state)
		}

		if blockNum > irreversibleLag {
			irreversible := &ingest.BlockState{
				BlockNum:  blockNum - irreversibleLag,
				BlockID:   fmt.Sprintf("%08x", blockNum-irreversibleLag),
				Validated: true,
			}

			for _, fn := range s.irreversibleBlockFns {
				fn(irreversible)
			}
		}

		blockNum++
	}
}

func runPipeline(ctx context.Context, baseDirectory string) error {
	loggers := logger.NewLoggerContainer(logger.LoggerConfig{
		LogLevel:      hclog.Debug,
		JSONLogFormat: false,
		AppendFile:    true,
		LogFilePath:   filepath.Join(baseDirectory, "logs"),
	})

	log, err := loggers.GetLogger("ingest")
	if err != nil {
		return err
	}

	progressDB, err := db.NewDatabaseInit("", filepath.Join(baseDirectory, "progress.db"))
	if err != nil {
		return err
	}

	defer progressDB.Close()

	clientConfig := &elastic.ClientConfig{
		URLs:        []string{"http://localhost:9200"},
		IndexPrefix: "chain",
	}

	secretsManager, err := helper.SetupLocalSecretsManager(baseDirectory)
	if err != nil {
		return err
	}

	switch {
	case secretsManager.HasSecret(secrets.BackendAPIKey):
		apiKey, err := secretsManager.GetSecret(secrets.BackendAPIKey)
		if err != nil {
			return err
		}

		clientConfig.APIKey = string(apiKey)
	case secretsManager.HasSecret(secrets.BackendPassword):
		password, err := secretsManager.GetSecret(secrets.BackendPassword)
		if err != nil {
			return err
		}

		clientConfig.Username = "elastic"
		clientConfig.Password = string(password)
	}

	elasticLog, err := loggers.GetLogger("elastic")
	if err != nil {
		return err
	}

	client, err := elastic.NewClient(clientConfig, elasticLog)
	if err != nil {
		return err
	}

	pipelineLog, err := loggers.GetLogger("pipeline")
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(&ingest.PipelineConfig{
		QueueSoftLimit:    1024,
		CacheCapacity:     2048,
		StoreTransactions: true,
		SystemAccount:     "eosio",
	}, client, progressDB, pipelineLog)
	if err != nil {
		return err
	}

	if err := pipeline.Start(ctx); err != nil {
		return err
	}

	defer pipeline.Close()

	source := &demoSource{}
	pipeline.Attach(source)

	go source.produce(ctx, time.Millisecond*500)

	select {
	case <-ctx.Done():
		return nil
	case err := <-pipeline.ErrorCh():
		log.Error("pipeline fatal err", "err", err)

		return err
	}
}

func main() {
	baseDirectory, err := os.MkdirTemp("", "ingest-demo")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	defer os.RemoveAll(baseDirectory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChannel := make(chan os.Signal, 1)
	// Notify the signalChannel when the interrupt signal is received (Ctrl+C)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChannel
		cancel()
	}()

	if err := runPipeline(ctx, baseDirectory); err != nil {
		fmt.Println("pipeline error", err)
		os.Exit(1)
	}
}
