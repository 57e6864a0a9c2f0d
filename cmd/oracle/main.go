package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
	"kolrails/internal/config"
	"kolrails/internal/journal"
	"kolrails/internal/ops"
	"kolrails/internal/settle"
	"kolrails/internal/source"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	acceptID := flag.String("accept", "", "accept the given campaign id and exit (administrative)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	ethClient, err := chain.NewEthClient(ctx, chain.EthClientConfig{
		RPCURL:             cfg.Chain.RPCURL,
		PrivateKeyHex:      cfg.Chain.PrivateKey,
		MarketplaceAddress: cfg.Deployment.Contracts.Marketplace,
		TokenAddress:       cfg.Deployment.Contracts.SettlementToken,
		ReceiptTimeout:     cfg.Chain.ReceiptTimeout,
	})
	if err != nil {
		log.Fatalf("chain client error: %v", err)
	}

	sequencer := settle.NewNonceSequencer(ethClient)

	if *acceptID != "" {
		acceptCampaign(ctx, ethClient, sequencer, *acceptID)
		return
	}

	var src source.Source
	switch cfg.Service.SourceMode {
	case config.SourceModeRegistry:
		src, err = source.NewRegistrySource(source.RegistryConfig{
			BaseURL:   cfg.Registry.BaseURL,
			APIKey:    cfg.Registry.APIKey,
			SourceTag: cfg.Registry.SourceTag,
		})
		if err != nil {
			log.Fatalf("registry source error: %v", err)
		}
	default:
		src = source.NewChainSource(ethClient)
	}

	var store journal.Store
	var dbHealth func(context.Context) error
	if cfg.Service.PostgresDSN != "" {
		pgStore, err := journal.NewPostgresStore(ctx, cfg.Service.PostgresDSN)
		if err != nil {
			log.Fatalf("journal store error: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		dbHealth = pgStore.Ping
	} else {
		log.Printf("no POSTGRES_DSN set, journaling in memory only")
		store = journal.NewMemoryStore()
	}

	executor := settle.NewExecutor(ethClient, sequencer, store, cfg.Service.ShareBps)
	engine := settle.NewEngine(settle.EngineConfig{
		Client:       ethClient,
		Source:       src,
		Executor:     executor,
		PollInterval: cfg.Service.PollInterval,
		ShareBps:     cfg.Service.ShareBps,
	})

	opsServer := ops.NewServer(ops.ServerConfig{
		Addr:      cfg.Service.OpsAddr,
		Metrics:   engine.Metrics().Handler(),
		RPCHealth: ethClient.Ping,
		DBHealth:  dbHealth,
	})
	go func() {
		if err := opsServer.Start(); err != nil {
			log.Printf("ops server stopped: %v", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Printf("shutdown requested")
		cancel()
	}()

	log.Printf("settlement oracle started: source=%s interval=%s share=%dbps account=%s",
		cfg.Service.SourceMode, cfg.Service.PollInterval, cfg.Service.ShareBps, ethClient.Account().Hex())
	_ = engine.Run(runCtx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = opsServer.Shutdown(shutdownCtx)
}

// acceptCampaign is the manual administrative path: the poll loop never
// accepts campaigns on its own.
func acceptCampaign(ctx context.Context, client chain.Client, sequencer *settle.NonceSequencer, rawID string) {
	id, err := campaign.ParseID(rawID)
	if err != nil {
		log.Fatalf("accept: %v", err)
	}

	session := sequencer.Acquire()
	defer session.Release()

	nonce, err := session.Next(ctx)
	if err != nil {
		log.Fatalf("accept %s: %v", id, err)
	}
	receipt, err := client.Accept(ctx, id, nonce)
	if err != nil {
		log.Fatalf("accept %s: %v", id, err)
	}
	log.Printf("accepted campaign %s (tx %s)", id, receipt.TxHash)
}
