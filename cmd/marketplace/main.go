package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ipfsapi "github.com/ipfs/go-ipfs-api"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/talentdao/talentdao-backend/internal/credentials"
	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/internal/lifecycle"
	"github.com/talentdao/talentdao-backend/internal/marketplace"
	"github.com/talentdao/talentdao-backend/internal/marketplace/config"
	"github.com/talentdao/talentdao-backend/internal/marketplace/handlers"
	"github.com/talentdao/talentdao-backend/internal/reconcile"
	"github.com/talentdao/talentdao-backend/internal/wallet"
	"github.com/talentdao/talentdao-backend/pkg/contracts"
	"github.com/talentdao/talentdao-backend/pkg/eventbus"
	"github.com/talentdao/talentdao-backend/pkg/events"
	httppkg "github.com/talentdao/talentdao-backend/pkg/http"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

func main() {
	app := &cli.App{
		Name:        "talentdao-marketplace",
		Usage:       "TalentDAO marketplace service",
		Description: "Serves the job marketplace API: wallet sessions, job lifecycle, settlement, chain reconciliation, and worker credentials.",
		Action:      run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalln("Application failed:", err)
	}
}

// managerSigner resolves signing options from whichever wallet session is
// active at transaction time.
type managerSigner struct {
	sessions *wallet.SessionManager
}

func (m managerSigner) Transactor() (*bind.TransactOpts, error) {
	session, err := m.sessions.Active()
	if err != nil {
		return nil, err
	}
	return session.Transactor()
}

func run(_ *cli.Context) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if err := logging.InitServiceLogger(logging.LoggerConfig{
		ProcessName:   logging.MarketplaceProcess,
		IsDevelopment: config.IsDevMode(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Shutdown()
	logger := logging.GetServiceLogger()

	logger.Info("Starting marketplace service",
		"dev_mode", config.IsDevMode(),
		"port", config.GetAPIPort(),
		"chain_enabled", config.IsChainEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistence, err := newPersistence(logger)
	if err != nil {
		return err
	}
	defer func() { _ = persistence.Close() }()

	seed, err := newSeed()
	if err != nil {
		return err
	}

	bus := eventbus.New(logger)
	subscribeNotifications(bus, logger)

	store, err := ledger.NewStore(ctx, persistence, seed, bus, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	go func() {
		if err := store.WatchExternal(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("Ledger change feed stopped: %v", err)
		}
	}()

	httpClient, err := httppkg.NewHTTPClient(nil, logger)
	if err != nil {
		return err
	}

	sessions := wallet.NewSessionManager(newAuthenticator(logger), logger)

	var (
		remote           lifecycle.Remote
		reconciler       handlers.Reconciler
		credentialLister handlers.CredentialLister
		tokenBalances    handlers.TokenBalanceReader
	)
	if config.IsChainEnabled() {
		remote, reconciler, credentialLister, tokenBalances, err = newChainStack(ctx, sessions, store, httpClient, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("No chain RPC configured, running in local mode")
	}

	engine := lifecycle.NewEngine(store, remote, nil, bus, logger)
	handler := handlers.NewHandler(store, engine, sessions, reconciler, credentialLister, tokenBalances, logger)
	server := marketplace.NewServer(handler, logger)

	if reconciler != nil {
		scheduler := cron.New()
		spec := fmt.Sprintf("@every %s", config.GetAutoSyncInterval())
		// Background syncs never force; the cooldown stays in charge.
		if _, err := scheduler.AddFunc(spec, func() {
			if _, err := reconciler.Sync(ctx, false); err != nil {
				logger.Warnf("Scheduled sync failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule auto-sync: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	return server.Start(ctx, config.GetAPIPort())
}

func newPersistence(logger logging.Logger) (ledger.Persistence, error) {
	if url := config.GetRedisURL(); url != "" {
		store, err := ledger.NewRedisStore(url, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis ledger backend: %w", err)
		}
		return store, nil
	}
	store, err := ledger.NewFileStore(config.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger directory: %w", err)
	}
	logger.Infof("Using file ledger backend at %s", config.GetDataDir())
	return store, nil
}

func newSeed() (*ledger.State, error) {
	if path := config.GetSeedFile(); path != "" {
		seed, err := ledger.LoadSeedFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		return seed, nil
	}
	return ledger.DefaultSeed(), nil
}

func newAuthenticator(logger logging.Logger) wallet.Authenticator {
	if url := config.GetWalletAuthURL(); url != "" {
		// Connect blocks while the user decides in the host UI, so the
		// call gets the confirmation-class timeout and is never retried.
		return wallet.NewHostedAuthenticator(url, config.GetConfirmTimeout(), logger)
	}
	if path := config.GetKeystorePath(); path != "" {
		return wallet.NewKeystoreAuthenticator(path, config.GetKeystorePassphrase(), big.NewInt(config.GetChainID()), logger)
	}
	return wallet.NewDevAuthenticator(common.HexToAddress(ledger.DemoWorkerWallet), logger)
}

func newChainStack(
	ctx context.Context,
	sessions *wallet.SessionManager,
	store *ledger.Store,
	httpClient *httppkg.HTTPClient,
	logger logging.Logger,
) (lifecycle.Remote, handlers.Reconciler, handlers.CredentialLister, handlers.TokenBalanceReader, error) {
	client, err := contracts.Dial(ctx, config.GetChainRPCUrl(), logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect chain RPC: %w", err)
	}

	marketplaceContract, err := contracts.NewMarketplace(
		common.HexToAddress(config.GetMarketplaceAddress()), client, config.GetConfirmTimeout(), logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	token, err := contracts.NewRewardToken(
		common.HexToAddress(config.GetRewardTokenAddress()), client, config.GetConfirmTimeout(), logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	credentialToken, err := contracts.NewCredentialToken(
		common.HexToAddress(config.GetCredentialAddress()), client, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var ipfsShell *ipfsapi.Shell
	if url := config.GetIPFSAPIUrl(); url != "" {
		ipfsShell = ipfsapi.NewShell(url)
	}
	resolver := credentials.NewMetadataResolver(httpClient, ipfsShell, config.GetIPFSGatewayUrl(), logger)

	remote := lifecycle.NewChainRemote(marketplaceContract, token, managerSigner{sessions: sessions})
	reconciler := reconcile.NewService(store, marketplaceContract, config.GetSyncCooldown(), logger)
	lister := credentials.NewService(credentialToken, resolver, logger)
	return remote, reconciler, lister, token, nil
}

func subscribeNotifications(bus *eventbus.EventBus, logger logging.Logger) {
	bus.Subscribe(events.WorkApproved, func(event events.Event) {
		if payload, ok := event.Payload.(events.WorkApprovedEvent); ok {
			logger.Infof("Work approved on job %d: %s credited %s", payload.JobID, payload.Worker, payload.WorkerShare)
		}
	})
	bus.Subscribe(events.LedgerReplaced, func(event events.Event) {
		logger.Info("Ledger replaced by another session")
	})
}
