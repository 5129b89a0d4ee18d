package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/talentdao/talentdao-backend/pkg/env"
)

type Config struct {
	devMode bool

	apiPort     string
	metricsPort string

	// Chain connectivity. An empty RPC URL puts the service in local mode:
	// writes commit to the ledger only and reconciliation is disabled.
	chainRPCUrl        string
	chainID            int64
	marketplaceAddress string
	rewardTokenAddress string
	credentialAddress  string
	confirmTimeout     time.Duration

	// Wallet identity. The hosted auth URL is used when set; otherwise the
	// keystore path is the development fallback.
	walletAuthURL      string
	keystorePath       string
	keystorePassphrase string

	// Ledger persistence. Redis enables cross-session sync; without it the
	// ledger lives in a local directory.
	redisURL string
	dataDir  string
	seedFile string

	syncCooldown     time.Duration
	autoSyncInterval time.Duration

	ipfsAPIUrl     string
	ipfsGatewayUrl string
}

var cfg Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: no .env file found, using environment variables")
	}

	cfg = Config{
		devMode:            env.GetEnvBool("DEV_MODE", false),
		apiPort:            env.GetEnvString("MARKETPLACE_API_PORT", "9005"),
		metricsPort:        env.GetEnvString("MARKETPLACE_METRICS_PORT", "9105"),
		chainRPCUrl:        env.GetEnvString("CHAIN_RPC_URL", ""),
		chainID:            int64(env.GetEnvInt("CHAIN_ID", 11155111)),
		marketplaceAddress: env.GetEnvString("MARKETPLACE_CONTRACT_ADDRESS", ""),
		rewardTokenAddress: env.GetEnvString("REWARD_TOKEN_ADDRESS", ""),
		credentialAddress:  env.GetEnvString("CREDENTIAL_CONTRACT_ADDRESS", ""),
		confirmTimeout:     env.GetEnvDuration("TX_CONFIRM_TIMEOUT", 3*time.Minute),
		walletAuthURL:      env.GetEnvString("WALLET_AUTH_URL", ""),
		keystorePath:       env.GetEnvString("KEYSTORE_PATH", ""),
		keystorePassphrase: env.GetEnvString("KEYSTORE_PASSPHRASE", ""),
		redisURL:           env.GetEnvString("REDIS_URL", ""),
		dataDir:            env.GetEnvString("LEDGER_DATA_DIR", "data/ledger"),
		seedFile:           env.GetEnvString("LEDGER_SEED_FILE", ""),
		syncCooldown:       env.GetEnvDuration("SYNC_COOLDOWN", 30*time.Second),
		autoSyncInterval:   env.GetEnvDuration("AUTO_SYNC_INTERVAL", time.Minute),
		ipfsAPIUrl:         env.GetEnvString("IPFS_API_URL", ""),
		ipfsGatewayUrl:     env.GetEnvString("IPFS_GATEWAY_URL", "https://ipfs.io"),
	}

	return validate()
}

func validate() error {
	if !env.IsValidPort(cfg.apiPort) {
		return fmt.Errorf("invalid MARKETPLACE_API_PORT: %s", cfg.apiPort)
	}
	if !env.IsValidPort(cfg.metricsPort) {
		return fmt.Errorf("invalid MARKETPLACE_METRICS_PORT: %s", cfg.metricsPort)
	}
	if cfg.chainRPCUrl != "" {
		if !env.IsValidURL(cfg.chainRPCUrl) {
			return fmt.Errorf("invalid CHAIN_RPC_URL: %s", cfg.chainRPCUrl)
		}
		if !env.IsValidEthAddress(cfg.marketplaceAddress) {
			return errors.New("invalid MARKETPLACE_CONTRACT_ADDRESS")
		}
		if !env.IsValidEthAddress(cfg.rewardTokenAddress) {
			return errors.New("invalid REWARD_TOKEN_ADDRESS")
		}
		if !env.IsValidEthAddress(cfg.credentialAddress) {
			return errors.New("invalid CREDENTIAL_CONTRACT_ADDRESS")
		}
		if cfg.walletAuthURL == "" && cfg.keystorePath == "" {
			return errors.New("chain mode requires WALLET_AUTH_URL or KEYSTORE_PATH")
		}
	}
	if cfg.walletAuthURL != "" && !env.IsValidURL(cfg.walletAuthURL) {
		return fmt.Errorf("invalid WALLET_AUTH_URL: %s", cfg.walletAuthURL)
	}
	return nil
}

func IsDevMode() bool                    { return cfg.devMode }
func GetAPIPort() string                 { return cfg.apiPort }
func GetMetricsPort() string             { return cfg.metricsPort }
func GetChainRPCUrl() string             { return cfg.chainRPCUrl }
func GetChainID() int64                  { return cfg.chainID }
func IsChainEnabled() bool               { return cfg.chainRPCUrl != "" }
func GetMarketplaceAddress() string      { return cfg.marketplaceAddress }
func GetRewardTokenAddress() string      { return cfg.rewardTokenAddress }
func GetCredentialAddress() string       { return cfg.credentialAddress }
func GetConfirmTimeout() time.Duration   { return cfg.confirmTimeout }
func GetWalletAuthURL() string           { return cfg.walletAuthURL }
func GetKeystorePath() string            { return cfg.keystorePath }
func GetKeystorePassphrase() string      { return cfg.keystorePassphrase }
func GetRedisURL() string                { return cfg.redisURL }
func GetDataDir() string                 { return cfg.dataDir }
func GetSeedFile() string                { return cfg.seedFile }
func GetSyncCooldown() time.Duration     { return cfg.syncCooldown }
func GetAutoSyncInterval() time.Duration { return cfg.autoSyncInterval }
func GetIPFSAPIUrl() string              { return cfg.ipfsAPIUrl }
func GetIPFSGatewayUrl() string          { return cfg.ipfsGatewayUrl }
