package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vestlabs/vestd/internal/core/application"
	"github.com/vestlabs/vestd/internal/core/domain"
	"github.com/vestlabs/vestd/internal/core/ports"
	staticauthorizer "github.com/vestlabs/vestd/internal/infrastructure/authorizer/static"
	"github.com/vestlabs/vestd/internal/infrastructure/db"
	treasuryinmemory "github.com/vestlabs/vestd/internal/infrastructure/treasury/inmemory"
)

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return fmt.Sprintf("%v", types)
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedFundingModes = supportedType{
		"full":    {},
		"partial": {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int

	DbType      string
	EventDbType string
	DbDir       string
	EventDbDir  string

	FundingMode     string
	ClaimFee        uint64
	FeeCollector    string
	AdminAddresses  []string
	TreasuryBalance uint64

	repo     ports.RepoManager
	treasury ports.Treasury
	auth     ports.Authorizer
	svc      application.Service
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir     = dataDir()
	defaultLogLevel    = 4
	defaultDbType      = "badger"
	defaultEventDbType = "badger"
	defaultFundingMode = "full"
)

// env returns a list of strings prefixed with `VESTD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("VESTD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	FundingMode = &cli.StringFlag{
		Usage: "Funding mode (full, partial)",
		Name:  "funding-mode", EnvVars: env("FUNDING_MODE"),
		Value: defaultFundingMode,
	}

	ClaimFee = &cli.Uint64Flag{
		Usage: "Flat fee charged on every claim",
		Name:  "claim-fee", EnvVars: env("CLAIM_FEE"),
	}

	FeeCollector = &cli.StringFlag{
		Usage: "Address entitled to withdraw collected claim fees",
		Name:  "fee-collector", EnvVars: env("FEE_COLLECTOR"),
	}

	AdminAddresses = &cli.StringSliceFlag{
		Usage: "Addresses allowed to run privileged operations",
		Name:  "admin-addresses", EnvVars: env("ADMIN_ADDRESSES"),
	}

	TreasuryBalance = &cli.Uint64Flag{
		Usage: "Initial balance of the in-memory treasury pool",
		Name:  "treasury-balance", EnvVars: env("TREASURY_BALANCE"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	DbType,
	EventDbType,
	FundingMode,
	ClaimFee,
	FeeCollector,
	AdminAddresses,
	TreasuryBalance,
}

func NewConfig(c *cli.Context) (*Config, error) {
	datadir := c.String(Datadir.Name)
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %w", err)
	}

	return &Config{
		Datadir:         datadir,
		LogLevel:        c.Int(LogLevel.Name),
		DbType:          c.String(DbType.Name),
		EventDbType:     c.String(EventDbType.Name),
		DbDir:           filepath.Join(datadir, "db"),
		EventDbDir:      filepath.Join(datadir, "db"),
		FundingMode:     c.String(FundingMode.Name),
		ClaimFee:        c.Uint64(ClaimFee.Name),
		FeeCollector:    c.String(FeeCollector.Name),
		AdminAddresses:  c.StringSlice(AdminAddresses.Name),
		TreasuryBalance: c.Uint64(TreasuryBalance.Name),
	}, nil
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s", supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedFundingModes.supports(c.FundingMode) {
		return fmt.Errorf(
			"funding mode not supported, please select one of: %s", supportedFundingModes,
		)
	}
	if c.FeeCollector == "" {
		return fmt.Errorf("missing fee collector address")
	}
	if len(c.AdminAddresses) == 0 {
		return fmt.Errorf("missing admin addresses")
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) RepoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return nil, err
		}
	}
	return c.repo, nil
}

func (c *Config) repoManager() error {
	logger := log.New()

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: []interface{}{c.EventDbDir, logger},
		DataStoreConfig:  []interface{}{c.DbDir, logger},
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) treasuryService() error {
	c.treasury = treasuryinmemory.NewService(c.TreasuryBalance)
	return nil
}

func (c *Config) authorizerService() error {
	c.auth = staticauthorizer.NewService(c.AdminAddresses)
	return nil
}

func (c *Config) appService() error {
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return err
		}
	}
	if c.treasury == nil {
		if err := c.treasuryService(); err != nil {
			return err
		}
	}
	if c.auth == nil {
		if err := c.authorizerService(); err != nil {
			return err
		}
	}

	fundingMode, err := domain.ParseFundingMode(c.FundingMode)
	if err != nil {
		return err
	}

	svc, err := application.NewService(
		c.repo, c.treasury, c.auth, fundingMode, c.ClaimFee, c.FeeCollector,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./vestd-data"
	}
	return filepath.Join(home, ".vestd")
}
