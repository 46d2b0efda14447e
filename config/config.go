// Package config provides ledgerctl configuration read from YAML files.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/nspcc-dev/proofledger/proof"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the root of the ledgerctl configuration.
type Config struct {
	Ledger  Ledger                   `yaml:"Ledger"`
	Storage dbconfig.DBConfiguration `yaml:"Storage"`
	Genesis Genesis                  `yaml:"Genesis"`
	Logger  Logger                   `yaml:"Logger"`
}

// Ledger describes the token.
type Ledger struct {
	// Magic separates signatures of different ledgers.
	Magic    uint32 `yaml:"Magic"`
	Name     string `yaml:"Name"`
	Symbol   string `yaml:"Symbol"`
	Decimals int    `yaml:"Decimals"`
	// Scheme is a signature scheme name, see proof.SchemeByName.
	Scheme string `yaml:"Scheme"`
}

// Genesis describes the initial ledger state. Addresses are in the form
// accepted by proof.ParseAddress.
type Genesis struct {
	Owner string `yaml:"Owner"`
	// InitialSupply in whole tokens, may be fractional up to Ledger.Decimals.
	InitialSupply string   `yaml:"InitialSupply"`
	MintAgents    []string `yaml:"MintAgents"`
	Whitelist     []string `yaml:"Whitelist"`
}

// Logger configures zap logger.
type Logger struct {
	Level    string `yaml:"Level"`
	Encoding string `yaml:"Encoding"`
}

// DefaultMagic is the Magic of the default configuration.
const DefaultMagic = 0x50524F46

// Default returns configuration of a volatile ledger with the default token.
// Genesis owner is left empty.
func Default() *Config {
	return &Config{
		Ledger: Ledger{
			Magic:    DefaultMagic,
			Name:     "Proof Token",
			Symbol:   "PRF",
			Decimals: 8,
			Scheme:   proof.Neo.Name(),
		},
		Storage: dbconfig.DBConfiguration{
			Type: dbconfig.InMemoryDB,
		},
		Genesis: Genesis{
			InitialSupply: "1000000000",
		},
		Logger: Logger{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads configuration from the YAML file. Missing values are taken
// from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to deploy a ledger.
func (c *Config) Validate() error {
	if _, err := c.ProofScheme(); err != nil {
		return err
	}
	if c.Ledger.Decimals < 0 || c.Ledger.Decimals > 255 {
		return fmt.Errorf("decimals out of range: %d", c.Ledger.Decimals)
	}
	if c.Genesis.Owner == "" {
		return errors.New("missing genesis owner")
	}
	if _, err := c.BuildGenesis(); err != nil {
		return err
	}
	return nil
}

// Token returns ledger token information.
func (c *Config) Token() ledger.Token {
	return ledger.Token{
		Name:     c.Ledger.Name,
		Symbol:   c.Ledger.Symbol,
		Decimals: c.Ledger.Decimals,
		Magic:    c.Ledger.Magic,
	}
}

// ProofScheme returns configured signature scheme.
func (c *Config) ProofScheme() (proof.Scheme, error) {
	return proof.SchemeByName(c.Ledger.Scheme)
}

// BuildGenesis decodes the genesis section.
func (c *Config) BuildGenesis() (ledger.Genesis, error) {
	g := ledger.Genesis{Token: c.Token()}

	var err error
	if g.Owner, err = proof.ParseAddress(c.Genesis.Owner); err != nil {
		return g, fmt.Errorf("genesis owner: %w", err)
	}

	g.InitialSupply = new(big.Int)
	if c.Genesis.InitialSupply != "" {
		if g.InitialSupply, err = fixedn.FromString(c.Genesis.InitialSupply, c.Ledger.Decimals); err != nil {
			return g, fmt.Errorf("genesis initial supply: %w", err)
		}
	}

	if g.MintAgents, err = parseAddresses(c.Genesis.MintAgents); err != nil {
		return g, fmt.Errorf("genesis mint agents: %w", err)
	}
	if g.Whitelist, err = parseAddresses(c.Genesis.Whitelist); err != nil {
		return g, fmt.Errorf("genesis whitelist: %w", err)
	}
	return g, nil
}

func parseAddresses(ss []string) ([]util.Uint160, error) {
	res := make([]util.Uint160, 0, len(ss))
	for i := range ss {
		u, err := proof.ParseAddress(ss[i])
		if err != nil {
			return nil, fmt.Errorf("#%d: %w", i, err)
		}
		res = append(res, u)
	}
	return res, nil
}

// OpenStore opens the configured storage backend.
func (c *Config) OpenStore() (storage.Store, error) {
	st, err := storage.NewStore(c.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", c.Storage.Type, err)
	}
	return st, nil
}

// Build creates zap logger with the configured level and encoding.
func (l Logger) Build() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("logger level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Sampling = nil
	if l.Encoding != "" {
		cfg.Encoding = l.Encoding
	}
	if cfg.Encoding == "console" {
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return cfg.Build()
}
