// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"gitlab.com/tytlab/core/settlement.core/corelog"
	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/engine"
	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/network/rpc"
)

const (
	defaultConfigFilename = "settled.yaml"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultDBType         = "badgerdb"

	sampleConfigFilename = "sample-settled.yaml"
)

var knownDBTypes = database.SupportedDrivers()

// cliFlags are the command-line options. Everything else lives in the
// YAML config file; flags override the file.
type cliFlags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogLevel    string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error}"`
	Listen      string `long:"listen" description:"Interface/port for the API server"`
	CronSecret  string `long:"cronsecret" description:"Bearer secret for the mutating API endpoints"`
	DBType      string `long:"dbtype" description:"Database backend to use for the settlement store"`
}

// Config defines the configuration options for settled.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	DBType   string `yaml:"db_type"`
	LogLevel string `yaml:"log_level"`

	// DisableFileLogging keeps logs on stderr only.
	DisableFileLogging bool           `yaml:"disable_file_logging"`
	LogConfig          corelog.Config `yaml:"log_config"`

	Settlement engine.Params    `yaml:"settlement"`
	Rates      rates.HTTPConfig `yaml:"rates"`
	API        rpc.Config       `yaml:"api"`

	// ShowVersion is only ever set from the command line.
	ShowVersion bool `yaml:"-"`
}

// DefaultConfig returns the config all loads start from.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    defaultDataDirname,
		DBType:     defaultDBType,
		LogLevel:   defaultLogLevel,
		LogConfig:  corelog.Config{}.Default(),
		Settlement: engine.DefaultParams(),
		Rates:      rates.DefaultHTTPConfig(),
		API:        rpc.Config{}.Default(),
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options overriding both
//
// The above results in settled functioning properly without any config
// settings while still allowing the user to override settings with
// config files and command line options.
func LoadConfig(appName string, arguments []string) (*Config, error) {
	cli := cliFlags{ConfigFile: defaultConfigFilename}

	parser := flags.NewNamedParser(appName, flags.Default)
	if _, err := parser.AddGroup("Options", "", &cli); err != nil {
		return nil, err
	}
	if _, err := parser.ParseArgs(arguments); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := loadConfigFile(cli.ConfigFile, cfg, cli.ConfigFile != defaultConfigFilename); err != nil {
		return nil, err
	}

	// Command line wins over the file.
	if cli.DataDir != "" {
		cfg.DataDir = cli.DataDir
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.Listen != "" {
		cfg.API.ListenAddr = cli.Listen
	}
	if cli.CronSecret != "" {
		cfg.API.CronSecret = cli.CronSecret
	}
	if cli.DBType != "" {
		cfg.DBType = cli.DBType
	}
	cfg.ShowVersion = cli.ShowVersion

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile reads the YAML file into cfg. A missing default file
// is fine; a missing explicitly requested file is an error.
func loadConfigFile(path string, cfg *Config, explicit bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the daemon cannot run with.
func (cfg *Config) Validate() error {
	if !validDBType(cfg.DBType) {
		return fmt.Errorf("the specified database type [%s] is invalid -- supported types: %s",
			cfg.DBType, strings.Join(knownDBTypes, ", "))
	}
	if err := cfg.Settlement.Validate(); err != nil {
		return err
	}
	return nil
}

// DBPath is the on-disk location of the settlement store.
func (cfg *Config) DBPath() string {
	return filepath.Join(cfg.DataDir, cfg.DBType)
}

// OpenStore opens the configured database backend, creating the data
// directory when needed.
func (cfg *Config) OpenStore() (database.Store, error) {
	if cfg.DBType == "memdb" {
		return database.Open(cfg.DBType)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}
	return database.Open(cfg.DBType, cfg.DBPath())
}

// validDBType returns whether or not dbType is a supported database
// type.
func validDBType(dbType string) bool {
	for _, knownType := range knownDBTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// SupportedDBTypes returns the registered backends in stable order,
// for help output.
func SupportedDBTypes() []string {
	types := append([]string(nil), knownDBTypes...)
	sort.Strings(types)
	return types
}
