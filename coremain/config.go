package coremain

import (
	"github.com/pmkol/dnscache/mlog"
)

type Config struct {
	Log       mlog.LogConfig  `yaml:"log"`
	Table     TableConfig     `yaml:"table"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	API       APIConfig       `yaml:"api"`
	Generator GeneratorConfig `yaml:"generator"`
}

type TableConfig struct {
	// Buckets is fixed for the lifetime of the cache.
	Buckets int `yaml:"buckets"`
}

type SweeperConfig struct {
	// Interval in seconds. Zero disables the background sweeper.
	Interval int `yaml:"interval"`
}

type APIConfig struct {
	HTTP string `yaml:"http"`
}

type GeneratorConfig struct {
	// Seed zero means a time based seed.
	Seed uint64 `yaml:"seed"`
}

var configDefaults = map[string]any{
	"log.level":        "info",
	"table.buckets":    50,
	"sweeper.interval": 60,
	"api.http":         "127.0.0.1:8080",
}
