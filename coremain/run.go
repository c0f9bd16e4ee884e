package coremain

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pmkol/dnscache/mlog"
	"github.com/pmkol/dnscache/pkg/dnscache"
	"github.com/pmkol/dnscache/pkg/gen"
	"github.com/pmkol/dnscache/pkg/safe_close"
)

type serverFlags struct {
	c         string
	dir       string
	asService bool
}

var rootCmd = &cobra.Command{
	Use:   "dnscache",
	Short: "An in-memory DNS record cache.",
}

func init() {
	sf := new(serverFlags)
	serveCmd := &cobra.Command{
		Use:   "serve [-c config_file] [-d working_dir]",
		Short: "Start the cache with its HTTP API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sf.asService {
				svc, err := service.New(&serverService{f: sf}, svcCfg)
				if err != nil {
					return fmt.Errorf("failed to init service, %w", err)
				}
				return svc.Run()
			}
			return StartServer(sf, nil)
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	rootCmd.AddCommand(serveCmd)
	fs := serveCmd.Flags()
	fs.StringVarP(&sf.c, "config", "c", "", "config file")
	fs.StringVarP(&sf.dir, "dir", "d", "", "working dir")
	fs.BoolVar(&sf.asService, "as-service", false, "start as a service")
	fs.MarkHidden("as-service")

	rootCmd.AddCommand(newShellCmd(), newGenCmd())

	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage dnscache as a system service.",
	}
	serviceCmd.PersistentPreRunE = initService
	serviceCmd.AddCommand(
		newSvcInstallCmd(),
		newSvcUninstallCmd(),
		newSvcStartCmd(),
		newSvcStopCmd(),
		newSvcRestartCmd(),
		newSvcStatusCmd(),
	)
	rootCmd.AddCommand(serviceCmd)
}

func Run() error {
	return rootCmd.Execute()
}

func newShellCmd() *cobra.Command {
	var cfgFile string
	c := &cobra.Command{
		Use:   "shell [-c config_file]",
		Short: "Start the interactive cache menu.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("fail to load config, %w", err)
			}
			lg, err := mlog.NewLogger(&cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			mc := newMemCache(cfg, lg, false)
			defer mc.Close()
			sh := NewShell(mc, cmd.InOrStdin(), cmd.OutOrStdout(), gen.New(generatorSeed(cfg)), time.Now)
			return sh.Run()
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	c.Flags().StringVarP(&cfgFile, "config", "c", "", "config file")
	return c
}

func newGenCmd() *cobra.Command {
	var (
		n      int
		seed   uint64
		format string
	)
	c := &cobra.Command{
		Use:   "gen [-n count] [--seed seed] [--format text|json|yaml|rr]",
		Short: "Print synthetic cache entries.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				n = 10
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			entries := gen.New(seed).Entries(n, time.Now())
			return writeEntries(cmd.OutOrStdout(), entries, format)
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	fs := c.Flags()
	fs.IntVarP(&n, "count", "n", 10, "number of entries")
	fs.Uint64Var(&seed, "seed", 0, "generator seed, 0 means time based")
	fs.StringVar(&format, "format", "text", "output format: text, json, yaml or rr")
	return c
}

func StartServer(sf *serverFlags, sc *safe_close.SafeClose) error {
	if len(sf.dir) > 0 {
		err := os.Chdir(sf.dir)
		if err != nil {
			return fmt.Errorf("failed to change the current working directory, %w", err)
		}
		mlog.L().Info("working directory changed", zap.String("path", sf.dir))
	}

	cfg, fileUsed, err := loadConfig(sf.c)
	if err != nil {
		return fmt.Errorf("fail to load config, %w", err)
	}
	if len(fileUsed) > 0 {
		mlog.L().Info("config loaded", zap.String("file", fileUsed))
	}

	if err := RunServer(cfg, sc); err != nil {
		return fmt.Errorf("dnscache exited, %w", err)
	}
	return nil
}

// loadConfig load a config from a file. If filePath is empty, it will
// search a file which name start with "config" and fall back to defaults
// if there is none.
func loadConfig(filePath string) (*Config, string, error) {
	v := viper.New()
	for k, val := range configDefaults {
		v.SetDefault(k, val)
	}

	if len(filePath) > 0 {
		v.SetConfigFile(filePath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if len(filePath) > 0 || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	decoderOpt := func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
		cfg.TagName = "yaml"
		cfg.WeaklyTypedInput = true
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Table.Buckets <= 0 {
		cfg.Table.Buckets = dnscache.DefaultBuckets
	}

	// The global logger follows the configured level too.
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, "", fmt.Errorf("invalid log level: %w", err)
	}
	mlog.SetLevel(level)
	return cfg, v.ConfigFileUsed(), nil
}

func generatorSeed(cfg *Config) uint64 {
	if cfg.Generator.Seed != 0 {
		return cfg.Generator.Seed
	}
	return uint64(time.Now().UnixNano())
}
