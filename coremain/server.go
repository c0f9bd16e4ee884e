package coremain

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pmkol/dnscache/mlog"
	"github.com/pmkol/dnscache/pkg/cache/mem_cache"
	"github.com/pmkol/dnscache/pkg/safe_close"
)

func newMemCache(cfg *Config, lg *zap.Logger, withCleaner bool) *mem_cache.MemCache {
	opts := mem_cache.Opts{
		Buckets: cfg.Table.Buckets,
		Logger:  lg,
	}
	if withCleaner && cfg.Sweeper.Interval > 0 {
		opts.CleanerInterval = time.Duration(cfg.Sweeper.Interval) * time.Second
	}
	return mem_cache.NewMemCache(opts)
}

// RunServer runs the cache and its http api until sc is closed or a
// termination signal is received. A nil sc is replaced by a new one.
func RunServer(cfg *Config, sc *safe_close.SafeClose) error {
	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	if sc == nil {
		sc = safe_close.NewSafeClose()
	}

	c := newMemCache(cfg, lg, true)
	defer c.Close()

	metricsReg := newMetricsReg()
	if err := c.RegisterMetrics(prometheus.WrapRegistererWithPrefix("dnscache_", metricsReg)); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", newAPIHandler(c, lg, time.Now))
	mux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	lg.Info("cache created",
		zap.Int("buckets", c.Buckets()),
		zap.Int("sweeper_interval", cfg.Sweeper.Interval),
	)

	httpAddr := cfg.API.HTTP
	if len(httpAddr) == 0 {
		return errors.New("no api http address is configured")
	}
	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}
	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			lg.Info("starting api http server", zap.String("addr", httpAddr))
			errChan <- httpServer.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			sc.SendCloseSignal(err)
		case <-closeSignal:
			httpServer.Close()
		}
	})
	sc.CloseOnSignal(os.Interrupt, syscall.SIGTERM)

	<-sc.ReceiveCloseSignal()
	lg.Info("shutting down", zap.Int("entries", c.Len()))
	sc.Done()
	sc.CloseWait()
	return sc.Err()
}

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}
