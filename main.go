package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sync"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/o0olele/svon-go/builder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "svon_info",
		Help:        "SVON server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

var _ = reflect.TypeOf(config{})

type config struct {
	Addr          string `cli:""        env:"SVON_ADDR"            help:"Listening address for the query API."`
	AdminAddr     string `cli:""        env:"SVON_ADMIN_ADDR"      help:"Admin listening address."`
	DataDir       string `cli:""        env:"SVON_DATA_DIR"        help:"Directory where octree files are saved and loaded."`
	LogLevel      string `cli:""        env:"SVON_LOG_LEVEL"       help:"Log level (debug|info|warning|error)."`
	LogIndent     bool   `cli:""        env:"SVON_LOG_INDENT"      help:"Indent logs."`
	Gzip          bool   `cli:""        env:"SVON_GZIP"            help:"Compress saved octree files."`
	MaxVoxelPower int    `cli:",hidden" env:"SVON_MAX_VOXEL_POWER" help:"Highest voxel power a build request may ask for."`
	Version       bool   `cli:""        env:"-"                    help:"Show version."`
	Help          bool   `cli:""        env:"-"                    help:"Show help."`
}

func main() {
	conf := config{
		Addr:          ":8080",
		AdminAddr:     ":18080",
		DataDir:       ".",
		LogLevel:      logs.InfoLevel.String(),
		Gzip:          true,
		MaxVoxelPower: 8,
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the sparse voxel octree server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	builder.UseGzip(conf.Gzip)

	s := newServer(conf.DataDir, conf.MaxVoxelPower)

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("data_dir", conf.DataDir).
		Info("starting svon server")

	listenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(s.handler(), metricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if conf.MaxVoxelPower <= 0 || conf.MaxVoxelPower > builder.MaxVoxelPower {
		return errors.New("invalid max voxel power").
			WithTag("max_voxel_power", conf.MaxVoxelPower).
			WithTag("limit", builder.MaxVoxelPower)
	}

	info, err := os.Stat(conf.DataDir)
	if err != nil {
		return errors.New("invalid data directory").Wrap(err)
	}
	if !info.IsDir() {
		return errors.New("data directory is not a directory").
			WithTag("data_dir", conf.DataDir)
	}
	return nil
}

func listenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				logs.Warn(errors.New("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("stopping server")

			default:
				logs.Warn(errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}(s)
	}

	wg.Wait()
}
