package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/steamguard/api"
	"github.com/tidepool-org/steamguard/clients/steamtime"
)

var defaultStopTimeout = 60 * time.Second

// InboundConfig describes how to receive inbound communication
type InboundConfig struct {
	Protocol      string `default:"http"`
	SslKeyFile    string `split_words:"true" default:""`
	SslCertFile   string `split_words:"true" default:""`
	ListenAddress string `split_words:"true" required:"true"`
}

func serviceConfigProvider() (InboundConfig, error) {
	var config InboundConfig
	err := envconfig.Process("service", &config)
	if err != nil {
		return InboundConfig{}, err
	}
	return config, nil
}

func httpClientProvider() *http.Client {
	return &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
}

func serverProvider(config InboundConfig, rtr *mux.Router) *http.Server {
	return &http.Server{
		Addr:              config.ListenAddress,
		Handler:           rtr,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loggerProvider() (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.EncoderConfig.FunctionKey = "function"
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// InvocationParams are the parameters need to kick off a service
type InvocationParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     InboundConfig
	Server     *http.Server
	Api        *api.Api
	Logger     *zap.SugaredLogger
}

// syncTimeOnStart measures the offset once before requests are served.
// A failed measurement is logged and the configured offset stays in use.
func syncTimeOnStart(p InvocationParams) {
	if !p.Api.Config.SyncOnStart {
		return
	}
	p.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if _, err := p.Api.Sync(ctx); err != nil {
					p.Logger.With(zap.Error(err)).Warn("unable to synchronize with Steam server time")
				}
				return nil
			},
		},
	)
}

func startServer(p InvocationParams) {
	p.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					var err error
					if p.Config.SslCertFile != "" && p.Config.SslKeyFile != "" {
						err = p.Server.ListenAndServeTLS(p.Config.SslCertFile, p.Config.SslKeyFile)
					} else {
						err = p.Server.ListenAndServe()
					}
					if err != nil && err != http.ErrServerClosed {
						p.Logger.With(zap.Error(err)).Error("server error, shutting down the service")
						if shutdownErr := p.Shutdowner.Shutdown(); shutdownErr != nil {
							p.Logger.With(zap.Error(shutdownErr)).Error("failed to shutdown")
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return p.Server.Shutdown(ctx)
			},
		},
	)
}

func main() {
	fx.New(
		api.RouterModule,
		steamtime.Module,
		fx.Provide(
			serviceConfigProvider,
			httpClientProvider,
			serverProvider,
			loggerProvider,
		),
		fx.Invoke(syncTimeOnStart),
		fx.Invoke(startServer),
		fx.StopTimeout(defaultStopTimeout),
	).Run()
}
