package steamtime

import (
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Config holds how to reach the Steam time endpoint
type Config struct {
	Host    string        `default:"https://api.steampowered.com"`
	Timeout time.Duration `default:"10s"`
}

func configProvider() (Config, error) {
	var config Config
	err := envconfig.Process("steamtime", &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func clientProvider(config Config, httpClient *http.Client) ClientInterface {
	client := *httpClient
	if config.Timeout > 0 && (client.Timeout == 0 || config.Timeout < client.Timeout) {
		client.Timeout = config.Timeout
	}
	return NewSteamTimeClientBuilder().
		WithHost(config.Host).
		WithHTTPClient(&client).
		Build()
}

// Module provides a ClientInterface configured from the environment
var Module = fx.Options(
	fx.Provide(configProvider),
	fx.Provide(clientProvider),
)
