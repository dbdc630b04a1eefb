package main

import (
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"go.uber.org/fx/fxtest"

	"github.com/tidepool-org/steamguard/api"
	"github.com/tidepool-org/steamguard/clients/steamtime"
	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/testutil"
)

func TestServiceConfigProvider(t *testing.T) {
	t.Setenv("SERVICE_LISTEN_ADDRESS", ":9160")
	t.Setenv("SERVICE_SSL_CERT_FILE", "/etc/cert.pem")

	config, err := serviceConfigProvider()
	if err != nil {
		t.Fatal(err)
	}
	if config.ListenAddress != ":9160" || config.SslCertFile != "/etc/cert.pem" || config.Protocol != "http" {
		t.Errorf("unexpected config %+v", config)
	}
}

func TestServiceConfigProviderRequiresListenAddress(t *testing.T) {
	// the required check looks at presence, so the variable is removed rather than emptied
	t.Setenv("SERVICE_LISTEN_ADDRESS", "")
	os.Unsetenv("SERVICE_LISTEN_ADDRESS")
	if _, err := serviceConfigProvider(); err == nil {
		t.Error("a missing listen address should be rejected")
	}
}

func TestSyncTimeOnStart(t *testing.T) {
	tests := []struct {
		desc     string
		sync     bool
		result   *models.TimeOffset
		err      error
		expected int64
	}{
		{desc: "disabled", sync: false, expected: 4},
		{desc: "measured", sync: true, result: &models.TimeOffset{Offset: -2, Latency: 40}, expected: -2},
		{desc: "failed measurement keeps the configured offset", sync: true, err: errors.Wrap(steamtime.ErrTimeSyncFailed, "down"), expected: 4},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			timeSync := steamtime.NewMockClientInterface(gomock.NewController(t))
			if test.sync {
				timeSync.EXPECT().QueryOffset(gomock.Any()).Return(test.result, test.err)
			}
			logger := testutil.NewLogger(t)
			a := api.NewApi(api.Config{TimeOffset: 4, SyncOnStart: test.sync}, timeSync, logger)

			lc := fxtest.NewLifecycle(t)
			syncTimeOnStart(InvocationParams{Lifecycle: lc, Api: a, Logger: logger})
			lc.RequireStart().RequireStop()

			if got := a.TimeOffset().Offset; got != test.expected {
				t.Errorf("offset is %d, expected %d", got, test.expected)
			}
		})
	}
}
