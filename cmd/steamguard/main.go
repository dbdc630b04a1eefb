package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tidepool-org/steamguard/clients/steamtime"
	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/utils/otp"
)

// refreshInterval is how often watch reprints the code
var refreshInterval = time.Second

// cli carries what every subcommand needs once flags and environment are read
type cli struct {
	v      *viper.Viper
	logger *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "steamguard",
		Short:         "Steam Guard codes and confirmation keys",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initConfig(cfgFile); err != nil {
				return err
			}
			logger, err := loggerProvider(c.v.GetBool("verbose"))
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().String("secret", "", "shared or identity secret, base64 or 40 hex characters")
	cmd.PersistentFlags().Int64("offset", 0, "seconds to add to the local clock")
	cmd.PersistentFlags().Bool("sync", false, "measure the offset against Steam first")
	cmd.PersistentFlags().String("host", steamtime.DefaultHost, "Steam Web API host")
	cmd.PersistentFlags().Duration("timeout", 10*time.Second, "time sync request timeout")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	for _, name := range []string{"secret", "offset", "sync", "host", "timeout", "verbose"} {
		c.v.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}

	cmd.AddCommand(
		c.codeCmd(),
		c.watchCmd(),
		c.confirmCmd(),
		c.timeCmd(),
		c.deviceCmd(),
	)
	return cmd
}

func (c *cli) initConfig(cfgFile string) error {
	if cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", cfgFile)
		}
	}
	c.v.SetEnvPrefix("STEAMGUARD")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
	return nil
}

func loggerProvider(verbose bool) (*zap.SugaredLogger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func (c *cli) timeSyncClient() steamtime.ClientInterface {
	return steamtime.NewSteamTimeClientBuilder().
		WithHost(c.v.GetString("host")).
		WithHTTPClient(&http.Client{Timeout: c.v.GetDuration("timeout")}).
		WithClock(otp.Now).
		Build()
}

func (c *cli) queryOffset(ctx context.Context) (*models.TimeOffset, error) {
	offset, err := c.timeSyncClient().QueryOffset(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.With(zap.Int64("offset", offset.Offset), zap.Int64("latency", offset.Latency)).
		Debug("synchronized with Steam server time")
	return offset, nil
}

// offset returns the configured offset, or a fresh measurement when --sync is set
func (c *cli) offset(ctx context.Context) (int64, error) {
	if !c.v.GetBool("sync") {
		return c.v.GetInt64("offset"), nil
	}
	offset, err := c.queryOffset(ctx)
	if err != nil {
		return 0, err
	}
	return offset.Offset, nil
}

func (c *cli) secret() (otp.Secret, error) {
	secret := c.v.GetString("secret")
	if secret == "" {
		return nil, errors.New("a secret is required, use --secret or STEAMGUARD_SECRET")
	}
	return otp.ParseSecret(secret), nil
}

func (c *cli) codeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "code",
		Short: "Print the current Steam Guard code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := c.secret()
			if err != nil {
				return err
			}
			offset, err := c.offset(cmd.Context())
			if err != nil {
				return err
			}
			code, err := otp.NewAuthCode(secret, otp.Time(offset))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%ds)\n", code.Code, code.ExpiresIn)
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint the Steam Guard code every second until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := c.secret()
			if err != nil {
				return err
			}
			// fail on a bad secret before entering the loop
			if _, err := otp.Normalize(secret); err != nil {
				return err
			}
			ctx := cmd.Context()
			offset, err := c.offset(ctx)
			if err != nil {
				return err
			}

			count := c.v.GetInt("watch.count")
			ticker := time.NewTicker(refreshInterval)
			defer ticker.Stop()
			for printed := 0; count == 0 || printed < count; printed++ {
				if printed > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
				code, err := otp.NewAuthCode(secret, otp.Time(offset))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%ds)\n", code.Code, code.ExpiresIn)
			}
			return nil
		},
	}
	cmd.Flags().Int("count", 0, "stop after printing this many codes, 0 runs until interrupted")
	c.v.BindPFlag("watch.count", cmd.Flags().Lookup("count"))
	return cmd
}

func (c *cli) confirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Print the confirmation key for a mobile confirmation request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := c.secret()
			if err != nil {
				return err
			}
			var timestamp int64
			if c.v.IsSet("confirm.time") {
				timestamp = c.v.GetInt64("confirm.time")
			} else {
				offset, err := c.offset(cmd.Context())
				if err != nil {
					return err
				}
				timestamp = otp.Time(offset)
			}
			key, err := otp.ConfirmationKey(secret, timestamp, c.v.GetString("confirm.tag"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", key, timestamp)
			return nil
		},
	}
	cmd.Flags().Int64("time", 0, "unix time to sign, defaults to now")
	cmd.Flags().String("tag", otp.TagConf, "confirmation tag (conf, details, allow, cancel)")
	c.v.BindPFlag("confirm.time", cmd.Flags().Lookup("time"))
	c.v.BindPFlag("confirm.tag", cmd.Flags().Lookup("tag"))
	return cmd
}

func (c *cli) timeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Measure the local clock offset against Steam",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := c.queryOffset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "offset: %ds latency: %s\n", offset.Offset, offset.LatencyDuration())
			return nil
		},
	}
}

func (c *cli) deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Print the mobile device id of a SteamID64",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.DeviceIDRequest{SteamID: c.v.GetString("device.steamid")}
			if err := req.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), otp.DeviceID(req.SteamID))
			return nil
		},
	}
	cmd.Flags().String("steamid", "", "SteamID64 of the account")
	c.v.BindPFlag("device.steamid", cmd.Flags().Lookup("steamid"))
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
