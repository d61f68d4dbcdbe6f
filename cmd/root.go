/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allbin/go-serialchat"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialchat",
	Short: "Exchange text with a device over a serial port",
	Long: `serialchat opens a serial port and lets you exchange text with the
device on the other end, either interactively in a terminal UI or one
message at a time from scripts.

Examples:
  serialchat list --table
  serialchat connect /dev/ttyUSB0 --baud 9600
  serialchat send "AT" /dev/ttyUSB0 --newline

Settings can also come from $HOME/.config/serialchat/config.yaml or from
environment variables prefixed with SERIALCHAT_ (e.g. SERIALCHAT_DRIVER=bugst).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/serialchat/config.yaml)")
	rootCmd.PersistentFlags().String("driver", "native", "Serial driver: native, bugst, tarm")
	rootCmd.PersistentFlags().Duration("read-timeout", serial.DefaultReadTimeout, "Upper bound for a single blocking read")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file (default: no logging)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	for _, name := range []string{"driver", "read-timeout", "log-file", "log-level"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}

	viper.SetDefault("baud", 115200)
	viper.SetDefault("close-timeout", serial.DefaultCloseTimeout)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "serialchat"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("serialchat")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// newLogger builds the file logger configured by --log-file and --log-level.
// The terminal belongs to the UI, so nothing is ever logged to stdout or stderr.
func newLogger() (*zap.Logger, error) {
	path := viper.GetString("log-file")
	if path == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	return cfg.Build()
}

// newDriver returns the driver selected by --driver
func newDriver() (serial.Driver, error) {
	return serial.NewDriver(viper.GetString("driver"), viper.GetDuration("read-timeout"))
}

// newManager wires a connection manager from configuration
func newManager(opts ...serial.ManagerOption) (*serial.Manager, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	driver, err := newDriver()
	if err != nil {
		return nil, nil, err
	}

	opts = append([]serial.ManagerOption{
		serial.WithLogger(log.With(zap.String("driver", viper.GetString("driver")))),
		serial.WithCloseTimeout(viper.GetDuration("close-timeout")),
	}, opts...)

	mgr, err := serial.NewManager(driver, opts...)
	if err != nil {
		return nil, nil, err
	}
	return mgr, log, nil
}

// shutdown stops mgr, giving it a few seconds to release the port
func shutdown(mgr *serial.Manager, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := mgr.Shutdown(ctx); err != nil {
		log.Warn("Shutdown did not complete", zap.Error(err))
	}
	_ = log.Sync()
}

// baudRate returns --baud when set on cmd, else the configured default
func baudRate(cmd *cobra.Command) int {
	if f := cmd.Flags().Lookup("baud"); f != nil && f.Changed {
		baud, _ := cmd.Flags().GetInt("baud")
		return baud
	}
	return viper.GetInt("baud")
}
