// Command-line client for moving disk images between local files and a
// hypervisor datastore. Command structure follows the standard cobra
// template, see https://github.com/spf13/cobra
package main

import (
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"datastore-transfer/pkg/transferio"
)

var (
	cfgFile string
	cfg     *viper.Viper
	appLog  = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "dstransfer",
	Short: "Stream disk images to and from a hypervisor datastore",
	Long: `dstransfer uploads and downloads virtual-disk images over the datastore
HTTP file interface, streaming content without buffering it in memory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = viper.New()
		cfg.SetDefault("log-level", "info")
		cfg.SetDefault("datastore.scheme", "https")
		cfg.BindEnv("datastore.host", "DATASTORE_HOST")
		cfg.BindEnv("cookie.name", "DATASTORE_COOKIE_NAME")
		cfg.BindEnv("cookie.value", "DATASTORE_COOKIE_VALUE")
		cfg.BindPFlags(cmd.Flags())
		if cfgFile != "" {
			cfg.SetConfigFile(cfgFile)
			if err := cfg.ReadInConfig(); err != nil {
				return errors.Wrap(err, "reading config file")
			}
		}
		if level, err := logrus.ParseLevel(cfg.GetString("log-level")); err == nil {
			appLog.SetLevel(level)
		}
		return nil
	},
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// datastoreConn assembles the shared connection parameters from config.
// The file path is filled in per command.
func datastoreConn() (transferio.DatastoreParams, error) {
	params := transferio.DatastoreParams{
		Host:       cfg.GetString("datastore.host"),
		Datacenter: cfg.GetString("datastore.datacenter"),
		Datastore:  cfg.GetString("datastore.name"),
		Scheme:     cfg.GetString("datastore.scheme"),
	}
	if params.Host == "" {
		return params, errors.New("datastore.host is required (flag, config file, or DATASTORE_HOST)")
	}
	if name := cfg.GetString("cookie.name"); name != "" {
		params.Cookies = []*http.Cookie{{Name: name, Value: cfg.GetString("cookie.value")}}
	}
	return params, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml/json/toml)")
	rootCmd.PersistentFlags().String("datastore.host", "", "datastore host (IPv4, IPv6, or name)")
	rootCmd.PersistentFlags().String("datastore.scheme", "https", "URL scheme (http or https)")
	rootCmd.PersistentFlags().String("datastore.datacenter", "", "datacenter name")
	rootCmd.PersistentFlags().String("datastore.name", "", "datastore name")
	rootCmd.PersistentFlags().String("cookie.name", "", "session cookie name")
	rootCmd.PersistentFlags().String("cookie.value", "", "session cookie value")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}
