// Command elogctl is a companion tool for servers using elog. It masks
// secrets in SQL text the way the server log does and reassembles the
// chunked stream written to the log collector pipe.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/secureworks/elog"
)

var log = logrus.New()

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "elogctl",
		Short:         "Server log companion tool",
		Long:          "elogctl - mask SQL secrets and collect chunked server log output",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to an elog YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warning", "Level of elogctl's own diagnostics")

	cmd.AddCommand(newMaskCmd(opts), newCollectCmd(opts))
	return cmd
}

// loadConfig reads the file named by --config, or returns the defaults.
func (o *rootOptions) loadConfig() (*elog.Config, error) {
	if o.configPath == "" {
		return elog.DefaultConfig(), nil
	}
	f, err := os.Open(o.configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := elog.LoadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.configPath, err)
	}
	log.WithField("file", o.configPath).Debug("Loaded configuration")
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("elogctl failed")
		os.Exit(1)
	}
}
