package cmd

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/hashicorp/hcl"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	tardisCmd = &cobra.Command{
		Use:               "tardis",
		Short:             "A branch-versioned database engine",
		Long:              "Tardis is a relational database engine with first-class branch-versioned data.",
		PersistentPreRunE: tardisPreRun,
		PersistentPostRun: tardisPostRun,
	}

	logFile   = "tardis.log"
	logLevel  = "info"
	logStderr = false
	logWriter io.WriteCloser

	configFile = "tardis.hcl"
	noConfig   = false

	cfgVars = map[string]*pflag.Flag{}
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	fs := tardisCmd.PersistentFlags()

	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging")
	cfgVars["log-file"] = fs.Lookup("log-file")

	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	cfgVars["log-level"] = fs.Lookup("log-level")

	fs.BoolVar(&logStderr, "log-stderr", logStderr, "log to standard error")
	cfgVars["log-stderr"] = fs.Lookup("log-stderr")

	fs.StringVar(&configFile, "config", configFile, "config `file`")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't use a config file")
}

func readConfig() error {
	if noConfig {
		return nil
	}
	buf, err := ioutil.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	var cfg map[string]interface{}
	if err := hcl.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("%s: %s", configFile, err)
	}

	for name, value := range cfg {
		flg, ok := cfgVars[name]
		if !ok {
			return fmt.Errorf("%s: unknown config variable: %s", configFile, name)
		}
		if flg.Changed {
			continue // command line wins
		}
		if err := flg.Value.Set(fmt.Sprintf("%v", value)); err != nil {
			return fmt.Errorf("%s: %s: %s", configFile, name, err)
		}
	}
	return nil
}

func tardisPreRun(cmd *cobra.Command, args []string) error {
	if err := readConfig(); err != nil {
		return err
	}

	if !logStderr {
		w, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return err
		}
		logWriter = w
		log.SetOutput(w)
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(ll)
	return nil
}

func tardisPostRun(cmd *cobra.Command, args []string) {
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

func Execute() {
	if err := tardisCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tardis: %s\n", err)
		os.Exit(1)
	}
}
