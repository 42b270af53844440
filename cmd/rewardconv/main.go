// Command rewardconv merges a one_day_reward markup file with its flat-text
// localization overlay and writes the result in either or both formats.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/unrealsaint/lucera2missionparser/catalog"
	"github.com/unrealsaint/lucera2missionparser/config"
	"github.com/unrealsaint/lucera2missionparser/logging"
	"github.com/unrealsaint/lucera2missionparser/reward"
	"go.uber.org/zap"
)

type options struct {
	XML     string `mapstructure:"xml"`
	Text    string `mapstructure:"text"`
	OutXML  string `mapstructure:"out-xml"`
	OutText string `mapstructure:"out-text"`
	Debug   bool   `mapstructure:"debug"`
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(opts.Debug, config.LogConfig{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(opts, logger); err != nil {
		logger.Error("rewardconv failed", zap.Error(err), zap.String("kind", reward.Kind(err)))
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	fs := pflag.NewFlagSet("rewardconv", pflag.ContinueOnError)
	fs.String("xml", "", "one_day_reward markup file to load (required)")
	fs.String("text", "", "flat-text overlay applied after the markup")
	fs.String("out-xml", "", "write the merged catalog as markup")
	fs.String("out-text", "", "write the merged catalog as flat text")
	fs.Bool("debug", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("rewardconv")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, err
	}
	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return options{}, err
	}
	if opts.XML == "" {
		return options{}, errors.New("rewardconv: --xml is required")
	}
	return opts, nil
}

func run(opts options, logger *zap.Logger) error {
	cat, err := catalog.LoadMarkup(opts.XML)
	if err != nil {
		return err
	}
	logger.Info("markup loaded", zap.String("path", opts.XML), zap.Int("rewards", cat.Len()))

	if opts.Text != "" {
		res, err := cat.LoadFlatTextFile(opts.Text)
		if err != nil {
			return err
		}
		logger.Info("flat-text overlay applied",
			zap.String("path", opts.Text),
			zap.Int("applied", len(res.Applied)),
			zap.Int("skipped", len(res.Skipped)))
		if len(res.Skipped) > 0 {
			logger.Debug("overlay ids without markup record", zap.Ints("ids", res.Skipped))
		}
	}

	if opts.OutXML != "" {
		if err := cat.SaveMarkupFile(opts.OutXML); err != nil {
			return err
		}
		logger.Info("markup written", zap.String("path", opts.OutXML), zap.Int("rewards", cat.Len()))
	}
	if opts.OutText != "" {
		if err := cat.SaveFlatTextFile(opts.OutText); err != nil {
			return err
		}
		logger.Info("flat text written", zap.String("path", opts.OutText), zap.Int("rewards", cat.Len()))
	}
	return nil
}
