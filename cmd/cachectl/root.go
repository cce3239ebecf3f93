package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/cachekit"
	zaplog "github.com/unkn0wn-root/cachekit/log/zap"
	"github.com/unkn0wn-root/cachekit/provider"
)

type app struct {
	v          *viper.Viper
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Inspect and modify a cachekit backed cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file with cache options")
	root.PersistentFlags().String("provider", "", "provider name, overrides default_provider")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	_ = a.v.BindPFlag("default_provider", root.PersistentFlags().Lookup("provider"))

	root.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.incrCmd(),
		a.delCmd(),
		a.expireCmd(),
		a.sweepCmd(),
		a.ddlCmd(),
	)
	return root
}

func (a *app) options() (cachekit.CacheOptions, error) {
	return loadOptions(a.v, a.configFile)
}

func (a *app) logger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(a.logLevel)
	if err != nil {
		return nil, cachekit.InvalidArgument("log level %q: %v", a.logLevel, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	return cfg.Build()
}

// withCache opens the configured provider, runs fn and closes it again.
func (a *app) withCache(ctx context.Context, fn func(cachekit.Cache) error) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	zl, err := a.logger()
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	c, err := provider.Open(ctx, opts, provider.WithLogger(zaplog.New(zl)))
	if err != nil {
		return errors.Wrap(err, "open cache")
	}
	defer func() { _ = c.Close(ctx) }()
	return fn(c)
}
