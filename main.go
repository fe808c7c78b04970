package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/config"
	"github.com/go-i2p/oslock/lib/lock"
	"github.com/go-i2p/oslock/lib/torture"
	"github.com/go-i2p/oslock/lib/util"
	"github.com/go-i2p/oslock/lib/util/logger"
	"github.com/go-i2p/oslock/lib/util/signals"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var log = logger.GetLogger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "oslock",
		Short:         "Exercise the oslock synchronization primitives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.InitConfig(); err != nil {
				return err
			}
			cfg := config.NewConfigFromViper()
			if err := config.Apply(cfg); err != nil {
				return err
			}
			return logger.ApplyConfiguredLevel(cfg.Log.Level)
		},
	}
	root.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default $HOME/.oslock/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	mustBind("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newTortureCmd(), newClockCmd(), newConfigCmd())
	return root
}

func newTortureCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "torture",
		Short: "Stress a primitive from many goroutines",
	}
	flags := cmd.PersistentFlags()
	flags.Int("workers", 0, "contending goroutines")
	flags.Duration("duration", 0, "length of the run")
	flags.Int("depth", 0, "reentrant depth for the monotonic lock")
	flags.Float64("rate", 0, "acquisitions per second, 0 for unlimited")
	flags.Duration("timeout", 0, "bound on each timed acquisition")
	flags.StringVar(&format, "format", "text", "report format: text or yaml")
	for _, name := range []string{"workers", "duration", "depth", "rate", "timeout"} {
		mustBind("torture."+name, flags.Lookup(name))
	}

	runWith := func(kind string, fn func(context.Context, torture.Options) (torture.Report, error)) *cobra.Command {
		return &cobra.Command{
			Use:   kind,
			Short: "Stress the " + kind,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := config.NewConfigFromViper()
				opts := torture.Options{
					Workers:  cfg.Torture.Workers,
					Duration: cfg.Torture.Duration,
					Depth:    cfg.Torture.Depth,
					Rate:     cfg.Torture.Rate,
					Timeout:  cfg.Torture.Timeout,
				}
				report, err := interruptible(func(ctx context.Context) (torture.Report, error) {
					return fn(ctx, opts)
				})
				if err != nil {
					return err
				}
				if err := printReport(cmd, report, format); err != nil {
					return err
				}
				if !report.OK() {
					return oops.In("torture").With("violations", report.Violations).Errorf("%s run failed", kind)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		runWith("mutex", func(ctx context.Context, opts torture.Options) (torture.Report, error) {
			m, err := lock.NewMutex()
			if err != nil {
				return torture.Report{}, err
			}
			util.RegisterCloser(m)
			return torture.RunMutex(ctx, m, opts)
		}),
		runWith("monotonic", func(ctx context.Context, opts torture.Options) (torture.Report, error) {
			l, err := lock.NewMonotonicLock()
			if err != nil {
				return torture.Report{}, err
			}
			util.RegisterCloser(l)
			return torture.RunMonotonic(ctx, l, opts)
		}),
		runWith("clock", func(ctx context.Context, opts torture.Options) (torture.Report, error) {
			return torture.RunClock(ctx, opts, clock.Default())
		}),
	)
	return cmd
}

// interruptible runs fn with a context that SIGINT/SIGTERM cancels, then closes every
// registered lock.
func interruptible(fn func(context.Context) (torture.Report, error)) (torture.Report, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopID := signals.RegisterStopHandler(signals.Handler(cancel))
	defer signals.Deregister(stopID)
	signals.Start()
	defer signals.StopHandle()

	report, err := fn(ctx)
	if cerr := util.CloseAll(); cerr != nil {
		log.WithError(cerr).Warn("closing locks failed")
	}
	return report, err
}

func printReport(cmd *cobra.Command, r torture.Report, format string) error {
	switch format {
	case "text":
		_, err := fmt.Fprint(cmd.OutOrStdout(), r.Text())
		return err
	case "yaml":
		out, err := r.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return oops.In("cli").Errorf("unknown format %q", format)
}

func newClockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Inspect the clocks",
	}
	var useNTP bool
	now := &cobra.Command{
		Use:   "now",
		Short: "Print the monotonic and realtime clocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfigFromViper()
			if useNTP {
				cfg.Clock.NTP.Enabled = true
			}
			src := cfg.Clock.ClockSource(nil)
			if ntpSrc, ok := src.(*clock.NTPSource); ok {
				if err := ntpSrc.Sync(); err != nil {
					return err
				}
				offset, _ := ntpSrc.Offset()
				fmt.Fprintf(cmd.OutOrStdout(), "ntp offset  %s\n", offset)
			}
			mono, err := src.MonotonicNow()
			if err != nil {
				return err
			}
			wall, err := src.RealtimeNow()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "monotonic   %s\n", mono)
			fmt.Fprintf(cmd.OutOrStdout(), "realtime    %s (%s)\n", wall,
				time.Unix(0, int64(wall.AsDuration())).UTC().Format(time.RFC3339Nano))
			return nil
		},
	}
	now.Flags().BoolVar(&useNTP, "ntp", false, "correct the realtime clock from NTP")
	cmd.AddCommand(now)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// Writing the file must not depend on reading it first.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.CfgFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = filepath.Join(config.BuildOslockDirPath(), "config.yaml")
			}
			if err := config.WriteDefaultConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		log.WithError(err).Fatalf("could not bind flag for %s", key)
	}
}
