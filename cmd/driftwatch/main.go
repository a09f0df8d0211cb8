package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/fingerprint"
	"github.com/driftwatch/driftwatch/internal/monitor"
	"github.com/driftwatch/driftwatch/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	yellow = color.New(color.FgHiYellow, color.Bold).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "driftwatch [paths...]",
	Short:   "Detect filesystem content and metadata drift",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			Path:        viper.ConfigFileUsed(),
			Algorithm:   viper.GetString("algorithm"),
			FollowLinks: viper.GetBool("follow_links"),
			JournalPath: viper.GetString("journal_path"),
			Roots:       viper.GetStringSlice("roots"),
			Workers:     viper.GetInt("workers"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			paths = cfg.Roots
		}
		if len(paths) == 0 {
			return fmt.Errorf("no paths given and no roots configured")
		}

		cmd.SilenceUsage = true

		algo, err := fingerprint.ParseAlgorithm(cfg.Algorithm)
		if err != nil {
			return err
		}
		policy := monitor.NoFollowLinks
		if cfg.FollowLinks {
			policy = monitor.FollowLinks
		}

		journal, err := monitor.NewJournal(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer journal.Close()

		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			return runWatch(cmd.Context(), paths[0], algo, policy, journal)
		}
		return runSweep(cmd.Context(), paths, algo, policy, journal, cfg.Workers)
	},
}

func runSweep(ctx context.Context, paths []string, algo fingerprint.Algorithm, policy monitor.LinkPolicy, store monitor.Store, workers int) error {
	changes, err := monitor.Sweep(ctx, paths, algo, policy, store, workers)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Println(green("no drift detected"))
		return nil
	}
	for _, change := range changes {
		fmt.Printf("%s %s: %s\n", yellow("drift"), cyan(change.Path), change.Description)
	}
	return nil
}

func runWatch(ctx context.Context, root string, algo fingerprint.Algorithm, policy monitor.LinkPolicy, store monitor.Store) error {
	watcher := monitor.NewWatcher(root, algo, policy, store)

	go func() {
		for change := range watcher.Changes() {
			fmt.Printf("%s %s: %s\n", yellow("drift"), cyan(change.Path), change.Description)
		}
	}()

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("algorithm", "a", string(fingerprint.MD5), "Fingerprint algorithm (md5, md5lite, mtime, ctime)")
	rootCmd.Flags().Bool("follow-links", false, "Follow symbolic links when observing objects")
	rootCmd.Flags().String("journal", config.DefaultJournal, "Path of the fingerprint journal database")
	rootCmd.Flags().IntP("workers", "w", 4, "Concurrent object evaluations during a sweep")
	rootCmd.Flags().Bool("watch", false, "Watch the first path for changes instead of a one-shot sweep")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "driftwatch config file")
}

func main() {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".driftwatch"))
		viper.AddConfigPath(filepath.Join(home, ".config/driftwatch"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetDefault("algorithm", string(fingerprint.MD5))
	viper.SetDefault("journal_path", config.DefaultJournal)
	viper.SetDefault("workers", 4)

	viper.BindPFlag("algorithm", cmd.Flags().Lookup("algorithm"))
	viper.BindPFlag("follow_links", cmd.Flags().Lookup("follow-links"))
	viper.BindPFlag("journal_path", cmd.Flags().Lookup("journal"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	return nil
}
