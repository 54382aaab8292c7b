package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/recall/internal/profile"
	"github.com/hrygo/recall/internal/version"
	"github.com/hrygo/recall/recommend"
	"github.com/hrygo/recall/recommend/cache"
	"github.com/hrygo/recall/recommend/embedding"
	"github.com/hrygo/recall/recommend/explain"
	"github.com/hrygo/recall/recommend/metrics"
	"github.com/hrygo/recall/server"
	"github.com/hrygo/recall/store"
	"github.com/hrygo/recall/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: `A vector similarity recommendation service. Rank a product catalog against customer and query embeddings, with a curated fallback set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Systemd services get environment from their unit file instead.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile, err := newProfile()
		if err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			cancel()
			slog.Error("failed to migrate", "error", err)
			return
		}

		engine, exporter, err := newEngine(instanceProfile, storeInstance)
		if err != nil {
			cancel()
			slog.Error("failed to create recommendation engine", "error", err)
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, engine, exporter)
		if err != nil {
			cancel()
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful shutdown signal used by most process
		// managers, e.g. systemd and Kubernetes.
		signal.Notify(c, terminationSignals...)

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		if err := s.Start(ctx); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start server", "error", err)
				cancel()
			}
		}

		<-ctx.Done()
	},
}

// newProfile builds the instance profile from flags and environment.
func newProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:     viper.GetString("mode"),
		Addr:     viper.GetString("addr"),
		Port:     viper.GetInt("port"),
		UNIXSock: viper.GetString("unix-sock"),
		Data:     viper.GetString("data"),
		Driver:   viper.GetString("driver"),
		DSN:      viper.GetString("dsn"),
		Version:  version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// newEngine assembles the recommendation engine with whatever optional
// providers the profile enables. A missing embedding provider is fine; the
// engine degrades existing-customer requests to stored embeddings and new
// customer requests to the fallback set.
func newEngine(instanceProfile *profile.Profile, storeInstance *store.Store) (*recommend.Engine, *metrics.Exporter, error) {
	resultCache := cache.New()
	exporter := metrics.NewExporter(resultCache)

	opts := []recommend.EngineOption{
		recommend.WithMetrics(exporter),
	}

	if instanceProfile.IsEmbeddingEnabled() {
		embedder, err := embedding.NewService(&embedding.Config{
			APIKey:     instanceProfile.EmbeddingAPIKey,
			BaseURL:    instanceProfile.EmbeddingBaseURL,
			Model:      instanceProfile.EmbeddingModel,
			Dimensions: instanceProfile.EmbeddingDimensions,
		})
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, recommend.WithEmbeddingService(embedder))
	} else {
		slog.Warn("no embedding provider configured, new-customer and query requests will serve the fallback set")
	}

	if instanceProfile.IsExplanationEnabled() {
		explainer, err := explain.NewService(&explain.Config{
			APIKey:  instanceProfile.LLMAPIKey,
			BaseURL: instanceProfile.LLMBaseURL,
			Model:   instanceProfile.LLMModel,
			Timeout: time.Duration(instanceProfile.LLMTimeout) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, recommend.WithExplanationService(explainer))
	}

	cfg := recommend.NewConfigFromProfile(instanceProfile)
	engine := recommend.NewEngine(cfg, store.NewDataSource(storeInstance), resultCache, opts...)
	return engine, exporter, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			full, _ := cmd.Flags().GetBool("full")
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			}
			if min, _ := cmd.Flags().GetString("min"); min != "" {
				if !version.IsVersionGreaterOrEqualThan(version.Version, min) {
					return fmt.Errorf("build %s is older than required %s", version.Version, min)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("full", false, "include commit hash and build time")
	cmd.Flags().String("min", "", "exit non-zero unless the build is at least this version")
	return cmd
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("unix-sock", "", "path to the unix socket, overrides --addr and --port")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "unix-sock", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("recall")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSeedCmd())
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Recall %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.UNIXSock) == 0 {
		if len(profile.Addr) == 0 {
			fmt.Printf("Server running on port %d\n", profile.Port)
		} else {
			fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		}
	} else {
		fmt.Printf("Server running on unix socket: %s\n", profile.UNIXSock)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
