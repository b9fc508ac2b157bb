package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramify-app/ramify/internal/profile"
	"github.com/ramify-app/ramify/server"
	"github.com/ramify-app/ramify/store"
	"github.com/ramify-app/ramify/store/db"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "ramify",
	Short: "A local engine for AI-assisted mind-map conversations",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			Version: version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		setupLogger(instanceProfile)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		driver, err := db.NewDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create storage driver", slog.String("error", err.Error()))
			os.Exit(1)
		}
		storeInstance := store.New(driver, instanceProfile)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", slog.String("error", err.Error()))
			os.Exit(1)
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)
		if err := s.Start(ctx); err != nil {
			slog.Error("server failed", slog.String("error", err.Error()))
			cancel()
		}
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "127.0.0.1")
	viper.SetDefault("port", 5966)
	viper.SetDefault("driver", "jsonfile")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the engine, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "127.0.0.1", "binding address for the API server")
	rootCmd.PersistentFlags().Int("port", 5966, "binding port for the API server")
	rootCmd.PersistentFlags().String("data", "", "data directory for boards and settings")
	rootCmd.PersistentFlags().String("driver", "jsonfile", "storage driver")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("ramify")
	viper.AutomaticEnv()
}

// setupLogger picks the process-wide slog handler: readable text while
// developing, JSON lines for the shell to collect in prod.
func setupLogger(instanceProfile *profile.Profile) {
	var handler slog.Handler
	if instanceProfile.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Printf("ramify %s started in %s mode\n", instanceProfile.Version, instanceProfile.Mode)
	fmt.Printf("listening on %s:%d, data in %s\n", instanceProfile.Addr, instanceProfile.Port, instanceProfile.Data)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
