package main

import (
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/cadencehq/beacon/pkg/internal"
	"github.com/cadencehq/beacon/pkg/internal/cache"
	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/grpc"
	"github.com/cadencehq/beacon/pkg/internal/http"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/cadencehq/beacon/pkg/internal/transport"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	viper.SetDefault("presence.staleness_threshold", 300)
	viper.SetDefault("calls.ring_timeout", 40)
	viper.SetDefault("tracker.retention", 60)
	viper.SetDefault("channels.gc_grace", 600)

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewCache(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	// Connect the pub/sub transport
	out, err := transport.NewNats(viper.GetString("transport.nats_uri"))
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to transport.")
	}
	services.Setup(out)

	// Server
	http.NewServer()
	go http.Listen()

	srv := grpc.NewGrpc()
	go func() {
		if err := srv.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting grpc server...")
		}
	}()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 1m", services.Sessions.FlushLastSeen)
	quartz.AddFunc("@every 1m", services.Statuses.FlushReadReceipts)
	quartz.AddFunc("@every 1m", services.DoSignalingSweep)
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.Start()

	log.Info().Msgf("Beacon v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Beacon v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
	out.Close()
}
