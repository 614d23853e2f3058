package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/aibridge"
	"github.com/Fize/vbrpg-sub001/internal/archive"
	"github.com/Fize/vbrpg-sub001/internal/config"
	"github.com/Fize/vbrpg-sub001/internal/game/roundrobin"
	"github.com/Fize/vbrpg-sub001/internal/gateway"
	"github.com/Fize/vbrpg-sub001/internal/logging"
	"github.com/Fize/vbrpg-sub001/internal/room"
	"github.com/Fize/vbrpg-sub001/internal/session"
	httptransport "github.com/Fize/vbrpg-sub001/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	appCfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(appCfg.Log)
	cfg := appCfg.Server

	var arch *archive.Store
	if cfg.PostgresDSN != "" {
		arch, err = archive.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("archive init failed")
		}
		if err := arch.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
		if err := arch.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ensure schema failed")
		}
		defer arch.Close()
	} else {
		log.Warn().Msg("no POSTGRES_DSN, completed rooms are not archived")
	}

	decider, cleanup := newDecider(cfg)
	defer cleanup()

	coord := session.NewCoordinator(session.Config{
		Bounds:            room.Bounds{MinSeats: cfg.MinSeatsAllowed, MaxSeats: cfg.MaxSeatsAllowed},
		TurnTimeout:       time.Duration(cfg.TurnTimeoutSecs) * time.Second,
		AIDecisionTimeout: time.Duration(cfg.AIDecisionTimeoutSecs) * time.Second,
		ReconnectGrace:    time.Duration(cfg.ReconnectGraceSecs) * time.Second,
		AIOutageLimit:     time.Duration(cfg.AIOutageLimitSecs) * time.Second,
		AIProbeInterval:   time.Duration(cfg.AIProbeIntervalSecs) * time.Second,
		AIProfiles:        cfg.AIProfiles,
	}, decider, archiverOrNil(arch))
	coord.RegisterTitle("roundrobin", roundrobin.New(3))
	coord.StartJanitor(context.Background())

	gw := gateway.New(coord)
	coord.SetBroadcaster(gw)

	r := httptransport.NewRouter(coord, gw, arch, cfg)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

// newDecider picks the decision transport: NATS request/reply when a NATS
// URL is configured, HTTP when a decision URL is, otherwise the built-in
// pass fallback.
func newDecider(cfg config.ServerConfig) (aibridge.Decider, func()) {
	if cfg.NATSURL != "" {
		nd, err := aibridge.NewNATSDecider(cfg.NATSURL, cfg.NATSDecideSubject)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect failed")
		}
		log.Info().Str("url", cfg.NATSURL).Str("subject", cfg.NATSDecideSubject).Msg("nats decider enabled")
		return aibridge.New(nd), nd.Close
	}
	if cfg.DecisionURL != "" {
		log.Info().Str("url", cfg.DecisionURL).Msg("http decider enabled")
		return aibridge.New(aibridge.NewHTTPDecider(cfg.DecisionURL)), func() {}
	}
	log.Warn().Msg("no decision service configured, AI seats always pass")
	return aibridge.New(aibridge.PassDecider{}), func() {}
}

// archiverOrNil keeps the coordinator's nil check honest: a typed nil
// pointer inside a non-nil interface would defeat it.
func archiverOrNil(arch *archive.Store) session.Archiver {
	if arch == nil {
		return nil
	}
	return arch
}
