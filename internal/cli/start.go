package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tinkeringguild/logquest-go/internal/api"
	"github.com/tinkeringguild/logquest-go/internal/audioarchive"
	"github.com/tinkeringguild/logquest-go/internal/config"
	"github.com/tinkeringguild/logquest-go/internal/effects"
	"github.com/tinkeringguild/logquest-go/internal/eventlog"
	"github.com/tinkeringguild/logquest-go/internal/logs"
	"github.com/tinkeringguild/logquest-go/internal/metrics"
	"github.com/tinkeringguild/logquest-go/internal/mqttpublish"
	"github.com/tinkeringguild/logquest-go/internal/reactor"
	"github.com/tinkeringguild/logquest-go/internal/security"
	"github.com/tinkeringguild/logquest-go/internal/sinks"
	"github.com/tinkeringguild/logquest-go/internal/store"
	"github.com/tinkeringguild/logquest-go/internal/timers"
)

// Version is the build identifier reported by /healthz.
const Version = "0.1.0"

// StartCmd runs the reactor against a directory of EverQuest log files: it
// loads the persisted trigger index and config, wires every optional
// collaborator the environment enables, and blocks until shutdown is
// requested or a collaborator fails to start.
type StartCmd struct {
	EnvFile       string `help:"Path to a .env file." default:".env"`
	LogsDir       string `help:"Directory containing eqlog_*.txt files, overrides LOGQUEST_LOGS_DIR."`
	ConfigDir     string `help:"Directory holding LogQuest.toml/Triggers.json, overrides LOGQUEST_CONFIG_DIR."`
	HTTPAddr      string `help:"Introspection HTTP listen address, overrides HTTP_ADDR."`
	LogLevel      string `help:"Overrides LOG_LEVEL."`
	DatabaseURL   string `help:"Overrides DATABASE_URL."`
	MQTTBrokerURL string `help:"Overrides MQTT_BROKER_URL."`
}

func (c *StartCmd) Run(g *Globals) error {
	cfg, err := config.Load(config.Overrides{
		EnvFile:       c.EnvFile,
		LogsDir:       c.LogsDir,
		ConfigDir:     c.ConfigDir,
		HTTPAddr:      c.HTTPAddr,
		LogLevel:      c.LogLevel,
		DatabaseURL:   c.DatabaseURL,
		MQTTBrokerURL: c.MQTTBrokerURL,
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := g.Log.Level(level)
	ctx := g.Shutdown.Context()
	startTime := time.Now()

	triggersPath := filepath.Join(cfg.ConfigDir, "Triggers.json")
	persistedCfgPath := filepath.Join(cfg.ConfigDir, "LogQuest.toml")

	signer := security.New(log)
	if !signer.IsAvailable() {
		log.Warn().Msg("no machine id available; imported system commands will require re-approval")
	}

	idx, unapproved, err := store.LoadTriggers(triggersPath, signer)
	if err != nil {
		return fmt.Errorf("loading %s: %w", triggersPath, err)
	}
	for _, u := range unapproved {
		log.Warn().Str("trigger_id", u.TriggerID).Str("effect_id", u.EffectID).
			Msg("command effect downgraded: signature missing or invalid")
	}
	if _, err := store.LoadConfig(persistedCfgPath); err != nil {
		return fmt.Errorf("loading %s: %w", persistedCfgPath, err)
	}

	pipeline, err := logs.NewPipeline(ctx, cfg.LogsDir, log)
	if err != nil {
		return fmt.Errorf("starting log pipeline: %w", err)
	}
	pipeline.Start()
	defer pipeline.Stop()

	timerMgr := timers.New(ctx)

	var healthChecks []api.HealthCheck

	var eventSink *eventlog.Sink
	if cfg.DatabaseURL != "" {
		db, err := eventlog.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("connecting to event log database: %w", err)
		}
		defer db.Close()
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("initializing event log schema: %w", err)
		}
		eventSink = eventlog.NewSink(db, 1024, log)
		eventSink.Start(4)
		defer eventSink.Stop()
		healthChecks = append(healthChecks, api.HealthCheck{Name: "eventlog", Check: func() error {
			return db.HealthCheck(ctx)
		}})
	}

	var publisher *mqttpublish.Publisher
	if cfg.MQTTBrokerURL != "" {
		publisher, err = mqttpublish.Connect(mqttpublish.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       log,
		})
		if err != nil {
			return fmt.Errorf("connecting to mqtt broker: %w", err)
		}
		defer publisher.Close()
		healthChecks = append(healthChecks, api.HealthCheck{Name: "mqttpublish", Check: func() error {
			if !publisher.IsConnected() {
				return fmt.Errorf("not connected")
			}
			return nil
		}})
	}

	var resolver *audioarchive.Resolver
	if cfg.S3Bucket != "" {
		archive, err := audioarchive.New(ctx, audioarchive.Options{
			Bucket: cfg.S3Bucket,
			Region: cfg.S3Region,
			Log:    log,
		})
		if err != nil {
			return fmt.Errorf("connecting to audio archive: %w", err)
		}
		resolver = audioarchive.NewResolver(cfg.SoundPackDir, filepath.Join(os.TempDir(), "logquest-audio-cache"), archive)
		healthChecks = append(healthChecks, api.HealthCheck{Name: "audioarchive", Check: func() error {
			return archive.HeadBucket(ctx)
		}})
	} else {
		resolver = audioarchive.NewResolver(cfg.SoundPackDir, "", nil)
	}

	var overlayPub sinks.OverlayPublisher
	if publisher != nil {
		overlayPub = publisher
	}

	sinkImpl := sinks.New(sinks.Options{
		Overlay:      overlayPub,
		Resolver:     resolver,
		SpeakCommand: sinks.DefaultSpeakCommand(runtime.GOOS),
		AudioCommand: sinks.DefaultAudioCommand(runtime.GOOS),
		Log:          log,
	})

	engine := &effects.Engine{
		Sinks:  sinkImpl,
		Timers: timerMgr,
		Runner: effects.ExecRunner{},
	}

	r := reactor.New(ctx, idx, engine, pipeline, log)
	r.OnFire = func(triggerID, triggerName string, at time.Time) {
		character := pipeline.CurrentCharacter()
		characterName := ""
		if character != nil {
			characterName = character.Name
		}
		if eventSink != nil {
			eventSink.RecordTriggerFire(triggerID, triggerName, characterName, at)
		}
		if publisher != nil {
			publisher.PublishTriggerFire(triggerID, triggerName, characterName, at)
		}
	}
	go r.Run()

	if eventSink != nil || publisher != nil {
		go forwardTimerEvents(ctx, timerMgr, eventSink, publisher)
	}

	stats := &reactorStats{reactor: r, timers: timerMgr}
	prometheus.MustRegister(metrics.NewCollector(stats))

	srv := api.NewServer(api.ServerOptions{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Index:        idx,
		Timers:       timerMgr,
		Version:      Version,
		StartTime:    startTime,
		Log:          log,
		HealthChecks: healthChecks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("introspection server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down introspection server: %w", err)
	}
	return nil
}

// reactorStats adapts the reactor and timer manager to metrics.ReactorStats;
// no single type exposes all three gauges.
type reactorStats struct {
	reactor *reactor.Reactor
	timers  *timers.Manager
}

func (s *reactorStats) TriggerCount() int         { return s.reactor.TriggerCount() }
func (s *reactorStats) ActiveTagCount() int        { return s.reactor.ActiveTagCount() }
func (s *reactorStats) TimerSubscriberCount() int  { return s.timers.SubscriberCount() }

// forwardTimerEvents relays every live timer lifecycle transition to
// whichever of the event log / mqtt publisher are enabled, until ctx is
// done.
func forwardTimerEvents(ctx context.Context, mgr *timers.Manager, eventSink *eventlog.Sink, publisher *mqttpublish.Publisher) {
	_, ch, cancel := mgr.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			at := time.Now()
			kind := string(update.Kind)
			if eventSink != nil {
				eventSink.RecordTimerEvent(kind, update.Live.ID, update.Live.TriggerID, update.Live.Name, at)
			}
			if publisher != nil {
				publisher.PublishTimerEvent(kind, update.Live.ID, update.Live.TriggerID, update.Live.Name, at)
			}
		}
	}
}
