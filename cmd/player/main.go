// Command player runs one scenario storyboard and accepts injected actions
// over MQTT and the operator API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/api"
	"github.com/AaronLay10/ScenarioEngine/internal/config"
	"github.com/AaronLay10/ScenarioEngine/internal/entities"
	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/mqtt"
	"github.com/AaronLay10/ScenarioEngine/internal/player"
	"github.com/AaronLay10/ScenarioEngine/internal/storage/postgres"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
	"github.com/AaronLay10/ScenarioEngine/internal/telemetry"
	"github.com/AaronLay10/ScenarioEngine/internal/version"
)

const serviceName = "scenario-player"

func main() {
	var env config.Env
	if err := config.ParseEnv(&env); err != nil {
		log.Fatalf("%v", err)
	}

	configPath := flag.String("config", env.ConfigPath, "path to player.yaml")
	fresh := flag.Bool("fresh", false, "start a new session instead of resuming the persisted one")
	flag.Parse()

	cfg, err := config.LoadPlayerConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events.SetOutput(os.Stdout)
	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "scenario player starting", map[string]interface{}{
		"service":     serviceName,
		"version":     version.Version,
		"hostname":    hostname,
		"pid":         os.Getpid(),
		"scenario_id": cfg.Scenario.ID,
	})

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, env.OTelEndpoint)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	api.InitMetrics()
	api.SetScenarioName(cfg.Scenario.ID)
	if err := api.InitAuth(); err != nil {
		log.Fatalf("%v", err)
	}
	api.InitTLS(env.TLSCert, env.TLSKey)
	api.InitAlerts(api.AlertConfig{
		WebhookURL:    env.AlertWebhookURL,
		MQTTDelay:     env.MQTTAlertDelay,
		PostgresDelay: env.PostgresAlertDelay,
	})

	// Persistence comes first so the session start is recorded.
	var (
		restored  *player.RestoredState
		nRestored int
	)
	api.SetPostgresState(false, !env.PostgresEnabled)
	if env.PostgresEnabled {
		pg, err := openPostgres(cfg.Scenario.ID)
		if err != nil {
			log.Printf("postgres unavailable, events will not be persisted: %v", err)
		} else {
			defer pg.Close()
			if !*fresh {
				restored, nRestored, err = player.RestoreFromEvents(pg, player.DefaultRestoreLimit)
				if err != nil {
					log.Printf("restore failed, starting a new session: %v", err)
					restored = nil
				}
			}
			events.SetPostgresClient(pg)
			api.SetPostgresState(true, false)
		}
	}

	execs := player.NewExecutorMux()
	scripts := player.NewScriptExecutor(cfg.Player.ScriptsDir)
	execs.Handle("tengo", scripts)
	if cfg.Player.ScriptsDir != "" {
		w, err := player.WatchScripts(ctx, scripts)
		if err != nil {
			log.Printf("script watcher disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	var client *mqtt.Client
	if env.MQTTEnabled {
		pass, err := config.ResolveSecret("MQTT_PASSWORD")
		if err != nil {
			log.Fatalf("%v", err)
		}
		client = mqtt.NewClient(serviceName+"-"+cfg.Scenario.ID, mqtt.Options{
			BrokerURL: env.MQTTURL,
			Username:  env.MQTTUser,
			Password:  pass,
		})
		execs.SetDefault(mqtt.NewExecutor(client, cfg.TopicPrefix()))
	}

	opts := player.Options{
		StepDT:      cfg.StepDT(),
		Realtime:    cfg.Realtime(),
		StartPaused: cfg.Player.StartPaused,
		Observer:    storyboard.EmitObserver{},
		Executor:    execs,
		Entities:    entities.FromConfig(cfg.Entities),
	}
	if restored != nil {
		opts.SessionID = restored.SessionID
	}
	p := player.New(opts)
	if err := p.LoadActions(cfg.Actions); err != nil {
		log.Fatalf("invalid actions in %s: %v", *configPath, err)
	}
	if restored != nil {
		p.ApplyRestoredState(restored)
		player.EmitStartupRestore(nRestored, cfg.Scenario.ID, p.SessionID())
	}

	if client != nil {
		sub := mqtt.NewCommandSubscriber(client)
		client.OnConnect(sub.Resubscribe)
		client.OnConnect(func() { api.SetMQTTState(true, false) })
		client.Start()

		topic := cfg.TopicPrefix() + "/inject"
		if err := sub.Handle(topic, injectHandler(ctx, p)); err != nil {
			log.Printf("mqtt: subscribe %s deferred until connected: %v", topic, err)
		}
		go watchBroker(ctx, client)
		defer client.Disconnect()
	} else {
		api.SetMQTTState(false, true)
	}

	api.SetController(p)
	api.Start(cfg.APIPort())
	api.StartAlertMonitor(ctx, 10*time.Second)

	api.SetPlayerReady(true)
	err = p.Run(ctx)
	api.SetPlayerReady(false)

	reason := "quit"
	if err != nil {
		reason = err.Error()
	}
	events.Emit("info", "system.shutdown", "scenario player stopping", map[string]interface{}{
		"reason":   reason,
		"sim_time": p.SimTime(),
	})
	events.CloseAllSubscribers()
}

func openPostgres(scenarioID string) (*postgres.Client, error) {
	settings, err := postgres.LoadSettings()
	if err != nil {
		return nil, err
	}
	return postgres.New(settings, scenarioID)
}

// injectHandler decodes inbound MQTT messages. Decode errors are returned
// so the subscriber reports them; rejections by the player are already
// reported as events.
func injectHandler(ctx context.Context, p *player.Player) mqtt.PayloadHandler {
	return func(topic string, payload []byte) error {
		msg, err := player.DecodeMessage(payload)
		if err != nil {
			return err
		}
		_ = p.HandleMessage(ctx, msg)
		return nil
	}
}

// watchBroker mirrors the broker connection into the readiness state.
func watchBroker(ctx context.Context, client *mqtt.Client) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			api.SetMQTTState(client.IsConnected(), false)
		}
	}
}
