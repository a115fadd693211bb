package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/event"
	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/scripting"
	"github.com/embervale/client/internal/system"
	"github.com/embervale/client/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := "config/game.toml"
	if p := os.Getenv("EMBERVALE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Data tables
	maps, err := data.LoadMapTable(cfg.Paths.MapList, cfg.Paths.TileDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	monsters, err := data.LoadMonsterTable(cfg.Paths.MonsterList)
	if err != nil {
		return fmt.Errorf("load monsters: %w", err)
	}
	log.Info("data tables loaded",
		zap.Int("maps", maps.Count()),
		zap.Int("monsters", monsters.Count()))

	// 4. Scripting
	lua, err := scripting.NewEngine(cfg.Paths.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer lua.Close()

	// 5. World + scene services
	state := world.NewState()
	sched := scene.NewScheduler()
	stage := scene.NewStage()
	camera := scene.NewCamera(sched)
	bus := event.NewBus()
	gridSvc := grid.NewService(maps)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	coord := system.NewCoordinator(state, maps, stage, camera, bus, cfg.Transition, log)
	oracle := system.NewOracle(maps, state, coord.Changing)
	executor := system.NewExecutor(state, gridSvc, sched, cfg.Movement, log)
	resolver := system.NewResolver(state, gridSvc, sched, bus, lua, cfg.Combat, log)
	ai := system.NewAISystem(state, gridSvc, oracle, executor, resolver, cfg.AI, rng, log, coord.Changing)
	portals := system.NewPortalSystem(state, gridSvc, coord, sched, bus, cfg.Portal, log)
	spawner := system.NewSpawnSystem(state, gridSvc, monsters, oracle, coord, sched, bus, cfg.AI, rng, log)
	resolver.OnMonsterKilled = spawner.NotifyKilled
	intents := system.NewPlayerIntentSystem(state, gridSvc, oracle, executor, coord)

	runner := coresys.NewRunner()
	runner.Register(intents)
	runner.Register(system.NewNotifySystem(bus))
	runner.Register(system.NewClockSystem(sched))
	runner.Register(ai)
	runner.Register(portals)
	runner.Register(spawner)
	runner.Register(system.NewCleanupSystem(state))

	// 6. Place the player and enter the starting map
	startX, startY := gridSvc.TileToWorldFallback(cfg.Game.StartMap, cfg.Game.StartX, cfg.Game.StartY)
	state.CreatePlayer("player", startX, startY, 100, 1.0)
	coord.ChangeMap(cfg.Game.StartMap, startX, startY, "")

	// 7. Basic UI listeners: user-facing text goes to the log until a real
	// front end subscribes.
	event.Subscribe(bus, func(m event.UserMessage) {
		if m.Level == event.MessageError {
			log.Error(m.Text)
			return
		}
		log.Info(m.Text)
	})
	event.Subscribe(bus, func(m event.MapChanged) {
		log.Info("map changed", zap.String("map", m.MapKey))
	})

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	log.Info("game loop started",
		zap.Duration("tick", cfg.Game.TickRate),
		zap.String("map", cfg.Game.StartMap))

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Game.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
