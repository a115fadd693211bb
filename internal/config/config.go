package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Game       GameConfig       `toml:"game"`
	Movement   MovementConfig   `toml:"movement"`
	AI         AIConfig         `toml:"ai"`
	Combat     CombatConfig     `toml:"combat"`
	Transition TransitionConfig `toml:"transition"`
	Portal     PortalConfig     `toml:"portal"`
	Logging    LoggingConfig    `toml:"logging"`
	Paths      PathsConfig      `toml:"paths"`
}

type GameConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	StartMap string        `toml:"start_map"`
	StartX   int           `toml:"start_x"` // tile coordinates
	StartY   int           `toml:"start_y"`
}

type MovementConfig struct {
	BaseDuration time.Duration `toml:"base_duration"` // one tile at base speed
	BaseSpeed    float64       `toml:"base_speed"`
	MinDuration  time.Duration `toml:"min_duration"` // floor, avoids zero-duration teleports
}

type AIConfig struct {
	WanderIntervalMin time.Duration `toml:"wander_interval_min"`
	WanderIntervalMax time.Duration `toml:"wander_interval_max"`
	FacingOnlyChance  float64       `toml:"facing_only_chance"` // share of wander ticks that only turn
	RetreatBand       float64       `toml:"retreat_band"`       // kite: retreat below preferred*band
	AdvanceBand       float64       `toml:"advance_band"`       // kite: advance above preferred*band
}

type CombatConfig struct {
	DeathLinger time.Duration `toml:"death_linger"` // dying visual duration
	DeathSafety time.Duration `toml:"death_safety"` // hard destroy deadline
}

type TransitionConfig struct {
	FadeDuration time.Duration `toml:"fade_duration"`
}

type PortalConfig struct {
	TriggerRadius float64       `toml:"trigger_radius"` // world units, deliberately under one tile
	Cooldown      time.Duration `toml:"cooldown"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type PathsConfig struct {
	MapList    string `toml:"map_list"`
	TileDir    string `toml:"tile_dir"`
	MonsterList string `toml:"monster_list"`
	ScriptsDir string `toml:"scripts_dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the baseline configuration; file values override it.
func Defaults() *Config {
	return &Config{
		Game: GameConfig{
			TickRate: 50 * time.Millisecond,
			StartMap: "town",
			StartX:   5,
			StartY:   5,
		},
		Movement: MovementConfig{
			BaseDuration: 400 * time.Millisecond,
			BaseSpeed:    1.0,
			MinDuration:  50 * time.Millisecond,
		},
		AI: AIConfig{
			WanderIntervalMin: 5 * time.Second,
			WanderIntervalMax: 7 * time.Second,
			FacingOnlyChance:  0.7,
			RetreatBand:       0.8,
			AdvanceBand:       1.2,
		},
		Combat: CombatConfig{
			DeathLinger: 550 * time.Millisecond,
			DeathSafety: 2 * time.Second,
		},
		Transition: TransitionConfig{
			FadeDuration: 300 * time.Millisecond,
		},
		Portal: PortalConfig{
			TriggerRadius: 16,
			Cooldown:      500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Paths: PathsConfig{
			MapList:     "data/maps.yaml",
			TileDir:     "data/tiles",
			MonsterList: "data/monsters.yaml",
			ScriptsDir:  "scripts",
		},
	}
}
