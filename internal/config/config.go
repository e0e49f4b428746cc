package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the game server process.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// ReceiveChunkSize is the socket read buffer size in bytes.
	ReceiveChunkSize int `yaml:"receive_chunk_size"`

	LogLevel string `yaml:"log_level"`

	Database DatabaseConfig `yaml:"database"`

	// Map discovery
	MapsDiscovery string `yaml:"maps_discovery"` // glob of map definition files
	MapName       string `yaml:"map_name"`       // the active map

	Game Game `yaml:"game"`
}

// Addr returns the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string. The DB_URI environment
// variable, when set, overrides the assembled value.
func (d DatabaseConfig) DSN() string {
	if uri := os.Getenv("DB_URI"); uri != "" {
		return uri
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RandomEvent configures one of the global random events.
type RandomEvent struct {
	// Probability is a percentage in [0, 100] checked once per tick when
	// the event is off cooldown.
	Probability int `yaml:"probability"`
	// Power (hijackers/parasites) or number of refugees is drawn uniformly
	// from [PowerMin, PowerMax].
	PowerMin int `yaml:"power_min"`
	PowerMax int `yaml:"power_max"`
	// CooldownCoefficient: the cooldown after an event is power * coefficient ticks.
	CooldownCoefficient int `yaml:"cooldown_coefficient"`
}

// StartCooldown returns the cooldown applied at game creation so the event
// cannot fire during the opening ticks.
func (e RandomEvent) StartCooldown() int {
	return e.PowerMax * e.CooldownCoefficient
}

// TownLevel is one row of the town level table.
type TownLevel struct {
	PopulationCapacity int `yaml:"population_capacity"`
	ProductCapacity    int `yaml:"product_capacity"`
	ArmorCapacity      int `yaml:"armor_capacity"`
	// TrainCooldown is applied to a train sent home after a collision.
	TrainCooldown  int `yaml:"train_cooldown"`
	NextLevelPrice int `yaml:"next_level_price"`
}

// TrainLevel is one row of the train level table.
type TrainLevel struct {
	GoodsCapacity   int `yaml:"goods_capacity"`
	FuelCapacity    int `yaml:"fuel_capacity"`
	FuelConsumption int `yaml:"fuel_consumption"`
	NextLevelPrice  int `yaml:"next_level_price"`
}

// Game holds the simulation rules. All values are fixed at process start;
// the Game struct is shared read-only between game instances.
type Game struct {
	// TickTime is the wall-clock tick period in seconds.
	TickTime int `yaml:"tick_time"`
	// MaxTickCalculationTime extends the TURN wait beyond TickTime.
	MaxTickCalculationTime int `yaml:"max_tick_calculation_time"`

	TrainsCount           int  `yaml:"trains_count"`
	FuelEnabled           bool `yaml:"fuel_enabled"`
	TrainAlwaysDevastated bool `yaml:"train_always_devastated"`
	CollisionsEnabled     bool `yaml:"collisions_enabled"`

	Hijackers RandomEvent `yaml:"hijackers"`
	Parasites RandomEvent `yaml:"parasites"`
	Refugees  RandomEvent `yaml:"refugees"`

	MaxEventMessages int `yaml:"max_event_messages"`

	DefaultNumPlayers int `yaml:"default_num_players"`
	// DefaultNumTurns caps the game length in ticks; <= 0 means unlimited.
	DefaultNumTurns int `yaml:"default_num_turns"`

	// HiddenMapLayers are served to observers only.
	HiddenMapLayers []int `yaml:"hidden_map_layers"`

	// TimeFormat is the Go layout used for timestamps on the wire.
	TimeFormat string `yaml:"time_format"`

	TownLevels  map[int]TownLevel  `yaml:"town_levels"`
	TrainLevels map[int]TrainLevel `yaml:"train_levels"`
}

// TurnTimeout is how long a TURN command waits for tick completion.
func (g Game) TurnTimeout() time.Duration {
	return time.Duration(g.TickTime+g.MaxTickCalculationTime) * time.Second
}

// TickPeriod returns TickTime as a duration.
func (g Game) TickPeriod() time.Duration {
	return time.Duration(g.TickTime) * time.Second
}

// LayerHidden reports whether the layer is restricted to observers.
func (g Game) LayerHidden(layer int) bool {
	for _, l := range g.HiddenMapLayers {
		if l == layer {
			return true
		}
	}
	return false
}

// Default returns the production configuration.
func Default() Server {
	return Server{
		BindAddress:      "127.0.0.1",
		Port:             2000,
		ReceiveChunkSize: 1024,
		LogLevel:         "info",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "railgo",
			Password: "railgo",
			DBName:   "railgo",
			SSLMode:  "disable",
		},
		MapsDiscovery: "maps/*.yaml",
		MapName:       "map02",
		Game:          DefaultGame(),
	}
}

// DefaultGame returns the production simulation rules.
func DefaultGame() Game {
	return Game{
		TickTime:               10,
		MaxTickCalculationTime: 3,
		TrainsCount:            8,
		FuelEnabled:            false,
		TrainAlwaysDevastated:  true,
		CollisionsEnabled:      true,
		Hijackers: RandomEvent{
			Probability:         20,
			PowerMin:            1,
			PowerMax:            3,
			CooldownCoefficient: 5,
		},
		Parasites: RandomEvent{
			Probability:         20,
			PowerMin:            1,
			PowerMax:            3,
			CooldownCoefficient: 5,
		},
		Refugees: RandomEvent{
			Probability:         10,
			PowerMin:            1,
			PowerMax:            3,
			CooldownCoefficient: 5,
		},
		MaxEventMessages:  5,
		DefaultNumPlayers: 1,
		DefaultNumTurns:   -1,
		TimeFormat:        "Jan 02 2006 03:04:05.000000",
		TownLevels: map[int]TownLevel{
			1: {
				PopulationCapacity: 10,
				ProductCapacity:    200,
				ArmorCapacity:      200,
				TrainCooldown:      2,
				NextLevelPrice:     100,
			},
			2: {
				PopulationCapacity: 20,
				ProductCapacity:    500,
				ArmorCapacity:      500,
				TrainCooldown:      1,
				NextLevelPrice:     200,
			},
			3: {
				PopulationCapacity: 40,
				ProductCapacity:    10000,
				ArmorCapacity:      10000,
				TrainCooldown:      0,
			},
		},
		TrainLevels: map[int]TrainLevel{
			1: {
				GoodsCapacity:   40,
				FuelCapacity:    400,
				FuelConsumption: 1,
				NextLevelPrice:  40,
			},
			2: {
				GoodsCapacity:   80,
				FuelCapacity:    800,
				FuelConsumption: 1,
				NextLevelPrice:  80,
			},
			3: {
				GoodsCapacity:   160,
				FuelCapacity:    1600,
				FuelConsumption: 1,
			},
		},
	}
}

// Testing returns rules for tests: random events disabled, no opening
// cooldowns, so scenarios stay deterministic.
func Testing() Game {
	g := DefaultGame()
	g.Hijackers.Probability = 0
	g.Hijackers.PowerMax = 0
	g.Parasites.Probability = 0
	g.Parasites.PowerMax = 0
	g.Refugees.Probability = 0
	g.Refugees.PowerMax = 0
	return g
}

// Load loads server config from a YAML file over the defaults.
// If the file doesn't exist, returns defaults.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
