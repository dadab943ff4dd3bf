// Package config holds the command-line and environment settings of the binaries.
package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/game"
)

// Log configures logrus for every binary.
type Log struct {
	Debug bool `help:"Whether to enable debug logging." env:"DEBUG"`
	JSON  bool `help:"Emit JSON log lines." env:"LOG_JSON"`
}

// Redis locates the action queue.
type Redis struct {
	Addr  string `help:"Redis address for the action log. Empty disables it." env:"REDIS_ADDR"`
	DB    int    `help:"Redis database index." env:"REDIS_DB" default:"0"`
	Queue string `help:"Redis list that carries game actions." env:"HISTORIAN_QUEUE_NAME" default:"yellowcard_actions"`
}

// Server is the configuration of cmd/server.
type Server struct {
	Log
	Redis `embed:"" prefix:"redis-"`

	Addr      string `help:"Listen address." env:"ADDR" default:":8080"`
	Catalogue string `help:"Catalogue JSON file. Empty uses a synthetic deck." env:"CATALOGUE_FILE" type:"path"`
	TokenTTL  string `help:"Session lifetime, e.g. 72h, or never." env:"TOKEN_EXPIRE_TIME" default:"72h"`

	MinPlayers  int  `help:"Players needed to start and to keep a game alive." env:"MIN_PLAYERS" default:"2"`
	HandSize    int  `help:"Cards in every hand." env:"HAND_SIZE" default:"13"`
	DemandDraws int  `help:"Demand cards offered to the asker each round." env:"DEMAND_DRAWS" default:"2"`
	MaxDiscard  int  `help:"Most cards a round loser may swap." env:"MAX_DISCARD" default:"2"`
	OpenLobby   bool `help:"Allow joining games that already started." env:"OPEN_LOBBY" default:"true" negatable:""`
}

// Rules builds the default game rules from the flags.
func (s Server) Rules() (game.Rules, error) {
	rules := game.Rules{
		MinPlayers:  s.MinPlayers,
		HandSize:    s.HandSize,
		DemandDraws: s.DemandDraws,
		MaxDiscard:  s.MaxDiscard,
		OpenLobby:   s.OpenLobby,
	}
	return rules, rules.Validate()
}

// Historian is the configuration of cmd/historian.
type Historian struct {
	Log
	Redis `embed:"" prefix:"redis-"`

	DatabaseURL   string `help:"Postgres connection string." env:"DATABASE_URL" required:""`
	Migrate       bool   `help:"Create the tables on startup." env:"HISTORIAN_MIGRATE" default:"true" negatable:""`
	BatchSize     int    `help:"Actions per insert transaction." env:"HISTORIAN_BATCH_SIZE" default:"20"`
	FlushMs       int    `help:"Flush interval in milliseconds." env:"HISTORIAN_FLUSH_MS" default:"500"`
	InactivitySec int    `help:"Seconds without actions before a game is marked abandoned." env:"GAME_INACTIVITY_TIMEOUT_SEC" default:"600"`
}

// Setup applies the log settings to logger and returns it.
func (l Log) Setup(logger *logrus.Logger) *logrus.Logger {
	logger.SetOutput(os.Stdout)
	if l.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if l.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.Warn("debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
