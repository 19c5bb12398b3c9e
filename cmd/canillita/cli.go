package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/pipeline"
)

// ItemProcessor runs items through the pipeline.
type ItemProcessor interface {
	Prepare(ctx context.Context, item *canillita.Item) (*canillita.Article, []string, error)
	Process(ctx context.Context, item *canillita.Item) (pipeline.Result, error)
}

// Renderer renders messages for the terminal.
type Renderer interface {
	Render(messages []string) (string, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time

	Records   canillita.RecordService
	Lock      canillita.ClaimLock
	Processor ItemProcessor
	Feeds     func(feedURL string) canillita.ItemSource
	Renderer  Renderer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB        string        `env:"CANILLITA_DB" default:"${db_path}" help:"Processing record database path"`
	Rules     string        `env:"CANILLITA_RULES" help:"Directory of per-origin ruleset files"`
	LogLevel  string        `env:"CANILLITA_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	Timeout   time.Duration `env:"CANILLITA_TIMEOUT" default:"15s" help:"Fetch timeout per page"`
	UserAgent string        `env:"CANILLITA_USER_AGENT" default:"${user_agent}" help:"User-Agent header sent with requests"`
	Retries   int           `env:"CANILLITA_RETRIES" default:"3" help:"Extraction attempts per item"`
	RPS       float64       `name:"rps" env:"CANILLITA_RPS" default:"1" help:"Requests per second to each origin"`
	Render    bool          `env:"CANILLITA_RENDER" help:"Fetch pages with a headless browser"`

	Channel        string `env:"CANILLITA_CHANNEL" default:"stdout" enum:"stdout,fs,discord" help:"Delivery channel (stdout, fs, discord)"`
	DiscordToken   string `env:"CANILLITA_DISCORD_TOKEN" help:"Discord bot token"`
	DiscordChannel string `env:"CANILLITA_DISCORD_CHANNEL" help:"Discord channel ID"`
	OutDir         string `env:"CANILLITA_OUT_DIR" default:"out" help:"Output directory for the fs channel"`
	RedisURL       string `env:"CANILLITA_REDIS_URL" help:"Redis URL for a claim lock shared across processes"`
	MaxMessage     int    `env:"CANILLITA_MAX_MESSAGE" default:"2000" help:"Maximum message size in bytes"`

	Run     RunCmd     `cmd:"" help:"Process items and deliver their articles"`
	Preview PreviewCmd `cmd:"" help:"Extract and split an article without delivering it"`
	Stats   StatsCmd   `cmd:"" help:"Show processing statistics"`
	Recent  RecentCmd  `cmd:"" help:"List recently processed items"`
	Sweep   SweepCmd   `cmd:"" help:"Delete old processing records"`
	Retry   RetryCmd   `cmd:"" help:"Allow a failed item to be processed again"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URLs    []string `arg:"" optional:"" help:"Article URLs to process"`
	File    string   `short:"f" type:"existingfile" help:"File with one URL per line"`
	Feed    []string `help:"RSS or Atom feed URL to read items from (repeatable)"`
	Workers int      `short:"w" default:"4" help:"Concurrent workers"`
}

// PreviewCmd is the "preview" subcommand.
type PreviewCmd struct {
	URL      string `arg:"" help:"Article URL"`
	Markdown bool   `name:"render-markdown" help:"Render messages as terminal markdown"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	Days int `default:"7" help:"Days to include"`
}

// RecentCmd is the "recent" subcommand.
type RecentCmd struct {
	Limit  int  `short:"n" default:"20" help:"Maximum records to list"`
	Failed bool `help:"Only list failed items"`
}

// SweepCmd is the "sweep" subcommand.
type SweepCmd struct {
	Days int `default:"30" help:"Delete records older than this many days"`
}

// RetryCmd is the "retry" subcommand.
type RetryCmd struct {
	ItemID string `arg:"" help:"Item ID of a failed record"`
}
