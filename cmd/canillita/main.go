package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/bloom"
	"github.com/fwojciec/canillita/discord"
	canillitafs "github.com/fwojciec/canillita/fs"
	"github.com/fwojciec/canillita/glamour"
	"github.com/fwojciec/canillita/gofeed"
	"github.com/fwojciec/canillita/goquery"
	"github.com/fwojciec/canillita/htmltomarkdown"
	canillitahttp "github.com/fwojciec/canillita/http"
	"github.com/fwojciec/canillita/pipeline"
	"github.com/fwojciec/canillita/readability"
	canillitaredis "github.com/fwojciec/canillita/redis"
	"github.com/fwojciec/canillita/rod"
	canillitaslog "github.com/fwojciec/canillita/slog"
	"github.com/fwojciec/canillita/sqlite"
	"github.com/fwojciec/canillita/trafilatura"
	"github.com/fwojciec/canillita/yaml"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Bloom filter sizing for the seen-item fast path.
const (
	seenCapacity = 100_000
	seenFPRate   = 0.01
)

// Main represents the program.
type Main struct {
	// SQLite database used by the record service. Opened by Run().
	DB *sqlite.DB

	closers []io.Closer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases everything opened by Run.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("canillita"),
		kong.Description("Extract news articles and deliver them as chat messages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{
			"db_path":    defaultDBPath(),
			"user_agent": canillitahttp.DefaultUserAgent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'canillita --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level, err := parseLevel(cli.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
		Now:    time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(cli.DB), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CANILLITA_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	seen := bloom.NewRecordService(sqlite.NewRecordService(m.DB), bloom.NewFilter(seenCapacity, seenFPRate))
	deps.Records = canillitaslog.NewLoggingRecordService(seen, logger)

	if cli.RedisURL != "" && (cmd == "run" || cmd == "retry") {
		client, err := canillitaredis.Dial(ctx, cli.RedisURL)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check CANILLITA_REDIS_URL or unset it to run without a shared claim lock")
			return err
		}
		m.closers = append(m.closers, client)
		deps.Lock = canillitaredis.NewClaimLock(client)
	}

	if cmd == "run" || cmd == "preview" {
		fetcher, err := m.newFetcher(cli, logger, stderr)
		if err != nil {
			return err
		}

		var channel canillita.Channel = canillitafs.NewWriterChannel(stdout)
		if cmd == "run" {
			channel, err = newChannel(cli, stdout)
			if err != nil {
				fmt.Fprintf(stderr, "error: %s\n", canillita.ErrorMessage(err))
				return err
			}

			n, err := seen.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load processed items: %w", err)
			}
			logger.Debug("loaded processed items", "count", n)
		}

		deps.Processor = newProcessor(cli, fetcher, channel, deps.Records, deps.Lock, logger)
		deps.Feeds = func(feedURL string) canillita.ItemSource {
			return gofeed.NewSource(fetcher, feedURL)
		}
	}

	if cmd == "preview" && cli.Preview.Markdown {
		renderer, err := glamour.NewRenderer()
		if err != nil {
			return err
		}
		deps.Renderer = renderer
	}

	return kongCtx.Run(deps)
}

// newFetcher returns the page fetcher: a headless browser when --render
// is set, plain HTTP otherwise. Requests are paced per origin.
func (m *Main) newFetcher(cli *CLI, logger *slog.Logger, stderr io.Writer) (canillita.Fetcher, error) {
	var base canillita.Fetcher
	if cli.Render {
		f, err := rod.NewFetcher(rod.WithTimeout(cli.Timeout), rod.WithUserAgent(cli.UserAgent))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		base = f
	} else {
		base = canillitahttp.NewFetcher(
			canillitahttp.WithTimeout(cli.Timeout),
			canillitahttp.WithUserAgent(cli.UserAgent),
		)
	}

	limited := pipeline.NewRateLimitedFetcher(base, pipeline.NewDomainLimiter(cli.RPS))
	fetcher := canillitaslog.NewLoggingFetcher(limited, logger)
	m.closers = append(m.closers, fetcher)
	return fetcher, nil
}

// newChannel returns the delivery channel selected by --channel.
func newChannel(cli *CLI, stdout io.Writer) (canillita.Channel, error) {
	switch cli.Channel {
	case "fs":
		return canillitafs.NewChannel(cli.OutDir), nil
	case "discord":
		if cli.DiscordToken == "" || cli.DiscordChannel == "" {
			return nil, canillita.Errorf(canillita.EINVALID, "discord channel requires --discord-token and --discord-channel")
		}
		session, err := discord.NewSession(cli.DiscordToken)
		if err != nil {
			return nil, err
		}
		return discord.NewChannel(session, cli.DiscordChannel), nil
	default:
		return canillitafs.NewWriterChannel(stdout), nil
	}
}

func newProcessor(cli *CLI, fetcher canillita.Fetcher, channel canillita.Channel, records canillita.RecordService, lock canillita.ClaimLock, logger *slog.Logger) *pipeline.Processor {
	strategies := []canillita.Strategy{
		goquery.NewStructuredStrategy(),
		goquery.NewLibraryStrategy(canillita.MethodLibrary, trafilatura.NewParser(fetcher)),
		goquery.NewLibraryStrategy(canillita.MethodReadability, readability.NewParser(fetcher, htmltomarkdown.NewConverter())),
	}
	for i, s := range strategies {
		strategies[i] = canillitaslog.NewLoggingStrategy(s, logger)
	}

	coordinatorOpts := []pipeline.CoordinatorOption{pipeline.WithCoordinatorLogger(logger)}
	if lock != nil {
		coordinatorOpts = append(coordinatorOpts, pipeline.WithClaimLock(lock))
	}

	resolver := yaml.NewResolver(cli.Rules, yaml.WithLogger(logger))
	if err := resolver.Preload(); err != nil {
		logger.Warn("invalid rulesets use the default", "err", err)
	}
	logger.Debug("rulesets loaded", "origins", resolver.Origins())

	policy := pipeline.DefaultRetryPolicy()
	policy.MaxAttempts = cli.Retries
	policy.Logger = logger

	return pipeline.NewProcessor(
		resolver,
		pipeline.NewEngine(fetcher, strategies, pipeline.WithEngineLogger(logger)),
		pipeline.NewCoordinator(records, canillitaslog.NewLoggingChannel(channel, logger), coordinatorOpts...),
		pipeline.WithRetryPolicy(policy),
		pipeline.WithMaxMessage(cli.MaxMessage),
		pipeline.WithProcessorLogger(logger),
	)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, canillita.Errorf(canillita.EINVALID, "invalid log level %q", s)
	}
	return level, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "canillita.db"
	}
	return filepath.Join(home, ".canillita", "canillita.db")
}
