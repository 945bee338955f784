package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/tweet-ingest/app/ingest"
	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/app/storage/engine"
	"github.com/umputun/tweet-ingest/app/webapi"
	"github.com/umputun/tweet-ingest/lib/lexicon"
	"github.com/umputun/tweet-ingest/lib/record"
)

type options struct {
	DB  string `long:"db" env:"DB" default:"tweet-ingest.db" description:"database url, sqlite file or postgres://"`
	GID string `long:"gid" env:"GID" default:"tweets" description:"group id, keeps separate data sets in the same database"`

	Ingest struct {
		Files        []string      `long:"file" env:"FILE" env-delim:"," description:"upstream jsonl files to process"`
		Dir          string        `long:"dir" env:"DIR" description:"directory with upstream jsonl files"`
		Watch        bool          `long:"watch" env:"WATCH" description:"keep watching the directory for new files"`
		Stdin        bool          `long:"stdin" env:"STDIN" description:"read upstream records from stdin"`
		Archive      string        `long:"archive" env:"ARCHIVE" description:"move processed files to this directory"`
		Ext          string        `long:"ext" env:"EXT" default:".jsonl" description:"extension of upstream files in the directory"`
		Settle       time.Duration `long:"settle" env:"SETTLE" default:"1s" description:"delay after the last write before a watched file is processed"`
		BatchSize    int           `long:"batch" env:"BATCH" default:"1000" description:"records per batch"`
		Window       time.Duration `long:"window" env:"WINDOW" default:"1h" description:"how long recent records are kept in memory"`
		MaxRecent    int           `long:"max-recent" env:"MAX_RECENT" default:"10000" description:"max recent records kept in memory"`
		DaemonSearch int           `long:"daemon-search" env:"DAEMON_SEARCH" default:"100" description:"max storage lookups per batch for parents and originals"`
		MaxLinks     int           `long:"max-links" env:"MAX_LINKS" default:"3" description:"max links in text, -1 to disable check"`
		MaxEmoji     int           `long:"max-emoji" env:"MAX_EMOJI" default:"5" description:"max emoji count in text, -1 to disable check"`
		Reprocess    bool          `long:"reprocess" env:"REPROCESS" description:"forget processed files and read them again"`
	} `group:"ingest" namespace:"ingest" env-namespace:"INGEST"`

	Retention struct {
		Age      time.Duration `long:"age" env:"AGE" description:"remove records older than this age, disabled if not set"`
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"1h" description:"cleanup interval for long-running modes"`
	} `group:"retention" namespace:"retention" env-namespace:"RETENTION"`

	Lexicon struct {
		Import  string   `long:"import" env:"IMPORT" description:"file with words to import into dictionary, one per line"`
		Add     []string `long:"add" env:"ADD" env-delim:"," description:"words to add to dictionary"`
		Delete  []int64  `long:"delete" env:"DELETE" env-delim:"," description:"ids of dictionary words to remove"`
		Tag     string   `long:"tag" env:"TAG" default:"en" description:"language tag of imported and added words"`
		Kind    string   `long:"kind" env:"KIND" default:"noise" choice:"noise" choice:"detection" choice:"aux" choice:"phrase" description:"kind of imported and added words"`
		Cleanup bool     `long:"cleanup" env:"CLEANUP" description:"remove words with the same tag and kind before import"`
	} `group:"lexicon" namespace:"lexicon" env-namespace:"LEXICON"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable spam rotated logs"`
		FileName   string `long:"file" env:"FILE"  default:"tweet-spam.log" description:"location of spam log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Server struct {
		Enabled    bool    `long:"enabled" env:"ENABLED" description:"enable web API server"`
		ListenAddr string  `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string  `long:"auth" env:"AUTH" default:"" description:"basic auth password for user 'tweet-ingest'"`
		RateLimit  float64 `long:"rate" env:"RATE" default:"10" description:"max requests per second per client, 0 to disable"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("tweet-ingest %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	db, err := engine.New(ctx, opts.DB, opts.GID)
	if err != nil {
		return fmt.Errorf("can't make db engine, %w", err)
	}
	defer db.Close()

	records, err := storage.NewRecords(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make records storage, %w", err)
	}
	dict, err := storage.NewDictionary(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make dictionary storage, %w", err)
	}

	if err = updateDictionary(ctx, dict, opts); err != nil {
		return err
	}

	lex, err := makeLexicon(ctx, dict)
	if err != nil {
		return fmt.Errorf("can't make lexicon, %w", err)
	}

	spamWr, err := makeSpamLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make spam log writer, %w", err)
	}
	defer spamWr.Close()

	pipe, err := ingest.New(records, lex, ingest.Params{
		Window:       opts.Ingest.Window,
		MaxRecent:    opts.Ingest.MaxRecent,
		DaemonSearch: opts.Ingest.DaemonSearch,
		MaxLinks:     opts.Ingest.MaxLinks,
		MaxEmoji:     opts.Ingest.MaxEmoji,
		SpamLog:      spamWr,
	})
	if err != nil {
		return fmt.Errorf("can't make ingest pipeline, %w", err)
	}

	checkpoint, err := storage.NewState[ingest.Checkpoint](ctx, db, "checkpoint")
	if err != nil {
		return fmt.Errorf("can't make checkpoint storage, %w", err)
	}
	if opts.Ingest.Reprocess {
		if err = checkpoint.Delete(ctx); err != nil {
			return fmt.Errorf("can't reset checkpoint, %w", err)
		}
		log.Printf("[INFO] checkpoint reset, all upstream files will be processed")
	}
	runner := &ingest.Runner{
		Processor:  pipe,
		Checkpoint: checkpoint,
		BatchSize:  opts.Ingest.BatchSize,
		ArchiveDir: opts.Ingest.Archive,
		Ext:        opts.Ingest.Ext,
		Settle:     opts.Ingest.Settle,
	}

	if opts.Retention.Age > 0 {
		if _, cerr := records.Cleanup(ctx, opts.Retention.Age); cerr != nil {
			log.Printf("[WARN] can't cleanup records, %v", cerr)
		}
	}

	longRunning := opts.Server.Enabled || (opts.Ingest.Watch && opts.Ingest.Dir != "")
	if longRunning && opts.Retention.Age > 0 {
		go runCleanup(ctx, records, opts.Retention.Age, opts.Retention.Interval)
	}

	serverDone := make(chan error, 1)
	if opts.Server.Enabled {
		srv := webapi.NewServer(webapi.Config{
			Version:    revision,
			ListenAddr: opts.Server.ListenAddr,
			Records:    records,
			Ingest:     pipe,
			Dictionary: dict,
			Checkpoint: checkpoint,
			AuthPasswd: opts.Server.AuthPasswd,
			RateLimit:  opts.Server.RateLimit,
		})
		go func() { serverDone <- srv.Run(ctx) }()
	}

	if err = runIngest(ctx, opts, runner, pipe); err != nil {
		return err
	}
	log.Printf("[INFO] ingest totals, %s", pipe.Stats())
	if st, serr := records.Stats(ctx); serr == nil {
		log.Printf("[INFO] storage, %s", st)
	}

	if !opts.Server.Enabled {
		return nil
	}
	if err = <-serverDone; err != nil {
		return fmt.Errorf("web API server failed, %w", err)
	}
	return nil
}

// runIngest processes upstream records from all configured sources. Watch mode blocks until ctx is canceled.
func runIngest(ctx context.Context, opts options, runner *ingest.Runner, proc ingest.Processor) error {
	for _, f := range opts.Ingest.Files {
		if _, err := runner.ProcessFile(ctx, f); err != nil {
			return fmt.Errorf("can't process file, %w", err)
		}
	}

	if opts.Ingest.Stdin {
		stats, err := ingest.ReadUpstream(ctx, os.Stdin, opts.Ingest.BatchSize, func(batch []record.Upstream) error {
			_, e := proc.Process(ctx, batch)
			return e
		})
		if err != nil {
			return fmt.Errorf("can't process stdin, %w", err)
		}
		log.Printf("[INFO] processed stdin, lines: %d, records: %d, invalid: %d", stats.Lines, stats.Records, stats.Invalid)
	}

	if opts.Ingest.Dir == "" {
		return nil
	}
	if !opts.Ingest.Watch {
		if err := runner.ProcessDir(ctx, opts.Ingest.Dir); err != nil {
			return fmt.Errorf("can't process dir %s, %w", opts.Ingest.Dir, err)
		}
		return nil
	}
	if err := runner.Watch(ctx, opts.Ingest.Dir); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watcher failed, %w", err)
	}
	return nil
}

// updateDictionary applies dictionary changes requested by lexicon options: deletes, import and added words
func updateDictionary(ctx context.Context, dict *storage.Dictionary, opts options) error {
	if opts.Lexicon.Import == "" && len(opts.Lexicon.Add) == 0 && len(opts.Lexicon.Delete) == 0 {
		return nil
	}
	kind := lexicon.Kind(opts.Lexicon.Kind)
	if err := kind.Validate(); err != nil {
		return fmt.Errorf("invalid dictionary kind, %w", err)
	}

	for _, id := range opts.Lexicon.Delete {
		if err := dict.Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("[WARN] dictionary word %d not found", id)
				continue
			}
			return fmt.Errorf("can't delete dictionary word, %w", err)
		}
		log.Printf("[INFO] deleted dictionary word %d", id)
	}

	if opts.Lexicon.Import != "" {
		if err := importDictionary(ctx, dict, kind, opts); err != nil {
			return err
		}
	}

	for _, w := range opts.Lexicon.Add {
		if err := dict.Add(ctx, opts.Lexicon.Tag, kind, w); err != nil {
			return fmt.Errorf("can't add %q to dictionary, %w", w, err)
		}
	}
	if len(opts.Lexicon.Add) > 0 {
		log.Printf("[INFO] added %d words as %s/%s", len(opts.Lexicon.Add), opts.Lexicon.Tag, kind)
	}

	if st, err := dict.Stats(ctx); err == nil {
		log.Printf("[INFO] dictionary %s", st)
	}
	return nil
}

func importDictionary(ctx context.Context, dict *storage.Dictionary, kind lexicon.Kind, opts options) error {
	fh, err := os.Open(opts.Lexicon.Import)
	if err != nil {
		return fmt.Errorf("can't open dictionary file, %w", err)
	}
	defer fh.Close()

	stats, err := dict.Import(ctx, opts.Lexicon.Tag, kind, fh, opts.Lexicon.Cleanup)
	if err != nil {
		return fmt.Errorf("can't import dictionary, %w", err)
	}
	log.Printf("[INFO] imported %s as %s/%s, %s", opts.Lexicon.Import, opts.Lexicon.Tag, kind, stats)
	return nil
}

// makeLexicon builds lexicon from embedded word lists extended by words stored in the dictionary
func makeLexicon(ctx context.Context, dict *storage.Dictionary) (*lexicon.Lexicon, error) {
	extra, err := dict.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't load dictionary, %w", err)
	}
	if len(extra) == 0 {
		return lexicon.Default()
	}
	sources, err := lexicon.EmbeddedSources(lexicon.Languages...)
	if err != nil {
		return nil, err
	}
	lex := lexicon.New(append(sources, extra...)...)
	log.Printf("[DEBUG] lexicon with %d dictionary sources, %+v", len(extra), lex.Stats())
	return lex, nil
}

func runCleanup(ctx context.Context, records *storage.Records, age, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	log.Printf("[DEBUG] cleanup records older than %v every %v", age, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] cleanup stopped")
			return
		case <-ticker.C:
			if _, err := records.Cleanup(ctx, age); err != nil {
				log.Printf("[WARN] can't cleanup records, %v", err)
			}
		}
	}
}

// makeSpamLogWriter creates spam log writer to keep reports about spam records
// it parses options and makes lumberjack logger with rotation
func makeSpamLogWriter(opts options) (accessLog io.WriteCloser, err error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	maxSize, perr := sizeParse(opts.Logger.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}
	maxSize /= 1048576

	log.Printf("[INFO] logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), //nolint:gosec // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// sizeParse converts size with optional k/m/g/t suffix to bytes
func sizeParse(inp string) (uint64, error) {
	if inp == "" {
		return 0, errors.New("empty value")
	}
	for i, sfx := range []string{"k", "m", "g", "t"} {
		if strings.HasSuffix(strings.ToLower(inp), sfx) {
			val, err := strconv.Atoi(inp[:len(inp)-1])
			if err != nil {
				return 0, fmt.Errorf("can't parse %s: %w", inp, err)
			}
			return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
		}
	}
	return strconv.ParseUint(inp, 10, 64)
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
