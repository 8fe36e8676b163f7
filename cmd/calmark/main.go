package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"

	"calmark/internal/agenda"
	"calmark/internal/config"
	"calmark/internal/ics"
	appLog "calmark/internal/log"
	"calmark/internal/render"
)

const version = "1.0.0"

// flagConfig holds CLI flag values. set records which flags were given
// explicitly so that they override the config file and nothing else.
type flagConfig struct {
	filename string

	configPath string
	envFile    string
	output     string
	verbose    bool
	quiet      bool

	icsURL            string
	markStart         string
	markEnd           string
	timeout           time.Duration
	timezone          string
	parser            string
	placeholder       string
	all               bool
	expandRecurrences bool
	horizonDays       int

	set map[string]bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, time.Now)
	cancel()
	os.Exit(code)
}

// run executes one fetch → extract → render → splice cycle and returns the
// process exit code.
func run(ctx context.Context, args []string, stdout io.Writer, now func() time.Time) int {
	flags, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		appLog.Error("invalid arguments", err)
		return 2
	}

	switch {
	case flags.verbose:
		appLog.SetLevel(appLog.LevelDebug)
	case flags.quiet:
		appLog.SetLevel(appLog.LevelError)
	}
	appLog.Debug("calmark starting", "version", version)

	conf, err := buildConfig(flags)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}

	loc, _ := conf.Location() // validated above
	today := civil.DateOf(now().In(loc))

	appLog.Debug("effective config",
		"file", flags.filename,
		"timezone", loc.String(),
		"today", today,
		"timeout", conf.Timeout,
		"parser", conf.Parser,
		"future_only", conf.IsFutureOnly(),
		"expand_recurrences", conf.ExpandRecurrences,
		"horizon_days", conf.HorizonDays,
	)

	content, err := readTarget(flags.filename)
	if err != nil {
		appLog.Error("failed to read target file", err, "file", flags.filename)
		return 1
	}

	loader := ics.NewLoader(conf.Timeout, conf.Parser, loc)
	cal, err := loader.Load(ctx, conf.ICSURL)
	if err != nil {
		appLog.Error("failed to load calendar", err)
		return 1
	}

	var src agenda.Source = cal
	if conf.ExpandRecurrences {
		expandCfg := ics.ExpandConfig{
			RangeEnd: today.AddDays(conf.HorizonDays),
		}
		if conf.IsFutureOnly() {
			expandCfg.RangeStart = today
		}
		res := ics.Expand(cal.Events(), expandCfg)
		src = agenda.List(res.Events)
	}

	days := agenda.Extract(src, agenda.Options{
		FutureOnly: conf.IsFutureOnly(),
		Today:      today,
	})

	out, replaced := render.Document(content, days, conf.Placeholder, conf.MarkStart, conf.MarkEnd)
	if !replaced {
		appLog.Info("markers not found; content left unchanged",
			"file", flags.filename, "start", conf.MarkStart, "end", conf.MarkEnd)
	}

	if err := writeOutput(flags.output, out, stdout); err != nil {
		appLog.Error("failed to write output", err, "output", flags.output)
		return 1
	}
	return 0
}

func buildConfig(flags flagConfig) (*config.Config, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.set["ics_url"] {
		conf.ICSURL = flags.icsURL
	}
	if flags.set["start"] {
		conf.MarkStart = flags.markStart
	}
	if flags.set["end"] {
		conf.MarkEnd = flags.markEnd
	}
	if flags.set["timeout"] {
		conf.Timeout = flags.timeout
	}
	if flags.set["timezone"] {
		conf.Timezone = flags.timezone
	}
	if flags.set["parser"] {
		conf.Parser = flags.parser
	}
	if flags.set["placeholder"] {
		conf.Placeholder = flags.placeholder
	}
	if flags.set["all"] {
		conf.SetFutureOnly(!flags.all)
	}
	if flags.set["expand-recurrences"] {
		conf.ExpandRecurrences = flags.expandRecurrences
	}
	if flags.set["horizon-days"] {
		conf.HorizonDays = flags.horizonDays
	}

	if err := conf.ApplyEnv(flags.envFile); err != nil {
		return nil, err
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// parseFlags accepts flags before and after the positional filename.
func parseFlags(args []string) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("calmark", flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: calmark [flags] FILENAME\n\n")
		fmt.Fprintf(out, "Replace content between start and end marks with the upcoming events\n")
		fmt.Fprintf(out, "of an iCalendar feed and print the result to stdout.\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.icsURL, "ics_url", "", "Source calendar url (ICAL) [$"+config.EnvCalendarURL+"]")
	fs.StringVar(&cfg.markStart, "start", config.DefaultMarkStart, "Start mark")
	fs.StringVar(&cfg.markEnd, "end", config.DefaultMarkEnd, "End mark")
	fs.StringVar(&cfg.configPath, "config", "", "Optional YAML config file")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file read for "+config.EnvCalendarURL+" if present")
	fs.StringVar(&cfg.output, "output", "", "Write the result to this file instead of stdout")
	fs.DurationVar(&cfg.timeout, "timeout", config.DefaultTimeout, "HTTP fetch timeout")
	fs.StringVar(&cfg.timezone, "timezone", config.DefaultTimezone, "IANA timezone defining today")
	fs.StringVar(&cfg.parser, "parser", config.ParserArran4, "iCalendar parser backend (arran4|emersion)")
	fs.StringVar(&cfg.placeholder, "placeholder", config.DefaultPlaceholder, "Row text when there are no events")
	fs.BoolVar(&cfg.all, "all", false, "Include past events")
	fs.BoolVar(&cfg.expandRecurrences, "expand-recurrences", false, "Expand RRULE events into occurrences")
	fs.IntVar(&cfg.horizonDays, "horizon-days", config.DefaultHorizonDays, "Days ahead to expand recurrences")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&cfg.quiet, "quiet", false, "Only log errors")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return cfg, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("expected exactly one FILENAME, got %d", len(positional))
	}
	cfg.filename = positional[0]

	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	return cfg, nil
}
