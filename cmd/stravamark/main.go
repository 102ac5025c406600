package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stravamark/stravamark/internal/auth"
	"github.com/stravamark/stravamark/internal/clients/strava"
	"github.com/stravamark/stravamark/internal/common"
	"github.com/stravamark/stravamark/internal/exporter"
	"github.com/stravamark/stravamark/internal/models"
)

const dateFormat = "2006-01-02"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printHelp()
		return 1
	}

	switch os.Args[1] {
	case "auth":
		return authCmd(os.Args[2:])
	case "export":
		return exportCmd(os.Args[2:])
	case "sync":
		return syncCmd(os.Args[2:])
	case "status":
		return statusCmd(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Println("stravamark " + common.GetFullVersion())
		return 0
	case "help", "--help", "-h":
		printHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "stravamark: unknown command %q\n", os.Args[1])
		printHelp()
		return 1
	}
}

// app bundles the wired components shared by all commands.
type app struct {
	cfg    *common.Config
	logger *common.Logger
	store  *auth.TokenStore
	authn  *auth.Authenticator
	client *strava.Client
}

func newApp() (*app, error) {
	cfg, err := common.LoadConfig(os.Getenv("STRAVAMARK_CONFIG"), "stravamark.toml")
	if err != nil {
		return nil, err
	}

	logger := common.NewLogger(cfg.Logging.Level)
	store := auth.NewTokenStore(cfg.Auth.TokenFile)

	cred := models.Credential{
		ClientID:     cfg.Clients.Strava.ClientID,
		ClientSecret: cfg.Clients.Strava.ClientSecret,
	}

	sc := cfg.Clients.Strava
	authn := auth.New(cred, store,
		auth.WithAuthURL(sc.AuthURL),
		auth.WithTokenURL(sc.TokenURL),
		auth.WithRedirectPort(sc.RedirectPort),
		auth.WithScope(sc.Scope),
		auth.WithTimeout(sc.GetTimeout()),
		auth.WithLogger(logger),
	)

	client := strava.NewClient(authn,
		strava.WithBaseURL(sc.BaseURL),
		strava.WithTimeout(sc.GetTimeout()),
		strava.WithRateLimit(sc.RateLimit),
		strava.WithLogger(logger),
	)

	return &app{cfg: cfg, logger: logger, store: store, authn: authn, client: client}, nil
}

func authCmd(args []string) int {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	manual := fs.Bool("manual", false, "paste the redirect URL instead of running the local listener")
	fs.Parse(args)

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stravamark: %v\n", err)
		return 1
	}

	if !a.cfg.Clients.Strava.HasCredentials() {
		fmt.Fprintln(os.Stderr, "Missing Strava API credentials.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Set these environment variables:")
		fmt.Fprintln(os.Stderr, "  export STRAVA_CLIENT_ID='your_client_id'")
		fmt.Fprintln(os.Stderr, "  export STRAVA_CLIENT_SECRET='your_client_secret'")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your credentials at: https://www.strava.com/settings/api")
		return 1
	}

	mode := auth.ModeLocalCallback
	if *manual {
		mode = auth.ModeManual
	}

	fmt.Println("Starting Strava authentication...")
	exchange, err := a.authn.Authorize(context.Background(), mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		return 1
	}

	fmt.Printf("Authenticated as %s (ID: %d)\n", exchange.AthleteName(), exchange.Athlete.ID)
	fmt.Printf("Tokens saved to %s\n", a.store.Path())
	return 0
}

// exportOptions carries the flags shared by export and sync.
type exportOptions struct {
	output  string
	after   time.Time
	before  time.Time
	force   bool
	noMedia bool
	dryRun  bool
	verbose bool
}

func exportCmd(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", "", "output directory for exported files")
	days := fs.Int("days", 0, "export activities from the last N days")
	afterStr := fs.String("after", "", "export activities after this date (YYYY-MM-DD)")
	beforeStr := fs.String("before", "", "export activities before this date (YYYY-MM-DD)")
	force := fs.Bool("force", false, "overwrite existing files")
	noMedia := fs.Bool("no-media", false, "skip downloading photos")
	dryRun := fs.Bool("dry-run", false, "show what would be exported without writing files")
	verbose := fs.Bool("verbose", false, "show detailed output")
	fs.Parse(args)

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stravamark: %v\n", err)
		return 1
	}

	opts := exportOptions{
		output:  a.cfg.Export.OutputDir,
		force:   *force,
		noMedia: *noMedia,
		dryRun:  *dryRun,
		verbose: *verbose,
	}
	if *output != "" {
		opts.output = *output
	}

	if *afterStr != "" {
		t, err := time.Parse(dateFormat, *afterStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stravamark: invalid --after date: %v\n", err)
			return 1
		}
		opts.after = t
	}
	if *beforeStr != "" {
		t, err := time.Parse(dateFormat, *beforeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stravamark: invalid --before date: %v\n", err)
			return 1
		}
		opts.before = t
	}

	window := a.cfg.Export.Days
	if *days > 0 {
		window = *days
	}
	if opts.after.IsZero() {
		opts.after = time.Now().AddDate(0, 0, -window)
	}
	if opts.before.IsZero() {
		opts.before = time.Now()
	}

	return runExport(a, opts)
}

func syncCmd(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	output := fs.String("output", "", "output directory for exported files")
	force := fs.Bool("force", false, "overwrite existing files")
	noMedia := fs.Bool("no-media", false, "skip downloading photos")
	verbose := fs.Bool("verbose", false, "show detailed output")
	fs.Parse(args)

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stravamark: %v\n", err)
		return 1
	}

	opts := exportOptions{
		output:  a.cfg.Export.OutputDir,
		force:   *force,
		noMedia: *noMedia,
		verbose: *verbose,
	}
	if *output != "" {
		opts.output = *output
	}

	statePath := filepath.Join(opts.output, ".stravamark_sync.json")
	state := exporter.LoadSyncState(statePath)

	started := time.Now()
	if !state.LastSync.IsZero() {
		opts.after = state.LastSync
	} else {
		opts.after = started.AddDate(0, 0, -a.cfg.Export.Days)
	}
	opts.before = started

	if code := runExport(a, opts); code != 0 {
		return code
	}

	if err := exporter.SaveSyncState(statePath, exporter.SyncState{LastSync: started}); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save sync state")
	}
	return 0
}

func runExport(a *app, opts exportOptions) int {
	ctx := context.Background()

	if !a.authn.IsAuthenticated() {
		fmt.Fprintln(os.Stderr, "Not authenticated. Run 'stravamark auth' first.")
		return 1
	}
	if !a.authn.EnsureValid(ctx) {
		fmt.Fprintln(os.Stderr, "Token refresh failed. Run 'stravamark auth' to re-authenticate.")
		return 1
	}

	common.PrintBanner(a.cfg, a.logger)

	fmt.Printf("Exporting activities from %s to %s\n",
		opts.after.Format(dateFormat), opts.before.Format(dateFormat))
	fmt.Printf("Output directory: %s\n", opts.output)
	if opts.dryRun {
		fmt.Println("DRY RUN - no files will be written")
	}
	fmt.Println()

	exp := exporter.New(opts.output, exporter.WithLogger(a.logger))
	if !opts.dryRun {
		if err := exp.SetupDirectories(); err != nil {
			fmt.Fprintf(os.Stderr, "stravamark: %v\n", err)
			return 1
		}
	}

	fmt.Println("Fetching activity list from Strava...")
	var summaries []models.ActivitySummary
	for summary, err := range a.client.Activities(ctx, strava.ActivityFilter{
		After:  opts.after,
		Before: opts.before,
	}) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "API error: %v\n", err)
			return 1
		}
		summaries = append(summaries, summary)
	}
	fmt.Printf("   Found %d activities\n\n", len(summaries))

	var exported, skipped, failed int
	for _, summary := range summaries {
		activity, err := a.client.GetActivity(ctx, summary.ID)
		if err != nil {
			failed++
			if opts.verbose {
				fmt.Printf("   Failed: %s - %v\n", summary.Name, err)
			}
			continue
		}

		if !opts.force && exp.Exists(activity) {
			skipped++
			if opts.verbose {
				fmt.Printf("   Skipped (exists): %s\n", activity.Name)
			}
			continue
		}

		if opts.dryRun {
			exported++
			if opts.verbose {
				fmt.Printf("   Would export: %s\n", activity.Name)
			}
			continue
		}

		path, err := exp.Export(activity, opts.force, !opts.noMedia)
		if err != nil {
			failed++
			if opts.verbose {
				fmt.Printf("   Failed: %s - %v\n", activity.Name, err)
			}
			continue
		}
		if path == "" {
			skipped++
			continue
		}
		exported++
		if opts.verbose {
			fmt.Printf("   Exported: %s\n", activity.Name)
		}
	}

	fmt.Println()
	fmt.Println("Export complete!")
	fmt.Printf("   Exported: %d\n", exported)
	fmt.Printf("   Skipped:  %d\n", skipped)
	if failed > 0 {
		fmt.Printf("   Failed:   %d\n", failed)
	}
	fmt.Printf("   %s\n", a.client.RateLimitStatus())
	return 0
}

func statusCmd(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Parse(args)

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stravamark: %v\n", err)
		return 1
	}

	ctx := context.Background()

	fmt.Println("stravamark status")
	fmt.Println("========================================")

	if a.cfg.Clients.Strava.HasCredentials() {
		id := a.cfg.Clients.Strava.ClientID
		if len(id) > 8 {
			id = id[:8] + "..."
		}
		fmt.Println("API credentials configured")
		fmt.Printf("   Client ID: %s\n", id)
	} else {
		fmt.Println("API credentials not configured")
		fmt.Println("   Set STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET")
	}

	if !a.authn.IsAuthenticated() {
		fmt.Println("Not authenticated")
		fmt.Println("   Run 'stravamark auth' to authenticate")
		return 0
	}

	fmt.Println("OAuth tokens present")
	fmt.Printf("   Token file: %s\n", a.store.Path())

	if !a.authn.EnsureValid(ctx) {
		fmt.Println("Access token expired, refresh failed")
		fmt.Println("   Run 'stravamark auth' to re-authenticate")
		return 0
	}
	fmt.Println("Access token is valid")

	athlete, err := a.client.GetAthlete(ctx)
	if err != nil {
		fmt.Printf("Could not fetch athlete info: %v\n", err)
		return 0
	}

	name := fmt.Sprintf("%v %v", athlete["firstname"], athlete["lastname"])
	fmt.Printf("   Logged in as: %s\n", name)
	fmt.Printf("   %s\n", a.client.RateLimitStatus())
	return 0
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `Usage: stravamark [command] [flags]

Commands:
  auth      Authenticate with Strava via OAuth
  export    Export activities to Markdown files
  sync      Incremental export of new activities
  status    Show authentication and rate limit status
  version   Show version
  help      Show this help

Auth flags:
  --manual       Paste the redirect URL instead of running the local listener

Export flags:
  --output DIR   Output directory (default from config)
  --days N       Export activities from the last N days (default 30)
  --after DATE   Export activities after this date (YYYY-MM-DD)
  --before DATE  Export activities before this date (YYYY-MM-DD)
  --force        Overwrite existing files
  --no-media     Skip downloading photos
  --dry-run      Show what would be exported without writing files
  --verbose      Show detailed output

Sync flags:
  --output, --force, --no-media, --verbose (as above)`)
}
