// Command mm is a command-line client for MovieMate.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/app"
	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/session"
	"github.com/and161185/movie-mate/internal/transport"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	msgLoginRequired  = `login required: run "mm login"`
	msgSessionExpired = `session expired: run "mm login"`
)

// errUsage marks bad arguments; the command prints its own hint.
var errUsage = errors.New("usage")

// publicCommands run without a session.
var publicCommands = []string{"version", "register", "movies", "search", "movie", "genres"}

var commands = []string{
	"version", "register", "login", "logout", "whoami",
	"movies", "search", "movie", "genres",
	"watchlists", "watchlist-movies", "watchlist-create", "watchlist-rename",
	"watchlist-add", "watchlist-remove", "watchlist-delete",
	"ratings", "rate", "rate-update", "rate-delete", "recommend",
}

func usage(w io.Writer) {
	fmt.Fprint(w, `mm CLI
Usage:
  mm [-config file] [-dev] [-metrics] <cmd> [args]

Commands:
  version
  register          -u <username> -e <email> -p <password> -phone <number>
  login             -u <username|email> -p <password>
  logout
  whoami
  movies            [-page N] [-size N]
  search            -q <query> [-page N] [-limit N]
  movie             -id <movie>
  genres            [-top]
  watchlists        [-page N] [-size N]
  watchlist-movies  -id <watchlist>
  watchlist-create  -name <name> [-movies id,id]
  watchlist-rename  -id <watchlist> -name <name>
  watchlist-add     -id <watchlist> -movie <movie>
  watchlist-remove  -id <watchlist> -movie <movie>
  watchlist-delete  -id <watchlist>
  ratings           -movie <movie>
  rate              -movie <movie> -rate 1..5 -review <text> [-tags a,b]
  rate-update       -movie <movie> [-rate 1..5] [-review <text>] [-tags a,b]
  rate-delete       -movie <movie>
  recommend
`)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run parses global flags, wires the client and dispatches one command.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to config file")
	dev := fs.Bool("dev", false, "use the built-in mock backend")
	withMetrics := fs.Bool("metrics", false, "print client metrics to stderr on exit")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if !slices.Contains(commands, cmd) {
		usage(stderr)
		return 2
	}

	if cmd == "version" {
		fmt.Fprintf(stdout, "mm %s (%s)\n", version, buildDate)
		return 0
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if *dev {
		cfg.DevMode = true
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	var reg *prometheus.Registry
	opts := app.Options{Log: log}
	if *withMetrics {
		reg = prometheus.NewRegistry()
		opts.Registry = reg
	}
	var expired atomic.Bool
	opts.Navigator = transport.NavigatorFunc(func(context.Context) { expired.Store(true) })

	a, err := app.New(cfg, opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if reg != nil {
		defer dumpMetrics(stderr, reg)
	}

	guard := session.NewGuard("login", publicCommands...)
	if guard.Decide(a.Session.State(), cmd) == session.Redirect {
		fmt.Fprintln(stderr, msgLoginRequired)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	err = dispatch(ctx, a, cmd, rest, stdout, stderr)
	log.Debug("command", zap.String("cmd", cmd), zap.Duration("dur", time.Since(start)), zap.Error(err))

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case expired.Load() || errs.KindOf(err) == errs.KindSessionExpired:
		fmt.Fprintln(stderr, msgSessionExpired)
		return 1
	default:
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
}

func dispatch(ctx context.Context, a *app.App, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "register":
		return cmdRegister(ctx, a, args, stdout, stderr)
	case "login":
		return cmdLogin(ctx, a, args, stdout, stderr)
	case "logout":
		if err := a.Auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	case "whoami":
		return cmdWhoami(a, stdout)
	case "movies":
		return cmdMovies(ctx, a, args, stdout, stderr)
	case "search":
		return cmdSearch(ctx, a, args, stdout, stderr)
	case "movie":
		return cmdMovie(ctx, a, args, stdout, stderr)
	case "genres":
		return cmdGenres(ctx, a, args, stdout, stderr)
	case "watchlists":
		return cmdWatchlists(ctx, a, args, stdout, stderr)
	case "watchlist-movies":
		return cmdWatchlistMovies(ctx, a, args, stdout, stderr)
	case "watchlist-create":
		return cmdWatchlistCreate(ctx, a, args, stdout, stderr)
	case "watchlist-rename":
		return cmdWatchlistRename(ctx, a, args, stdout, stderr)
	case "watchlist-add":
		return cmdWatchlistMembership(ctx, a, "watchlist-add", true, args, stdout, stderr)
	case "watchlist-remove":
		return cmdWatchlistMembership(ctx, a, "watchlist-remove", false, args, stdout, stderr)
	case "watchlist-delete":
		return cmdWatchlistDelete(ctx, a, args, stdout, stderr)
	case "ratings":
		return cmdRatings(ctx, a, args, stdout, stderr)
	case "rate":
		return cmdRate(ctx, a, args, stdout, stderr)
	case "rate-update":
		return cmdRateUpdate(ctx, a, args, stdout, stderr)
	case "rate-delete":
		return cmdRateDelete(ctx, a, args, stdout, stderr)
	case "recommend":
		return cmdRecommend(ctx, a, stdout)
	}
	return errUsage
}

// ---- auth ----

func cmdRegister(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("register", stderr)
	u := fs.String("u", "", "username")
	e := fs.String("e", "", "email")
	p := fs.String("p", "", "password")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := a.Auth.Register(ctx, model.RegisterInput{Username: *u, Email: *e, Password: *p, PhoneNumber: *phone})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "registered and logged in as %s\n", user.Username)
	return nil
}

func cmdLogin(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("login", stderr)
	u := fs.String("u", "", "username or email")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := a.Auth.Login(ctx, *u, *p)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "logged in as %s\n", user.Username)
	return nil
}

func cmdWhoami(a *app.App, stdout io.Writer) error {
	st := a.Session.State()
	if st.User == nil {
		return errors.New("no user profile in session")
	}
	printJSON(stdout, struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Roles     []string  `json:"roles"`
		ExpiresAt time.Time `json:"access_expires_at,omitzero"`
	}{st.User.ID, st.User.Username, st.User.Email, st.User.Roles, tokenExpiry(st.AccessToken)})
	return nil
}

// tokenExpiry reads exp from a JWT without verifying it; zero for opaque tokens.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// ---- catalog ----

func cmdMovies(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("movies", stderr)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", model.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	p, err := a.Catalog.Movies(ctx, *page, *size)
	if err != nil {
		return err
	}
	printMoviePage(stdout, p)
	return nil
}

func cmdSearch(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("search", stderr)
	q := fs.String("q", "", "query")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", model.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *q == "" && fs.NArg() > 0 {
		*q = strings.Join(fs.Args(), " ")
	}
	p, err := a.Catalog.Search(ctx, *q, *page, *limit)
	if err != nil {
		return err
	}
	printMoviePage(stdout, p)
	return nil
}

func cmdMovie(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("movie", stderr)
	id := fs.String("id", "", "movie id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		fmt.Fprintln(stderr, "need -id")
		return errUsage
	}
	m, err := a.Catalog.Movie(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(stdout, m)
	return nil
}

func cmdGenres(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("genres", stderr)
	top := fs.Bool("top", false, "only the top genres")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var (
		genres []model.Genre
		err    error
	)
	if *top {
		genres, err = a.Catalog.TopGenres(ctx)
	} else {
		genres, err = a.Catalog.Genres(ctx)
	}
	if err != nil {
		return err
	}
	for _, g := range genres {
		fmt.Fprintf(stdout, "%s\t%s\n", g.ID, g.Name)
	}
	return nil
}

// ---- helpers ----

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printMoviePage(w io.Writer, p model.Page[model.DetailedMovie]) {
	for _, m := range p.Elements {
		fmt.Fprintf(w, "%s\t%s (%d)\n", m.ID, m.Title, m.ReleaseYear())
	}
	fmt.Fprintf(w, "page %d/%d, %d total\n", p.PageNo, p.TotalPages, p.TotalElements)
}

// describe renders an error for the terminal, preferring the server's user message.
func describe(err error) string { return errs.UserMessage(err) }

func dumpMetrics(w io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintln(w, "metrics:", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), v)
		}
	}
}
