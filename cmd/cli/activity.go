package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"

	"github.com/and161185/movie-mate/internal/app"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/service"
)

// ------- session helpers -------

func currentUser(a *app.App) (model.UserProfile, error) {
	u, ok := a.Session.User()
	if !ok {
		return model.UserProfile{}, errors.New("no user profile in session")
	}
	return u, nil
}

// findWatchlist looks the id up among the first MembershipPageSize watchlists of the user.
func findWatchlist(ctx context.Context, a *app.App, username, id string) (model.Watchlist, error) {
	lists, err := a.Watchlists.List(ctx, username, 1, service.MembershipPageSize)
	if err != nil {
		return model.Watchlist{}, err
	}
	for _, w := range lists.Elements {
		if w.ID == id {
			return w, nil
		}
	}
	return model.Watchlist{}, fmt.Errorf("watchlist %q not found", id)
}

func requireFlag(stderr io.Writer, name, v string) error {
	if v == "" {
		fmt.Fprintf(stderr, "need -%s\n", name)
		return errUsage
	}
	return nil
}

// ------- watchlists -------

func cmdWatchlists(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watchlists", stderr)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", model.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	p, err := a.Watchlists.List(ctx, u.Username, *page, *size)
	if err != nil {
		return err
	}
	for _, w := range p.Elements {
		fmt.Fprintf(stdout, "%s\t%s\t%d movies\n", w.ID, w.Name, len(w.MoviesID))
	}
	fmt.Fprintf(stdout, "page %d/%d, %d total\n", p.PageNo, p.TotalPages, p.TotalElements)
	return nil
}

func cmdWatchlistMovies(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watchlist-movies", stderr)
	id := fs.String("id", "", "watchlist id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "id", *id); err != nil {
		return err
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	w, err := findWatchlist(ctx, a, u.Username, *id)
	if err != nil {
		return err
	}
	movies, err := a.Watchlists.Movies(ctx, w.MoviesID)
	if err != nil {
		return err
	}
	for _, m := range movies {
		fmt.Fprintf(stdout, "%s\t%s (%d)\n", m.ID, m.Title, m.ReleaseYear())
	}
	return nil
}

func cmdWatchlistCreate(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watchlist-create", stderr)
	name := fs.String("name", "", "watchlist name")
	movies := fs.String("movies", "", "comma-separated movie ids")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	w, err := a.Watchlists.Create(ctx, u.Username, *name, splitList(*movies))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created %s\t%s\n", w.ID, w.Name)
	return nil
}

func cmdWatchlistRename(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watchlist-rename", stderr)
	id := fs.String("id", "", "watchlist id")
	name := fs.String("name", "", "new name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "id", *id); err != nil {
		return err
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	w, err := findWatchlist(ctx, a, u.Username, *id)
	if err != nil {
		return err
	}
	saved, err := a.Watchlists.Rename(ctx, w, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "renamed %s\t%s\n", saved.ID, saved.Name)
	return nil
}

// cmdWatchlistMembership adds or removes one movie through SetMembership, so only the
// named watchlist changes.
func cmdWatchlistMembership(ctx context.Context, a *app.App, name string, add bool, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet(name, stderr)
	id := fs.String("id", "", "watchlist id")
	movie := fs.String("movie", "", "movie id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "id", *id); err != nil {
		return err
	}
	if err := requireFlag(stderr, "movie", *movie); err != nil {
		return err
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	lists, err := a.Watchlists.List(ctx, u.Username, 1, service.MembershipPageSize)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(lists.Elements, func(w model.Watchlist) bool { return w.ID == *id }) {
		return fmt.Errorf("watchlist %q not found", *id)
	}

	var selected []string
	for _, w := range lists.Elements {
		has := w.Contains(*movie)
		if w.ID == *id {
			has = add
		}
		if has {
			selected = append(selected, w.ID)
		}
	}
	if err := a.Watchlists.SetMembership(ctx, u.Username, *movie, selected); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}

func cmdWatchlistDelete(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("watchlist-delete", stderr)
	id := fs.String("id", "", "watchlist id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "id", *id); err != nil {
		return err
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	w, err := findWatchlist(ctx, a, u.Username, *id)
	if err != nil {
		return err
	}
	if err := a.Watchlists.Delete(ctx, w); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "deleted", w.ID)
	return nil
}

// ------- ratings -------

func cmdRatings(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("ratings", stderr)
	movie := fs.String("movie", "", "movie id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "movie", *movie); err != nil {
		return err
	}
	list, err := a.Ratings.ForMovie(ctx, *movie)
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Fprintf(stdout, "%s\t%s\t%d\t%s\n", r.ID, r.Username, r.Rate, r.Review)
	}
	return nil
}

// mine returns the user's rating of movie.
func mine(ctx context.Context, a *app.App, movie string) (model.MovieRating, error) {
	u, err := currentUser(a)
	if err != nil {
		return model.MovieRating{}, err
	}
	r, ok, err := a.Ratings.Mine(ctx, movie, u.Username)
	if err != nil {
		return model.MovieRating{}, err
	}
	if !ok {
		return model.MovieRating{}, fmt.Errorf("you have not rated %q", movie)
	}
	return r, nil
}

func cmdRate(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("rate", stderr)
	movie := fs.String("movie", "", "movie id")
	rate := fs.Int("rate", 0, "stars, 1..5")
	review := fs.String("review", "", "review text")
	tags := fs.String("tags", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "movie", *movie); err != nil {
		return err
	}
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	saved, err := a.Ratings.Submit(ctx, model.RatingInput{
		MovieID:  *movie,
		Username: u.Username,
		Rate:     *rate,
		Review:   *review,
		Tags:     splitList(*tags),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "rated %s\t%d\t%s\n", saved.MovieID, saved.Rate, saved.ID)
	return nil
}

func cmdRateUpdate(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("rate-update", stderr)
	movie := fs.String("movie", "", "movie id")
	rate := fs.Int("rate", 0, "stars, 1..5")
	review := fs.String("review", "", "review text")
	tags := fs.String("tags", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "movie", *movie); err != nil {
		return err
	}

	var upd model.RatingUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			upd.Rate = rate
		case "review":
			upd.Review = review
		case "tags":
			t := splitList(*tags)
			upd.Tags = &t
		}
	})
	if upd.Rate == nil && upd.Review == nil && upd.Tags == nil {
		fmt.Fprintln(stderr, "need at least one of -rate -review -tags")
		return errUsage
	}

	r, err := mine(ctx, a, *movie)
	if err != nil {
		return err
	}
	saved, err := a.Ratings.Update(ctx, r, upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated %s\t%d\n", saved.ID, saved.Rate)
	return nil
}

func cmdRateDelete(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("rate-delete", stderr)
	movie := fs.String("movie", "", "movie id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := requireFlag(stderr, "movie", *movie); err != nil {
		return err
	}
	r, err := mine(ctx, a, *movie)
	if err != nil {
		return err
	}
	if err := a.Ratings.Delete(ctx, r); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "deleted", r.ID)
	return nil
}

// ------- recommendations -------

func cmdRecommend(ctx context.Context, a *app.App, stdout io.Writer) error {
	u, err := currentUser(a)
	if err != nil {
		return err
	}
	feed, err := a.Recommendations.Feed(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(feed.Recommended) == 0 {
		fmt.Fprintln(stdout, "no recommendations yet")
		return nil
	}
	for _, it := range feed.Recommended {
		fmt.Fprintf(stdout, "%s\t%s (%d)\t%s\n", it.Movie.ID, it.Movie.Title, it.Movie.ReleaseYear, it.MatchLabel())
	}
	return nil
}
