package devserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/movie-mate/internal/convert"
	"github.com/and161185/movie-mate/internal/model"
)

const (
	msgBadBody  = "malformed request body"
	msgBadPage  = "page and size must be positive integers"
	msgNotOwner = "username does not match the token"
)

func authBody(res model.AuthResponse) convert.BackendAuthResponse {
	return convert.BackendAuthResponse{
		UserDetails:  convert.ToBackendUser(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
}

func wrappedMovie(m model.DetailedMovie) convert.BackendMovie { return convert.ToBackendMovie(m, true) }

func wrappedWatchlist(w model.Watchlist) convert.BackendWatchlist {
	return convert.ToBackendWatchlist(w, true)
}

func wrappedRating(r model.MovieRating) convert.BackendMovieRating {
	return convert.ToBackendRating(r, true)
}

// owner resolves the username a write acts for: the token subject unless the body names
// another user, which is forbidden.
func owner(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	username, _ := UsernameFromCtx(r.Context())
	if claimed != "" && !strings.EqualFold(claimed, username) {
		writeAPIError(w, r, http.StatusForbidden, errNameForbidden, msgNotOwner, "You can only change your own data.")
		return "", false
	}
	return username, true
}

/************ auth ************/

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	res, err := s.auth.LoginWithIP(r.Context(), in.Identifier, in.Password, remoteIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authBody(res))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	res, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authBody(res))
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	rt := r.URL.Query().Get("refreshToken")
	if rt == "" {
		writeUnauthorized(w, r, "refresh token required")
		return
	}
	pair, err := s.auth.Refresh(r.Context(), rt)
	if err != nil {
		writeUnauthorized(w, r, "refresh token is invalid or expired")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

/************ movies ************/

func (s *Server) allMovies(w http.ResponseWriter, r *http.Request) {
	page, ok1 := intParam(r, "page", 1)
	size, ok2 := intParam(r, "pageSize", model.DefaultPageSize)
	if !ok1 || !ok2 {
		writeMessage(w, http.StatusBadRequest, msgBadPage)
		return
	}
	p, err := s.data.GetAllMovies(r.Context(), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendPage(p, wrappedMovie))
}

func (s *Server) searchMovies(w http.ResponseWriter, r *http.Request) {
	page, ok1 := intParam(r, "page", 1)
	limit, ok2 := intParam(r, "limit", model.DefaultPageSize)
	if !ok1 || !ok2 {
		writeMessage(w, http.StatusBadRequest, msgBadPage)
		return
	}
	p, err := s.data.SearchMovies(r.Context(), r.URL.Query().Get("query"), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendPage(p, wrappedMovie))
}

// genres lists bare names, the older shape of the endpoint.
func (s *Server) genres(w http.ResponseWriter, r *http.Request) {
	all, err := s.data.GetAllGenres(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	names := make([]string, 0, len(all))
	for _, g := range all {
		names = append(names, g.Name)
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) topGenres(w http.ResponseWriter, r *http.Request) {
	top, err := s.data.GetTopGenres(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]convert.BackendGenre, 0, len(top))
	for _, g := range top {
		out = append(out, convert.BackendGenre{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) moviesByIDs(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	list, err := s.data.GetMoviesByIDs(r.Context(), in.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendMovies(list, true))
}

func (s *Server) movie(w http.ResponseWriter, r *http.Request) {
	m, err := s.data.GetMovieByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendMovie(m, false))
}

/************ activity ************/

func (s *Server) userWatchlists(w http.ResponseWriter, r *http.Request) {
	username, ok := owner(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}
	page, ok1 := intParam(r, "page", 1)
	size, ok2 := intParam(r, "size", model.DefaultPageSize)
	if !ok1 || !ok2 {
		writeMessage(w, http.StatusBadRequest, msgBadPage)
		return
	}
	p, err := s.data.GetUserWatchlists(r.Context(), username, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendPage(p, wrappedWatchlist))
}

func (s *Server) createWatchlist(w http.ResponseWriter, r *http.Request) {
	var in model.WatchlistInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	username, ok := owner(w, r, in.Username)
	if !ok {
		return
	}
	in.Username = username
	created, err := s.data.CreateWatchlist(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wrappedWatchlist(created))
}

func (s *Server) updateWatchlist(w http.ResponseWriter, r *http.Request) {
	var upd model.WatchlistUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	saved, err := s.data.UpdateWatchlist(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wrappedWatchlist(saved))
}

func (s *Server) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	if _, err := s.data.DeleteWatchlist(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitRating(w http.ResponseWriter, r *http.Request) {
	var in model.RatingInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	username, ok := owner(w, r, in.Username)
	if !ok {
		return
	}
	in.Username = username
	saved, err := s.data.SubmitRating(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wrappedRating(saved))
}

func (s *Server) updateRating(w http.ResponseWriter, r *http.Request) {
	var upd model.RatingUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	saved, err := s.data.UpdateRating(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendRating(saved, false))
}

func (s *Server) deleteRating(w http.ResponseWriter, r *http.Request) {
	if _, err := s.data.DeleteRating(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// movieRatings answers with a page envelope holding every rating of the movie.
func (s *Server) movieRatings(w http.ResponseWriter, r *http.Request) {
	list, err := s.data.GetRatingsByMovieID(r.Context(), chi.URLParam(r, "movieId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := model.NewPage(list, 1, max(len(list), 1), len(list))
	writeJSON(w, http.StatusOK, convert.ToBackendPage(p, wrappedRating))
}

/************ recommendation ************/

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	recs, err := s.data.GetRecommendations(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBackendRecommendations(recs))
}
