package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
)

// Input limits. The server re-validates everything.
const (
	UsernameMin   = 3
	UsernameMax   = 32
	EmailMax      = 254
	PasswordMin   = 6
	PasswordMax   = 72
	IdentifierMin = 3
	IdentifierMax = 64
	RateMin       = 1
	RateMax       = 5
	ReviewMin     = 10
	ReviewMax     = 800
	TagsMax       = 10
	ListNameMax   = 100
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

func runes(s string) int { return utf8.RuneCountInString(s) }

// NormalizeRegister trims every field but the password.
func NormalizeRegister(in model.RegisterInput) model.RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

// ValidateRegister checks a normalized registration form.
func ValidateRegister(in model.RegisterInput) error {
	switch n := runes(in.Username); {
	case n < UsernameMin:
		return errs.Invalid("username", "Username must be at least 3 characters.")
	case n > UsernameMax:
		return errs.Invalid("username", "Username must be at most 32 characters.")
	}
	if len(in.Email) > EmailMax || !emailRe.MatchString(in.Email) {
		return errs.Invalid("email", "Enter a valid email address.")
	}
	if !phoneRe.MatchString(in.PhoneNumber) {
		return errs.Invalid("phoneNumber", "Enter a valid phone number (7 to 15 digits, optional +).")
	}
	return validatePassword(in.Password)
}

func validatePassword(pw string) error {
	switch n := runes(pw); {
	case n < PasswordMin:
		return errs.Invalid("password", "Password must be at least 6 characters.")
	case n > PasswordMax:
		return errs.Invalid("password", "Password must be at most 72 characters.")
	}
	return nil
}

// ValidateLogin checks a login form; identifier is expected trimmed.
func ValidateLogin(identifier, password string) error {
	if identifier == "" || strings.TrimSpace(password) == "" {
		return errs.Invalid("identifier", "Please enter your username/email and password.")
	}
	if n := runes(identifier); n < IdentifierMin || n > IdentifierMax {
		return errs.Invalid("identifier", "Username or email must be 3 to 64 characters.")
	}
	return validatePassword(password)
}

// NormalizeTags trims tags and drops empty and repeated ones.
func NormalizeTags(tags []string) []string {
	return model.DedupIDs(tags)
}

func validateRate(rate int) error {
	if rate < RateMin || rate > RateMax {
		return errs.Invalid("rate", "Pick a rating from 1 to 5 stars.")
	}
	return nil
}

func validateReview(review string) error {
	switch n := runes(strings.TrimSpace(review)); {
	case n < ReviewMin:
		return errs.Invalid("review", "Review must be at least 10 characters.")
	case n > ReviewMax:
		return errs.Invalid("review", "Review must be at most 800 characters.")
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > TagsMax {
		return errs.Invalid("tags", "Use at most 10 tags.")
	}
	return nil
}

// ValidateRating checks a normalized rating submission.
func ValidateRating(in model.RatingInput) error {
	if in.MovieID == "" {
		return errs.Invalid("movie_id", "Movie is required.")
	}
	if err := validateRate(in.Rate); err != nil {
		return err
	}
	if err := validateReview(in.Review); err != nil {
		return err
	}
	return validateTags(in.Tags)
}

// ValidateRatingUpdate checks the present fields of an update.
func ValidateRatingUpdate(upd model.RatingUpdate) error {
	if upd.Rate != nil {
		if err := validateRate(*upd.Rate); err != nil {
			return err
		}
	}
	if upd.Review != nil {
		if err := validateReview(*upd.Review); err != nil {
			return err
		}
	}
	if upd.Tags != nil {
		return validateTags(*upd.Tags)
	}
	return nil
}

// ValidateListName checks a trimmed watchlist name.
func ValidateListName(name string) error {
	if name == "" {
		return errs.Invalid("name", "Watchlist name is required.")
	}
	if runes(name) > ListNameMax {
		return errs.Invalid("name", "Watchlist name must be at most 100 characters.")
	}
	return nil
}
