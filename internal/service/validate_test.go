package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
)

func TestValidateRegister(t *testing.T) {
	t.Parallel()

	ok := model.RegisterInput{Username: "devuser", Email: "dev@movie-mate.com", Password: "devpass1", PhoneNumber: "+4915112345678"}
	require.NoError(t, ValidateRegister(ok))

	cases := map[string]struct {
		mut   func(*model.RegisterInput)
		field string
	}{
		"short username": {func(in *model.RegisterInput) { in.Username = "ab" }, "username"},
		"long username":  {func(in *model.RegisterInput) { in.Username = strings.Repeat("a", 33) }, "username"},
		"bad email":      {func(in *model.RegisterInput) { in.Email = "dev@movie" }, "email"},
		"spaced email":   {func(in *model.RegisterInput) { in.Email = "dev @movie-mate.com" }, "email"},
		"leading zero":   {func(in *model.RegisterInput) { in.PhoneNumber = "0123456789" }, "phoneNumber"},
		"short phone":    {func(in *model.RegisterInput) { in.PhoneNumber = "+12345" }, "phoneNumber"},
		"short password": {func(in *model.RegisterInput) { in.Password = "12345" }, "password"},
		"long password":  {func(in *model.RegisterInput) { in.Password = strings.Repeat("p", 73) }, "password"},
	}
	for name, tc := range cases {
		in := ok
		tc.mut(&in)
		err := ValidateRegister(in)
		require.ErrorIs(t, err, errs.ErrValidation, name)
		var ve *errs.ValidationError
		require.ErrorAs(t, err, &ve, name)
		require.Equal(t, tc.field, ve.Field, name)
	}
}

func TestNormalizeRegister_KeepsPassword(t *testing.T) {
	t.Parallel()
	got := NormalizeRegister(model.RegisterInput{Username: " dev ", Email: " a@b.co ", Password: " pw ", PhoneNumber: " +123 "})
	require.Equal(t, model.RegisterInput{Username: "dev", Email: "a@b.co", Password: " pw ", PhoneNumber: "+123"}, got)
}

func TestValidateLogin(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateLogin("devuser", "devpass1"))
	require.NoError(t, ValidateLogin("dev@movie-mate.com", "devpass1"))
	require.Error(t, ValidateLogin("", "devpass1"))
	require.Error(t, ValidateLogin("devuser", "   "))
	require.Error(t, ValidateLogin("de", "devpass1"))
	require.Error(t, ValidateLogin(strings.Repeat("d", 65), "devpass1"))
	require.Error(t, ValidateLogin("devuser", "short"))
}

func TestValidateRating(t *testing.T) {
	t.Parallel()

	ok := model.RatingInput{MovieID: "m1", Username: "devuser", Rate: 5, Review: "Loved every minute."}
	require.NoError(t, ValidateRating(ok))

	bad := []model.RatingInput{
		{Username: "devuser", Rate: 5, Review: ok.Review},
		{MovieID: "m1", Rate: 0, Review: ok.Review},
		{MovieID: "m1", Rate: 6, Review: ok.Review},
		{MovieID: "m1", Rate: 3, Review: "  too short   "},
		{MovieID: "m1", Rate: 3, Review: strings.Repeat("x", 801)},
		{MovieID: "m1", Rate: 3, Review: ok.Review, Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")},
	}
	for i, in := range bad {
		require.ErrorIs(t, ValidateRating(in), errs.ErrValidation, "case %d", i)
	}

	rate := 9
	require.Error(t, ValidateRatingUpdate(model.RatingUpdate{Rate: &rate}))
	review := "fine"
	require.Error(t, ValidateRatingUpdate(model.RatingUpdate{Review: &review}))
	require.NoError(t, ValidateRatingUpdate(model.RatingUpdate{}))
}

func TestValidateListName(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateListName("Weekend"))
	require.Error(t, ValidateListName(""))
	require.Error(t, ValidateListName(strings.Repeat("n", 101)))
	require.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" a", "b", "a ", ""}))
}
