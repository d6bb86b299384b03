package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

func ratings(v int) Ratings {
	return Ratings{Taste: v, Freshness: v, LocationRating: v, Aesthetics: v, Splash: v, Jet: v}
}

func TestRatings_Overall(t *testing.T) {
	tests := []struct {
		name string
		r    Ratings
		want float64
	}{
		{"mixed", Ratings{Taste: 5, Freshness: 4, LocationRating: 3, Aesthetics: 5, Splash: 2, Jet: 5}, 24.0 / 6.0},
		{"all fives", ratings(5), 5.0},
		{"all ones", ratings(1), 1.0},
		{"sample review", Ratings{Taste: 4, Freshness: 5, LocationRating: 3, Aesthetics: 4, Splash: 3, Jet: 5}, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.r.Overall(), 1e-9)
		})
	}
}

func TestRatings_OverallIsMeanForAllValidCombinations(t *testing.T) {
	for a := MinRating; a <= MaxRating; a++ {
		for b := MinRating; b <= MaxRating; b++ {
			r := Ratings{Taste: a, Freshness: b, LocationRating: a, Aesthetics: b, Splash: a, Jet: b}
			require.NoError(t, r.Validate())
			assert.InDelta(t, float64(a+b)/2.0, r.Overall(), 1e-9)
		}
	}
}

func TestNewCreateReviewRequest_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Ratings)
		field string
	}{
		{"taste low", func(r *Ratings) { r.Taste = 0 }, "taste"},
		{"taste high", func(r *Ratings) { r.Taste = 6 }, "taste"},
		{"freshness low", func(r *Ratings) { r.Freshness = 0 }, "freshness"},
		{"freshness high", func(r *Ratings) { r.Freshness = 6 }, "freshness"},
		{"location low", func(r *Ratings) { r.LocationRating = 0 }, "location_rating"},
		{"aesthetics low", func(r *Ratings) { r.Aesthetics = 0 }, "aesthetics"},
		{"splash low", func(r *Ratings) { r.Splash = 0 }, "splash"},
		{"jet low", func(r *Ratings) { r.Jet = 0 }, "jet"},
		{"jet high", func(r *Ratings) { r.Jet = 42 }, "jet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ratings(3)
			tt.mod(&r)
			_, err := NewCreateReviewRequest("fountain-1", r, nil)
			require.Error(t, err)
			se := svcerrors.GetServiceError(err)
			require.NotNil(t, se)
			assert.Equal(t, svcerrors.ErrCodeValidation, se.Code)
			assert.Equal(t, tt.field, se.Details["field"])
		})
	}
}

func TestNewCreateReviewRequest_Boundaries(t *testing.T) {
	r := Ratings{Taste: 1, Freshness: 5, LocationRating: 1, Aesthetics: 5, Splash: 1, Jet: 5}
	req, err := NewCreateReviewRequest("fountain-1", r, nil)
	require.NoError(t, err)
	assert.Equal(t, r, req.Ratings)
	assert.Nil(t, req.Comment)
	assert.InDelta(t, 3.0, req.Overall(), 1e-9)
}

func TestNewCreateReviewRequest_Comment(t *testing.T) {
	blank := "   "
	req, err := NewCreateReviewRequest("fountain-1", ratings(3), &blank)
	require.NoError(t, err)
	assert.Nil(t, req.Comment)

	text := "  Great water!  "
	req, err = NewCreateReviewRequest("fountain-1", ratings(3), &text)
	require.NoError(t, err)
	require.NotNil(t, req.Comment)
	assert.Equal(t, "Great water!", *req.Comment)
}

func TestNewCreateReviewRequest_RequiresFountain(t *testing.T) {
	_, err := NewCreateReviewRequest(" ", ratings(3), nil)
	assert.True(t, svcerrors.IsCode(err, svcerrors.ErrCodeValidation))
}

func TestParseUserRole(t *testing.T) {
	tests := map[string]UserRole{
		"admin":            RoleAdmin,
		"ADMIN":            RoleAdmin,
		"AdMiN":            RoleAdmin,
		"operator":         RoleOperator,
		"OPERATOR":         RoleOperator,
		"OpErAtOr":         RoleOperator,
		"unknown":          RoleOperator,
		"":                 RoleOperator,
		"invalid_role_123": RoleOperator,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseUserRole(in), "ParseUserRole(%q)", in)
	}
}

func TestBestFountain(t *testing.T) {
	t.Run("picks highest reviewed", func(t *testing.T) {
		fs := []Fountain{
			{Codi: "a", AverageRating: 5.0, TotalReviews: 0},
			{Codi: "b", AverageRating: 3.5, TotalReviews: 2},
			{Codi: "c", AverageRating: 4.2, TotalReviews: 5},
		}
		best := BestFountain(fs)
		require.NotNil(t, best)
		assert.Equal(t, "c", best.Codi)
	})

	t.Run("first maximum wins ties", func(t *testing.T) {
		fs := []Fountain{
			{Codi: "x", AverageRating: 4.0, TotalReviews: 1},
			{Codi: "y", AverageRating: 4.0, TotalReviews: 9},
		}
		best := BestFountain(fs)
		require.NotNil(t, best)
		assert.Equal(t, "x", best.Codi)
	})

	t.Run("none reviewed", func(t *testing.T) {
		assert.Nil(t, BestFountain([]Fountain{{Codi: "a"}}))
		assert.Nil(t, BestFountain(nil))
	})

	t.Run("returns a copy", func(t *testing.T) {
		fs := []Fountain{{Codi: "a", AverageRating: 2, TotalReviews: 1}}
		best := BestFountain(fs)
		best.Nom = "changed"
		assert.Empty(t, fs[0].Nom)
	})
}

func TestActiveFountains(t *testing.T) {
	fs := []Fountain{{Codi: "a"}, {Codi: "b", IsDeleted: true}, {Codi: "c"}}
	got := ActiveFountains(fs)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Codi)
	assert.Equal(t, "c", got[1].Codi)
}

func TestCreateFountainRequest_Validate(t *testing.T) {
	valid := CreateFountainRequest{Nom: "Font", Carrer: "Carrer Major", NumeroCarrer: "1", Latitude: 41.3851, Longitude: 2.1734}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		mod  func(*CreateFountainRequest)
	}{
		{"blank name", func(r *CreateFountainRequest) { r.Nom = " " }},
		{"blank street", func(r *CreateFountainRequest) { r.Carrer = "" }},
		{"latitude", func(r *CreateFountainRequest) { r.Latitude = 91 }},
		{"longitude", func(r *CreateFountainRequest) { r.Longitude = -181 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mod(&r)
			assert.True(t, svcerrors.IsCode(r.Validate(), svcerrors.ErrCodeValidation))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	for _, bad := range []string{"", "  ", "plain", "a@b", "Name <user@example.com>", string(make([]byte, 256))} {
		assert.Error(t, ValidateEmail(bad), "ValidateEmail(%q)", bad)
	}
}

func TestValidateNickname(t *testing.T) {
	for _, ok := range []string{"abc", "water_lover_99", "ABCDEFGHIJKLMNOPQRST"} {
		assert.NoError(t, ValidateNickname(ok), ok)
	}
	for _, bad := range []string{"", "ab", "ABCDEFGHIJKLMNOPQRSTU", "has space", "dash-name", "ñandú"} {
		assert.Error(t, ValidateNickname(bad), bad)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("123456"))
}
