package jwt_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/calzado-portal/token/jwt"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("api-secret"))
	require.NoError(t, err)
	return raw
}

func withNow(t *testing.T) {
	t.Helper()
	prev := jwt.NowTimeFunc
	jwt.NowTimeFunc = func() time.Time { return testNow }
	t.Cleanup(func() { jwt.NowTimeFunc = prev })
}

func TestIntrospect(t *testing.T) {
	withNow(t)
	raw := signed(t, jwtlib.MapClaims{
		"sub":  "user-1",
		"type": "access",
		"exp":  testNow.Add(30 * time.Minute).Unix(),
	})

	ti, err := jwt.Introspect(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", ti.Sub)
	require.Equal(t, "access", ti.Type)
	require.True(t, ti.ExpiresAt.Equal(testNow.Add(30*time.Minute)))
	require.False(t, ti.Expired())
}

func TestIntrospect_Invalid(t *testing.T) {
	_, err := jwt.Introspect("")
	require.ErrorIs(t, err, jwt.ErrEmptyToken)

	_, err = jwt.Introspect("not-a-jwt")
	require.Error(t, err)

	_, ok := jwt.ExpiresAt("opaque-token")
	require.False(t, ok)
}

func TestTTL(t *testing.T) {
	withNow(t)

	tests := []struct {
		name  string
		token string
		want  time.Duration
	}{
		{
			name:  "future exp",
			token: signed(t, jwtlib.MapClaims{"sub": "u", "exp": testNow.Add(7 * 24 * time.Hour).Unix()}),
			want:  7 * 24 * time.Hour,
		},
		{
			name:  "already expired",
			token: signed(t, jwtlib.MapClaims{"sub": "u", "exp": testNow.Add(-time.Minute).Unix()}),
			want:  0,
		},
		{
			name:  "no exp claim",
			token: signed(t, jwtlib.MapClaims{"sub": "u"}),
			want:  time.Hour,
		},
		{
			name:  "not a jwt",
			token: "opaque",
			want:  time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, jwt.TTL(tt.token, time.Hour))
		})
	}
}

func TestCreator_TokensIntrospect(t *testing.T) {
	withNow(t)
	c := jwt.NewCreator([]byte("api-secret"), jwt.WithExpiries(15*time.Minute, 24*time.Hour))

	access, refresh, err := c.CreatePair("user-9")
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	ti, err := jwt.Introspect(access)
	require.NoError(t, err)
	require.Equal(t, "user-9", ti.Sub)
	require.Equal(t, jwt.TypeAccess, ti.Type)
	require.True(t, ti.ExpiresAt.Equal(testNow.Add(15*time.Minute)))

	ti, err = jwt.Introspect(refresh)
	require.NoError(t, err)
	require.Equal(t, jwt.TypeRefresh, ti.Type)
	require.Equal(t, 24*time.Hour, jwt.TTL(refresh, time.Minute))
}

func TestCreator_DefaultExpiries(t *testing.T) {
	withNow(t)
	c := jwt.NewCreator([]byte("api-secret"))

	access, err := c.CreateAccessToken("u")
	require.NoError(t, err)
	exp, ok := jwt.ExpiresAt(access)
	require.True(t, ok)
	require.True(t, exp.Equal(testNow.Add(jwt.DefaultAccessTokenExpiry)))

	refresh, err := c.CreateRefreshToken("u")
	require.NoError(t, err)
	require.Equal(t, jwt.DefaultRefreshTokenExpiry, jwt.TTL(refresh, 0))
}
