package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/calzado-portal/internal/utils"
	"github.com/jrsteele09/calzado-portal/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		contains string
	}{
		{"valid", "Secreto123", ""},
		{"too short", "Ab1", "al menos 8 caracteres"},
		{"no uppercase", "secreto123", "mayúscula"},
		{"no lowercase", "SECRETO123", "minúscula"},
		{"no number", "SecretoSecreto", "número"},
		{"multibyte counts runes", "Ñandú123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.contains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestUser_DecodesAPIResponse(t *testing.T) {
	body := `{
		"id": "7d8f2c1e-0000-4000-8000-000000000001",
		"email": "ana@calzadojyr.com",
		"full_name": "Ana Rojas",
		"phone": null,
		"is_active": true,
		"is_validated": true,
		"role_name": "client",
		"business_name": null,
		"occupation": "Comerciante",
		"created_at": "2026-01-02T10:00:00Z",
		"updated_at": "2026-01-03T10:00:00Z"
	}`

	var u users.User
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	require.Equal(t, "Ana Rojas", u.FullName)
	require.Nil(t, u.Phone)
	require.Equal(t, "client", u.DisplayRole())
	require.Equal(t, "Comerciante", utils.Value(u.Occupation))
	require.False(t, u.PendingValidation())
}

func TestUser_DisplayRoleFallback(t *testing.T) {
	var nilUser *users.User
	require.Equal(t, "—", nilUser.DisplayRole())
	require.Equal(t, "—", (&users.User{}).DisplayRole())
	require.Equal(t, "—", (&users.User{RoleName: utils.Ptr("  ")}).DisplayRole())
}
