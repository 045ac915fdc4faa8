package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/calzado-portal/internal/utils"
)

const minPasswordLength = 8

// User is the profile returned by the API for the authenticated account.
// It is replaced wholesale on every fetch and never mutated in place.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone"`
	IsActive     bool      `json:"is_active"`
	IsValidated  bool      `json:"is_validated"`
	RoleName     *string   `json:"role_name"`
	BusinessName *string   `json:"business_name"`
	Occupation   *string   `json:"occupation"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayRole returns the role name, or an em dash placeholder when the account has none.
func (u *User) DisplayRole() string {
	if u == nil {
		return "—"
	}
	role := strings.TrimSpace(utils.Value(u.RoleName))
	return utils.ValueOr(&role, "—")
}

// PendingValidation reports whether an administrator still has to approve the account
func (u *User) PendingValidation() bool {
	return u != nil && !u.IsValidated
}

// ValidatePasswordStrength checks the same rules the API enforces on new passwords:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
//
// The result is only a hint for the form; the API remains the authority.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("La contraseña debe tener al menos %d caracteres", minPasswordLength)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("La contraseña debe contener al menos una letra mayúscula")
	}
	if !hasLower {
		return fmt.Errorf("La contraseña debe contener al menos una letra minúscula")
	}
	if !hasNumber {
		return fmt.Errorf("La contraseña debe contener al menos un número")
	}

	return nil
}
