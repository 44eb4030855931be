package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"golang.org/x/crypto/bcrypt"
)

// UserRole represents the role of a user in the system
type UserRole int

// User role constants
const (
	// UserRoleUnknown is the zero value and is never a valid account role
	UserRoleUnknown UserRole = iota
	// UserRoleAdmin manages jobs and approves or rejects completed work
	UserRoleAdmin
	// UserRoleContractor is an external worker assigned through assigned_contractor
	UserRoleContractor
	// UserRoleTechnician is an in-house worker assigned through assigned_tech
	UserRoleTechnician
)

var userRoleNames = []string{
	"unknown",
	"admin",
	"contractor",
	"technician",
}

func (r UserRole) String() string {
	if r < 0 || int(r) >= len(userRoleNames) {
		return userRoleNames[UserRoleUnknown]
	}
	return userRoleNames[r]
}

// IsWorker reports whether the role performs field work
func (r UserRole) IsWorker() bool {
	return r == UserRoleContractor || r == UserRoleTechnician
}

// ParseUserRole converts a string representation of a user role to UserRole type
func ParseUserRole(str string) (UserRole, error) {
	for i, role := range userRoleNames {
		if i == int(UserRoleUnknown) {
			continue
		}
		if role == strings.ToLower(strings.TrimSpace(str)) {
			return UserRole(i), nil
		}
	}
	return UserRoleUnknown, fmt.Errorf("invalid user role: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for UserRole
func (r UserRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for UserRole.
// An empty string decodes to UserRoleUnknown so optional role fields can be left blank.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*r = UserRoleUnknown
		return nil
	}

	role, err := ParseUserRole(str)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User represents a user in the system
type User struct {
	gorm.Model
	Username     string   `json:"username" gorm:"not null;unique"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Role         UserRole `json:"role" gorm:"index"`
}

// UserID is the identity jobs are assigned to. It is the decimal form of the primary key.
func (u *User) UserID() string {
	return fmt.Sprintf("%d", u.ID)
}

// SetPassword stores a bcrypt hash of the plaintext password
func (u *User) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Validate ensures that the user data is valid
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if u.Role == UserRoleUnknown {
		return fmt.Errorf("user role must be set")
	}
	return nil
}
