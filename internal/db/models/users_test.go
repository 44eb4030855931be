package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRole(t *testing.T) {
	tests := []struct {
		name          string
		role          UserRole
		stringValue   string
		validForParse bool
		worker        bool
		roleIndex     int
	}{
		{
			name:          "Admin role",
			role:          UserRoleAdmin,
			stringValue:   "admin",
			validForParse: true,
			roleIndex:     1,
		},
		{
			name:          "Contractor role",
			role:          UserRoleContractor,
			stringValue:   "contractor",
			validForParse: true,
			worker:        true,
			roleIndex:     2,
		},
		{
			name:          "Technician role",
			role:          UserRoleTechnician,
			stringValue:   "technician",
			validForParse: true,
			worker:        true,
			roleIndex:     3,
		},
		{
			name:          "Unknown role",
			role:          UserRoleUnknown,
			stringValue:   "unknown",
			validForParse: false,
			roleIndex:     0,
		},
		{
			name:          "Invalid role",
			stringValue:   "manager",
			validForParse: false,
			roleIndex:     -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.roleIndex >= 0 {
				assert.Equal(t, tt.stringValue, tt.role.String(), "String() method failed")
				assert.Equal(t, tt.roleIndex, int(tt.role), "Role index does not match expected iota value")
				assert.Equal(t, tt.worker, tt.role.IsWorker())
			}

			parsedRole, err := ParseUserRole(tt.stringValue)
			if tt.validForParse {
				assert.NoError(t, err, "ParseUserRole should not return error")
				assert.Equal(t, tt.role, parsedRole, "ParseUserRole returned wrong role")
			} else {
				assert.Error(t, err, "ParseUserRole should return error for invalid role")
				assert.Equal(t, UserRoleUnknown, parsedRole, "Invalid role should return UserRoleUnknown")
			}
		})
	}

	t.Run("Parse is case and space insensitive", func(t *testing.T) {
		role, err := ParseUserRole("  Contractor ")
		require.NoError(t, err)
		assert.Equal(t, UserRoleContractor, role)
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := json.Marshal(UserRoleTechnician)
		require.NoError(t, err)
		assert.Equal(t, `"technician"`, string(data))

		var role UserRole
		require.NoError(t, json.Unmarshal([]byte(`"admin"`), &role))
		assert.Equal(t, UserRoleAdmin, role)

		require.NoError(t, json.Unmarshal([]byte(`""`), &role))
		assert.Equal(t, UserRoleUnknown, role)

		assert.Error(t, json.Unmarshal([]byte(`"root"`), &role))
	})
}

func TestUser_Password(t *testing.T) {
	user := &User{Username: "sam", Role: UserRoleContractor}

	require.NoError(t, user.SetPassword("hunter2"))
	assert.NotEqual(t, "hunter2", user.PasswordHash, "password must not be stored in plaintext")
	assert.True(t, user.CheckPassword("hunter2"))
	assert.False(t, user.CheckPassword("hunter3"))
	assert.False(t, user.CheckPassword(""))

	assert.Error(t, user.SetPassword(""))
	assert.False(t, (&User{}).CheckPassword("anything"))
}

func TestUser_JSONOmitsPassword(t *testing.T) {
	user := User{Model: gorm.Model{ID: 9}, Username: "sam", Role: UserRoleTechnician}
	require.NoError(t, user.SetPassword("secret"))

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), user.PasswordHash)
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), `"role":"technician"`)
	assert.Equal(t, "9", user.UserID())
}

func TestUser_Validate(t *testing.T) {
	assert.NoError(t, (&User{Username: "a", Role: UserRoleAdmin}).Validate())
	assert.Error(t, (&User{Username: " ", Role: UserRoleAdmin}).Validate())
	assert.Error(t, (&User{Username: "a"}).Validate())
}

func TestMachine_Validate(t *testing.T) {
	assert.NoError(t, (&Machine{MachineID: "M-1"}).Validate())
	assert.Error(t, (&Machine{MachineID: "  "}).Validate())
}
