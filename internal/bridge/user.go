// Package bridge exposes employees to the identity provider as federated
// users: lookup, password validation and profile updates.
package bridge

import (
	"strings"

	"employee-directory/internal/models"
)

const storageIDPrefix = "f:"

// User is the federated user representation returned to the identity provider.
type User struct {
	ID         string              `json:"id"`
	Username   string              `json:"username"`
	Email      string              `json:"email"`
	FirstName  string              `json:"firstName"`
	LastName   string              `json:"lastName"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes"`

	EmployeeID int64 `json:"-"`
}

// ExternalID strips the "f:<component>:" storage prefix from id.
func ExternalID(id string) string {
	if !strings.HasPrefix(id, storageIDPrefix) {
		return id
	}
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 3 {
		return id
	}
	return parts[2]
}

// StorageID builds the identity provider's id for an external id.
func StorageID(componentID, externalID string) string {
	if componentID == "" {
		return externalID
	}
	return storageIDPrefix + componentID + ":" + externalID
}

// SplitName splits on the first space; the last name may be empty.
func SplitName(name string) (first, last string) {
	first, last, _ = strings.Cut(name, " ")
	return first, last
}

func JoinName(first, last string) string {
	if last == "" {
		return first
	}
	return first + " " + last
}

// PermissionsForRole maps a stored employee role to the permission roles
// granted in tokens. Unknown roles get read access only.
func PermissionsForRole(role string) []string {
	switch strings.ToUpper(role) {
	case models.RoleAdmin:
		return []string{models.PermFullAccess}
	case models.RoleManager:
		return []string{models.PermReadEmployees, models.PermCreateEmployees, models.PermUpdateEmployees}
	case models.RoleHR:
		return []string{models.PermReadEmployees, models.PermCreateEmployees, models.PermUpdateEmployees, models.PermDeleteEmployees}
	default:
		return []string{models.PermReadEmployees}
	}
}

func newUser(componentID string, e *models.Employee) *User {
	first, last := SplitName(e.Name)
	return &User{
		ID:        StorageID(componentID, e.Email),
		Username:  e.Email,
		Email:     e.Email,
		FirstName: first,
		LastName:  last,
		Enabled:   true,
		Attributes: map[string][]string{
			"department": values(e.Department),
			"phone":      values(e.Phone),
			"roles":      PermissionsForRole(e.Role),
		},
		EmployeeID: e.ID,
	}
}

func values(v *string) []string {
	if v == nil {
		return []string{}
	}
	return []string{*v}
}
