// Package auth verifies realm access tokens and decides which routes a
// caller may reach.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type roleSet struct {
	Roles []string `json:"roles"`
}

// Claims are the access token claims the service reads. Realm and client
// role sections are optional.
type Claims struct {
	RealmAccess       *roleSet           `json:"realm_access,omitempty"`
	ResourceAccess    map[string]roleSet `json:"resource_access,omitempty"`
	PreferredUsername string             `json:"preferred_username,omitempty"`
	AuthorizedParty   string             `json:"azp,omitempty"`
	Email             string             `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Roles returns the union of realm roles and the roles granted on clientID.
func (c *Claims) Roles(clientID string) []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(roles []string) {
		for _, r := range roles {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	if c.RealmAccess != nil {
		add(c.RealmAccess.Roles)
	}
	if client, ok := c.ResourceAccess[clientID]; ok {
		add(client.Roles)
	}
	return out
}

// Actor names the caller for logs: a subject that is an email, then
// preferred_username, then the raw subject.
func (c *Claims) Actor() string {
	if c == nil {
		return "system"
	}
	if strings.Contains(c.Subject, "@") {
		return c.Subject
	}
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	if c.Subject != "" {
		return c.Subject
	}
	return "system"
}

// ClientID resolves the calling client from azp, the audience, or the subject.
func (c *Claims) ClientID() string {
	if c == nil {
		return "unknown"
	}
	if c.AuthorizedParty != "" {
		return c.AuthorizedParty
	}
	if len(c.Audience) > 0 {
		return c.Audience[0]
	}
	return c.Subject
}

// IsClientToken reports whether the token was issued to a client rather
// than a user.
func (c *Claims) IsClientToken() bool {
	return c != nil && c.Subject != "" && !strings.Contains(c.Subject, "@")
}
