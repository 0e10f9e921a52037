package domain

import "time"

// CredentialScope partitions credentials by the account they authenticate:
// the hub's main account, one tenant sub-account, or the agency account.
type CredentialScope string

const (
	ScopeGlobal CredentialScope = "global"
	ScopeAgency CredentialScope = "agency"
)

// TenantScope returns the credential scope for a tenant sub-account.
func TenantScope(tenantID string) CredentialScope {
	return CredentialScope("tenant:" + tenantID)
}

// Credential is one OAuth-style access token for a scope. At most one
// valid credential is treated as current per scope.
type Credential struct {
	Scope        CredentialScope
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	IssuedAt     int64
}

// Valid reports whether the credential can still authenticate requests.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" || c.IssuedAt == 0 {
		return false
	}
	return c.IssuedAt+c.ExpiresIn > now.Unix()
}

// LoginCredentials are the username/password pair used for a full
// password-grant login on a scope.
type LoginCredentials struct {
	Username   string
	Password   string
	OAuthScope string
}
