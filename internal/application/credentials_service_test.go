package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"markethub-integration-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredentialManager(repo *credentialRepoStub, auth *authStub, logins *LoginDirectory) *CredentialManager {
	if logins == nil {
		logins = &LoginDirectory{
			Global:  domain.LoginCredentials{Username: "global", Password: "secret"},
			Agency:  domain.LoginCredentials{Username: "agency", Password: "secret"},
			Tenants: &tenantRepoStub{},
		}
	}
	return NewCredentialManager(repo, auth, logins, newTestMetrics(), zerolog.Nop())
}

func validCredential(scope domain.CredentialScope, token string) *domain.Credential {
	return &domain.Credential{
		Scope:       scope,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		IssuedAt:    time.Now().Unix(),
	}
}

func expiredCredential(scope domain.CredentialScope, token, refresh string) *domain.Credential {
	return &domain.Credential{
		Scope:        scope,
		AccessToken:  token,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    60,
		IssuedAt:     time.Now().Add(-time.Hour).Unix(),
	}
}

func TestTokenReusesValidStoredCredential(t *testing.T) {
	repo := &credentialRepoStub{
		get: func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
			return validCredential(scope, "tok-1"), nil
		},
	}
	auth := &authStub{
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			t.Fatal("valid credential must not trigger a login")
			return nil, nil
		},
		refresh: func(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error) {
			t.Fatal("valid credential must not trigger a refresh")
			return nil, nil
		},
	}
	manager := newTestCredentialManager(repo, auth, nil)

	token, err := manager.Token(context.Background(), domain.ScopeGlobal)

	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestTokenIsServedFromCacheAfterFirstLoad(t *testing.T) {
	loads := 0
	repo := &credentialRepoStub{
		get: func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
			loads++
			return validCredential(scope, "tok-1"), nil
		},
	}
	manager := newTestCredentialManager(repo, &authStub{}, nil)

	_, err := manager.Token(context.Background(), domain.ScopeGlobal)
	require.NoError(t, err)
	_, err = manager.Token(context.Background(), domain.ScopeGlobal)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
}

func TestExpiredCredentialIsRefreshedNotRelogged(t *testing.T) {
	repo := &credentialRepoStub{
		get: func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
			return expiredCredential(scope, "tok-old", "refresh-1"), nil
		},
	}
	var stored *domain.Credential
	repo.put = func(ctx context.Context, credential *domain.Credential) error {
		stored = credential
		return nil
	}
	auth := &authStub{
		refresh: func(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error) {
			assert.Equal(t, "refresh-1", refreshToken)
			return validCredential(scope, "tok-new"), nil
		},
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			t.Fatal("refreshable credential must not trigger a login")
			return nil, nil
		},
	}
	manager := newTestCredentialManager(repo, auth, nil)

	token, err := manager.Token(context.Background(), domain.ScopeGlobal)

	require.NoError(t, err)
	assert.Equal(t, "tok-new", token)
	require.NotNil(t, stored)
	assert.Equal(t, domain.ScopeGlobal, stored.Scope)
}

func TestFailedRefreshFallsBackToLogin(t *testing.T) {
	repo := &credentialRepoStub{
		get: func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
			return expiredCredential(scope, "tok-old", "refresh-dead"), nil
		},
	}
	auth := &authStub{
		refresh: func(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error) {
			return nil, errors.New("refresh token revoked")
		},
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			assert.Equal(t, "global", login.Username)
			return validCredential(scope, "tok-new"), nil
		},
	}
	manager := newTestCredentialManager(repo, auth, nil)

	token, err := manager.Token(context.Background(), domain.ScopeGlobal)

	require.NoError(t, err)
	assert.Equal(t, "tok-new", token)
}

func TestMissingCredentialLogsIn(t *testing.T) {
	auth := &authStub{
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			return validCredential(scope, "tok-first"), nil
		},
	}
	manager := newTestCredentialManager(&credentialRepoStub{}, auth, nil)

	token, err := manager.Token(context.Background(), domain.ScopeAgency)

	require.NoError(t, err)
	assert.Equal(t, "tok-first", token)
}

func TestConcurrentCallersShareOneGrant(t *testing.T) {
	var logins atomic.Int32
	auth := &authStub{
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			logins.Add(1)
			time.Sleep(10 * time.Millisecond)
			return validCredential(scope, "tok-shared"), nil
		},
	}
	manager := newTestCredentialManager(&credentialRepoStub{}, auth, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := manager.Token(context.Background(), domain.ScopeGlobal)
			assert.NoError(t, err)
			assert.Equal(t, "tok-shared", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), logins.Load())
}

func TestInvalidateForcesReload(t *testing.T) {
	loads := 0
	repo := &credentialRepoStub{
		get: func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
			loads++
			return validCredential(scope, "tok-1"), nil
		},
	}
	manager := newTestCredentialManager(repo, &authStub{}, nil)

	_, err := manager.Token(context.Background(), domain.ScopeGlobal)
	require.NoError(t, err)

	manager.Invalidate(domain.ScopeGlobal)

	_, err = manager.Token(context.Background(), domain.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestSweepSparesTheCachedCredential(t *testing.T) {
	// the login grant below hands out an already expired token, which
	// lands in the cache and must survive the sweep
	current := expiredCredential(domain.ScopeGlobal, "tok-current", "")
	auth := &authStub{
		login: func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
			return current, nil
		},
	}
	var deleted []string
	repo := &credentialRepoStub{
		list: func(ctx context.Context) ([]*domain.Credential, error) {
			return []*domain.Credential{
				current,
				expiredCredential(domain.ScopeGlobal, "tok-stale", ""),
				validCredential(domain.ScopeAgency, "tok-live"),
			}, nil
		},
		delete: func(ctx context.Context, scope domain.CredentialScope, accessToken string) error {
			deleted = append(deleted, accessToken)
			return nil
		},
	}
	manager := newTestCredentialManager(repo, auth, nil)

	_, err := manager.EnsureValid(context.Background(), domain.ScopeGlobal)
	require.NoError(t, err)

	require.NoError(t, manager.SweepExpired(context.Background()))

	assert.Equal(t, []string{"tok-stale"}, deleted)
}

func TestLoginDirectoryResolvesTenantScopes(t *testing.T) {
	directory := &LoginDirectory{
		Global: domain.LoginCredentials{Username: "global"},
		Agency: domain.LoginCredentials{Username: "agency"},
		Tenants: &tenantRepoStub{
			loginCredentials: func(ctx context.Context, tenantID string) (*domain.LoginCredentials, error) {
				assert.Equal(t, "t-9", tenantID)
				return &domain.LoginCredentials{Username: "tenant-user"}, nil
			},
		},
	}

	login, err := directory.LoginFor(context.Background(), domain.TenantScope("t-9"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-user", login.Username)

	login, err = directory.LoginFor(context.Background(), domain.ScopeAgency)
	require.NoError(t, err)
	assert.Equal(t, "agency", login.Username)

	_, err = directory.LoginFor(context.Background(), domain.CredentialScope("bogus"))
	assert.ErrorIs(t, err, domain.ErrCredential)
}
