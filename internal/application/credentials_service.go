package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// CredentialManager owns the token lifecycle for every Hub scope. It
// serializes grants per scope so concurrent callers never stampede the
// auth endpoint, prefers the cheap refresh grant over a full login, and
// persists every issued token so a restart resumes without relogin.
type CredentialManager struct {
	repo    ports.CredentialRepository
	auth    ports.AuthGateway
	logins  ports.LoginSource
	metrics *metrics.Set
	logger  zerolog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[domain.CredentialScope]*domain.Credential
	locks map[domain.CredentialScope]*sync.Mutex
}

var _ ports.TokenProvider = (*CredentialManager)(nil)

// NewCredentialManager creates the credential lifecycle manager.
func NewCredentialManager(
	repo ports.CredentialRepository,
	auth ports.AuthGateway,
	logins ports.LoginSource,
	metricSet *metrics.Set,
	logger zerolog.Logger,
) *CredentialManager {
	return &CredentialManager{
		repo:    repo,
		auth:    auth,
		logins:  logins,
		metrics: metricSet,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[domain.CredentialScope]*domain.Credential),
		locks:   make(map[domain.CredentialScope]*sync.Mutex),
	}
}

// Token returns a valid access token for the scope, acquiring one first
// if needed.
func (m *CredentialManager) Token(ctx context.Context, scope domain.CredentialScope) (string, error) {
	credential, err := m.EnsureValid(ctx, scope)
	if err != nil {
		return "", err
	}
	return credential.AccessToken, nil
}

// EnsureValid returns the scope's current credential, refreshing or
// relogging in as needed. Callers racing on the same scope block on the
// scope lock and reuse the winner's grant.
func (m *CredentialManager) EnsureValid(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
	lock := m.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	credential := m.cached(scope)
	if credential == nil {
		stored, err := m.repo.Get(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("load credential for scope %s: %w", scope, err)
		}
		credential = stored
	}

	if credential.Valid(m.now()) {
		m.store(scope, credential)
		return credential, nil
	}

	if credential != nil && credential.RefreshToken != "" {
		refreshed, err := m.auth.Refresh(ctx, scope, credential.RefreshToken)
		if err == nil {
			m.metrics.CredentialGrants.WithLabelValues("refresh", "success").Inc()
			return m.persist(ctx, scope, refreshed)
		}
		m.metrics.CredentialGrants.WithLabelValues("refresh", "failure").Inc()
		m.logger.Warn().Err(err).
			Str("scope", string(scope)).
			Msg("Token refresh failed, falling back to login")
	}

	login, err := m.logins.LoginFor(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("resolve login for scope %s: %w", scope, err)
	}
	if login == nil {
		return nil, fmt.Errorf("%w: no login configured for scope %s", domain.ErrCredential, scope)
	}

	granted, err := m.auth.Login(ctx, scope, *login)
	if err != nil {
		m.metrics.CredentialGrants.WithLabelValues("login", "failure").Inc()
		return nil, fmt.Errorf("login for scope %s: %w", scope, err)
	}
	m.metrics.CredentialGrants.WithLabelValues("login", "success").Inc()

	return m.persist(ctx, scope, granted)
}

// Invalidate drops the cached credential so the next call re-grants.
// Used when a gateway call comes back unauthorized despite a token that
// looked valid locally.
func (m *CredentialManager) Invalidate(scope domain.CredentialScope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, scope)
}

// SweepExpired deletes stored tokens that can no longer authenticate.
// The credential currently cached for a scope is never swept, even if it
// just expired, because it may still carry the refresh token needed for
// the next grant.
func (m *CredentialManager) SweepExpired(ctx context.Context) error {
	credentials, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list credentials: %w", err)
	}

	now := m.now()
	swept := 0
	for _, credential := range credentials {
		if credential.Valid(now) {
			continue
		}
		if current := m.cached(credential.Scope); current != nil && current.AccessToken == credential.AccessToken {
			continue
		}
		if err := m.repo.Delete(ctx, credential.Scope, credential.AccessToken); err != nil {
			m.logger.Error().Err(err).
				Str("scope", string(credential.Scope)).
				Msg("Credential sweep delete failed")
			continue
		}
		swept++
	}

	if swept > 0 {
		m.logger.Info().Int("swept", swept).Msg("Expired credentials swept")
	}
	return nil
}

func (m *CredentialManager) persist(ctx context.Context, scope domain.CredentialScope, credential *domain.Credential) (*domain.Credential, error) {
	credential.Scope = scope
	if err := m.repo.Put(ctx, credential); err != nil {
		return nil, fmt.Errorf("store credential for scope %s: %w", scope, err)
	}
	m.store(scope, credential)
	return credential, nil
}

func (m *CredentialManager) cached(scope domain.CredentialScope) *domain.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[scope]
}

func (m *CredentialManager) store(scope domain.CredentialScope, credential *domain.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[scope] = credential
}

func (m *CredentialManager) scopeLock(scope domain.CredentialScope) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[scope] = lock
	}
	return lock
}

// LoginDirectory resolves password-grant logins: static configuration
// for the global and agency scopes, stored per-tenant credentials for
// tenant scopes.
type LoginDirectory struct {
	Global  domain.LoginCredentials
	Agency  domain.LoginCredentials
	Tenants ports.TenantRepository
}

var _ ports.LoginSource = (*LoginDirectory)(nil)

func (d *LoginDirectory) LoginFor(ctx context.Context, scope domain.CredentialScope) (*domain.LoginCredentials, error) {
	switch scope {
	case domain.ScopeGlobal:
		login := d.Global
		return &login, nil
	case domain.ScopeAgency:
		login := d.Agency
		return &login, nil
	}

	tenantID, ok := strings.CutPrefix(string(scope), "tenant:")
	if !ok {
		return nil, fmt.Errorf("%w: unknown scope %s", domain.ErrCredential, scope)
	}

	login, err := d.Tenants.LoginCredentials(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant login %s: %w", tenantID, err)
	}
	return login, nil
}
