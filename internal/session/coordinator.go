// Package session coordinates session identity: the persisted token pair,
// decoded claims, the canonical current-user profile, and the single shared
// user stream every UI component subscribes to.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/storage"
)

// Storage keys in the persistent region.
const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUserData     = "userData"
)

// Coordinator owns the session. Construct one at the composition root and
// pass it by reference; call Bootstrap once, Close on shutdown.
type Coordinator struct {
	store  storage.Store
	client *api.Client
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	tokens model.TokenPair
	claims *model.Claims
	user   *model.UserProfile

	stream    *userStream
	coalescer *Coalescer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires a coordinator over the persistent storage region and
// the API client, and registers itself as the client's token provider.
func NewCoordinator(store storage.Store, client *api.Client, throttle time.Duration, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		client: client,
		log:    log.With().Str("component", "session").Logger(),
		now:    time.Now,
		stream: newUserStream(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.coalescer = newCoalescer(c.fetchProfile, throttle)
	client.SetTokenProvider(c)
	return c
}

// AccessToken implements api.TokenProvider.
func (c *Coordinator) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens.AccessToken
}

// Bootstrap loads the persisted session. With no token (or an expired or
// undecodable one) it publishes "no user". Otherwise it publishes the stored
// profile when one exists, or a stub synthesized from claims followed by an
// asynchronous coalesced fetch of the authoritative profile. A failed fetch
// keeps the stub; it never forces logout.
func (c *Coordinator) Bootstrap(ctx context.Context) {
	access, ok := c.store.Get(keyAccessToken)
	if !ok || access == "" {
		c.setUser(nil)
		return
	}
	refresh, _ := c.store.Get(keyRefreshToken)

	claims, err := decodeClaims(access)
	if err != nil {
		c.log.Warn().Err(err).Msg("Persisted token undecodable, clearing session")
		c.teardownLocal()
		return
	}
	if !claimsValid(claims, c.now()) {
		c.log.Info().Msg("Persisted token expired, clearing session")
		c.teardownLocal()
		return
	}

	c.mu.Lock()
	c.tokens = model.TokenPair{AccessToken: access, RefreshToken: refresh}
	c.claims = claims
	c.mu.Unlock()

	if raw, ok := c.store.Get(keyUserData); ok {
		var profile model.UserProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			c.setUser(&profile)
			return
		}
		c.log.Warn().Msg("Stored profile unparsable, falling back to stub")
		c.store.Remove(keyUserData)
	}

	c.setUser(model.StubProfile(claims, c.now()))

	go func() {
		if _, err := c.RefreshProfile(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn().Err(err).Msg("Authoritative profile fetch failed, keeping stub")
		}
	}()
}

// Login signs in, persists the token pair and profile, and publishes the
// user. On failure nothing is published and the error is surfaced.
func (c *Coordinator) Login(ctx context.Context, req model.LoginRequest) (*model.UserProfile, error) {
	var result model.AuthResult
	if _, err := c.client.Post(ctx, "/auth/signin", req, &result); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	claims, err := decodeClaims(result.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decode issued token: %w", err)
	}

	c.mu.Lock()
	c.tokens = model.TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}
	c.claims = claims
	c.mu.Unlock()

	c.persistSession(result.AccessToken, result.RefreshToken, result.User)
	c.setUser(result.User)

	c.log.Info().Str("role", string(result.User.Role)).Msg("Signed in")
	return result.User, nil
}

// Signup registers a new admin account. It does not sign the account in.
func (c *Coordinator) Signup(ctx context.Context, req model.SignupRequest) error {
	if _, err := c.client.Post(ctx, "/auth/admin/signup", req, nil); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

// Logout fires a best-effort remote invalidation whose outcome is logged
// only, then unconditionally clears local state and publishes "no user".
// The remote call runs before teardown so it still carries the access token,
// bounded to five seconds so a dead server cannot hold sign-out hostage.
func (c *Coordinator) Logout(ctx context.Context) {
	invalidateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := c.client.Post(invalidateCtx, "/auth/logout", struct{}{}, nil); err != nil {
		c.log.Debug().Err(err).Msg("Remote logout failed (ignored)")
	}

	c.teardownLocal()
	c.log.Info().Msg("Signed out")
}

// Refresh exchanges the refresh token for a new pair. Failure tears the
// session down locally and surfaces ErrAuthExpired.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refresh := c.tokens.RefreshToken
	c.mu.RUnlock()

	if refresh == "" {
		c.teardownLocal()
		return api.ErrAuthExpired
	}

	var result model.AuthResult
	body := map[string]string{"refreshToken": refresh}
	if _, err := c.client.Post(ctx, "/auth/refresh-token", body, &result); err != nil {
		c.teardownLocal()
		return errors.Join(api.ErrAuthExpired, err)
	}

	claims, err := decodeClaims(result.AccessToken)
	if err != nil {
		c.teardownLocal()
		return errors.Join(api.ErrAuthExpired, err)
	}

	c.mu.Lock()
	c.tokens = model.TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}
	c.claims = claims
	c.mu.Unlock()

	c.persistSession(result.AccessToken, result.RefreshToken, result.User)
	if result.User != nil {
		c.setUser(result.User)
	}
	return nil
}

// RefreshProfile fetches the authoritative profile through the coalescer,
// persists it, and publishes it. Concurrent callers share one remote call.
// On failure the previously published profile stays untouched.
func (c *Coordinator) RefreshProfile(ctx context.Context) (*model.UserProfile, error) {
	profile, err := c.coalescer.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.persistProfile(profile)
	c.setUser(profile)
	return profile, nil
}

// UpdateProfile edits the current user's profile and republishes it.
func (c *Coordinator) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	var profile model.UserProfile
	if _, err := c.client.Put(ctx, "/user/profile", req, &profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	c.persistProfile(&profile)
	c.setUser(&profile)
	return &profile, nil
}

// CompleteTeacherProfile submits the teacher sub-profile, then refreshes the
// authoritative profile.
func (c *Coordinator) CompleteTeacherProfile(ctx context.Context, req model.TeacherProfileRequest) error {
	if _, err := c.client.Post(ctx, "/user/teacher-profile", req, nil); err != nil {
		return fmt.Errorf("complete teacher profile: %w", err)
	}
	_, err := c.RefreshProfile(ctx)
	return err
}

// CompleteStudentProfile submits the student sub-profile, then refreshes the
// authoritative profile.
func (c *Coordinator) CompleteStudentProfile(ctx context.Context, req model.StudentProfileRequest) error {
	if _, err := c.client.Post(ctx, "/user/student-profile", req, nil); err != nil {
		return fmt.Errorf("complete student profile: %w", err)
	}
	_, err := c.RefreshProfile(ctx)
	return err
}

// CheckProfileStatus asks the API whether the user still needs role-specific
// profile setup.
func (c *Coordinator) CheckProfileStatus(ctx context.Context) (*model.ProfileStatus, error) {
	var status model.ProfileStatus
	if _, err := c.client.Get(ctx, "/user/profile-status", nil, &status); err != nil {
		return nil, fmt.Errorf("profile status: %w", err)
	}
	return &status, nil
}

// CurrentUser returns the latest published profile, nil when signed out.
// Callers must treat the value as read-only.
func (c *Coordinator) CurrentUser() *model.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// IsLoggedIn reports whether a token is held and not yet expired. Pure clock
// comparison, no network.
func (c *Coordinator) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.claims != nil && claimsValid(c.claims, c.now())
}

// UserRole returns the current user's role, empty when signed out.
func (c *Coordinator) UserRole() model.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.Role
}

// IsProfileComplete reports the published profile's completion flag.
func (c *Coordinator) IsProfileComplete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil && c.user.ProfileCompleted
}

// Subscribe attaches to the user stream with replay-latest semantics. The
// returned cancel releases the subscription.
func (c *Coordinator) Subscribe() (<-chan *model.UserProfile, func()) {
	return c.stream.subscribe()
}

// Close shuts the user stream down.
func (c *Coordinator) Close() {
	c.stream.close()
}

// ─── internals ──────────────────────────────────────────────────────

func (c *Coordinator) fetchProfile(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	if _, err := c.client.Get(ctx, "/user/profile", nil, &profile); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return &profile, nil
}

func (c *Coordinator) setUser(u *model.UserProfile) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
	c.stream.publish(u)
}

// teardownLocal clears tokens and profile everywhere and publishes "no
// user". It never fails.
func (c *Coordinator) teardownLocal() {
	c.mu.Lock()
	c.tokens = model.TokenPair{}
	c.claims = nil
	c.mu.Unlock()

	c.store.Remove(keyAccessToken)
	c.store.Remove(keyRefreshToken)
	c.store.Remove(keyUserData)

	c.setUser(nil)
}

// persistSession writes tokens and profile to the persistent region. A
// storage failure costs durability only, so it is logged and swallowed.
func (c *Coordinator) persistSession(access, refresh string, profile *model.UserProfile) {
	if err := c.store.Set(keyAccessToken, access); err != nil {
		c.log.Warn().Err(err).Msg("Persist access token failed")
	}
	if err := c.store.Set(keyRefreshToken, refresh); err != nil {
		c.log.Warn().Err(err).Msg("Persist refresh token failed")
	}
	if profile != nil {
		c.persistProfile(profile)
	}
}

func (c *Coordinator) persistProfile(profile *model.UserProfile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		c.log.Warn().Err(err).Msg("Profile not serializable")
		return
	}
	if err := c.store.Set(keyUserData, string(raw)); err != nil {
		c.log.Warn().Err(err).Msg("Persist profile failed")
	}
}

// decodeClaims reads token claims without signature verification; the client
// holds no signing secret and only needs identity and expiry.
func decodeClaims(token string) (*model.Claims, error) {
	claims := &model.Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

func claimsValid(claims *model.Claims, now time.Time) bool {
	return claims.ExpiresAt != nil && claims.ExpiresAt.After(now)
}
