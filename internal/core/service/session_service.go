package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/session-agent/internal/api/metrics"
	"github.com/craftlink/session-agent/internal/core/domain"
	"github.com/craftlink/session-agent/internal/core/ports"
)

// roleProbe is the ordered list of candidate roles tried when a token was
// persisted without a role (legacy sessions). Order matters: the generic
// profile endpoint is attempted first, the craftsman endpoint second, and
// probing stops at the first success. Probes run strictly sequentially so
// two role determinations can never race.
var roleProbe = []domain.Role{domain.RoleUser, domain.RoleCraftsman}

const subscriberBuffer = 8

type sessionManager struct {
	store    ports.CredentialStore
	upstream ports.UpstreamGateway
	realtime ports.RealtimeConnector
	log      zerolog.Logger

	mu      sync.Mutex
	session domain.Session
	subs    map[uint64]chan domain.Session
	nextSub uint64
}

// NewSessionManager returns the SessionService implementation. The session
// starts in the bootstrapping state; call Bootstrap once before serving.
func NewSessionManager(
	store ports.CredentialStore,
	upstream ports.UpstreamGateway,
	realtime ports.RealtimeConnector,
	log zerolog.Logger,
) ports.SessionService {
	return &sessionManager{
		store:    store,
		upstream: upstream,
		realtime: realtime,
		log:      log,
		session:  domain.Session{State: domain.StateBootstrapping},
		subs:     make(map[uint64]chan domain.Session),
	}
}

// Bootstrap resolves the persisted session. It never returns an error:
// every failure degrades to an anonymous or partially resolved session,
// and the session always ends Ready.
func (m *sessionManager) Bootstrap(ctx context.Context) {
	start := time.Now()
	defer func() {
		m.mu.Lock()
		m.session.State = domain.StateReady
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.publish(snap)
		metrics.BootstrapDuration.Observe(time.Since(start).Seconds())
	}()

	// 1. Read persisted credentials.
	token, err := m.store.Get(ctx, domain.KeyToken)
	if err != nil {
		m.log.Error().Err(err).Msg("bootstrap: credential store read failed")
		return
	}
	if token == "" {
		m.log.Debug().Msg("bootstrap: no persisted token, starting anonymous")
		return
	}

	m.mu.Lock()
	m.session.Token = token
	m.mu.Unlock()

	// Diagnostic only: an expired JWT still goes through resolution,
	// because only an upstream rejection invalidates a credential.
	if exp, ok := domain.TokenExpiry(token); ok && time.Now().After(exp) {
		m.log.Warn().Time("expired_at", exp).Msg("bootstrap: persisted token is past its expiry")
	}

	roleStr, err := m.store.Get(ctx, domain.KeyActorRole)
	if err != nil {
		m.log.Error().Err(err).Msg("bootstrap: credential store read failed")
		return
	}

	// 2. Known role: single role-specific fetch.
	if role := domain.ParseRole(roleStr); role != domain.RoleNone {
		m.mu.Lock()
		m.session.Role = role
		m.mu.Unlock()

		profile, err := m.upstream.FetchProfile(ctx, role, token)
		if err != nil {
			m.resolveFailed(ctx, role, err)
			return
		}
		m.completeResolution(ctx, role, token, profile, false)
		return
	}

	// 3. No role persisted: probe the candidates in order. A single
	// rejection is a probe miss, not proof the token is dead: the token
	// may simply belong to the other role's endpoint. Only when every
	// candidate rejects it is the credential itself invalid.
	rejections := 0
	for _, candidate := range roleProbe {
		profile, err := m.upstream.FetchProfile(ctx, candidate, token)
		if err == nil {
			metrics.RoleProbeAttempts.WithLabelValues(string(candidate), "hit").Inc()
			m.completeResolution(ctx, candidate, token, profile, true)
			return
		}
		metrics.RoleProbeAttempts.WithLabelValues(string(candidate), "miss").Inc()
		if errors.Is(err, domain.ErrCredentialRejected) {
			rejections++
		}
		m.log.Debug().Err(err).Str("role", string(candidate)).Msg("bootstrap: role probe miss")
	}

	if rejections == len(roleProbe) {
		m.clearCredentials(ctx)
		return
	}
	// At least one probe failed transiently: leave the persisted token in
	// place and stay anonymous in memory until a retry can resolve it.
	m.mu.Lock()
	m.session.Role = domain.RoleNone
	m.session.Profile = nil
	m.mu.Unlock()
	m.log.Warn().Msg("bootstrap: role probe inconclusive, keeping persisted token")
}

func (m *sessionManager) Login(ctx context.Context, in ports.LoginInput) ports.LoginOutcome {
	res, err := m.upstream.Login(ctx, in)
	if err != nil {
		var rejected *domain.LoginRejectedError
		if errors.As(err, &rejected) {
			metrics.Logins.WithLabelValues(string(in.Role), "rejected").Inc()
			msg := rejected.Message
			if msg == "" {
				msg = "login failed"
			}
			return ports.LoginOutcome{Message: msg}
		}
		metrics.Logins.WithLabelValues(string(in.Role), "error").Inc()
		m.log.Error().Err(err).Str("role", string(in.Role)).Msg("login: upstream call failed")
		return ports.LoginOutcome{Message: "service unavailable, please try again"}
	}

	role := domain.MapLoginRole(res.Role, in.Role)

	// Token and role are persisted together in one atomic write, and
	// persistence happens before the realtime connect: the channel is
	// never opened with an unpersisted token.
	entries := map[string]string{
		domain.KeyToken:     res.Token,
		domain.KeyActorRole: string(role),
		domain.KeyActorID:   strconv.FormatInt(res.Actor.ID, 10),
	}
	if err := m.store.SetMany(ctx, entries); err != nil {
		metrics.Logins.WithLabelValues(string(in.Role), "error").Inc()
		m.log.Error().Err(err).Msg("login: persisting credentials failed")
		return ports.LoginOutcome{Message: "could not save session, please try again"}
	}

	profile := res.Actor
	m.mu.Lock()
	m.session = domain.Session{
		Token:   res.Token,
		Role:    role,
		Profile: &profile,
		State:   domain.StateReady,
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.connectRealtime(ctx, res.Token)
	m.publish(snap)

	nav := domain.NavigationTarget(res.Redirect)
	if nav == "" {
		nav = domain.DefaultLanding(role, res.Actor.ID)
	}

	metrics.Logins.WithLabelValues(string(role), "ok").Inc()
	m.log.Info().
		Str("role", string(role)).
		Int64("actor_id", res.Actor.ID).
		Msg("login succeeded")

	return ports.LoginOutcome{OK: true, NavigateTo: nav}
}

func (m *sessionManager) Logout(ctx context.Context) domain.NavigationTarget {
	// Clearing is allow-list preserving: snapshot the exempt keys, wipe
	// everything, put the snapshot back.
	if err := clearExcept(ctx, m.store, domain.LogoutAllowList); err != nil {
		m.log.Error().Err(err).Msg("logout: clearing credential store failed")
	}

	m.realtime.Disconnect()
	metrics.RealtimeConnections.WithLabelValues("disconnect").Inc()

	m.mu.Lock()
	m.session = domain.Session{State: domain.StateReady}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	m.log.Info().Msg("logged out")
	return domain.NavLogin
}

func (m *sessionManager) RefreshProfile(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	token, role := m.session.Token, m.session.Role
	m.mu.Unlock()

	if token == "" || role == domain.RoleNone {
		return m.Snapshot(), domain.ErrNotAuthenticated
	}

	// Role is already known, so no probing here.
	profile, err := m.upstream.FetchProfile(ctx, role, token)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialRejected) {
			m.clearCredentials(ctx)
			return m.Snapshot(), err
		}
		// Transient: keep the last known profile on display.
		m.log.Warn().Err(err).Msg("refresh: profile fetch failed")
		return m.Snapshot(), err
	}

	m.mu.Lock()
	m.session.Profile = profile
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	return snap, nil
}

func (m *sessionManager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *sessionManager) Subscribe() (<-chan domain.Session, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan domain.Session, subscriberBuffer)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// completeResolution finishes a successful profile fetch: persists the
// actor id (and the role, when it was discovered by probing), stores the
// profile, and opens the realtime channel.
func (m *sessionManager) completeResolution(ctx context.Context, role domain.Role, token string, profile *domain.ActorProfile, persistRole bool) {
	entries := map[string]string{
		domain.KeyActorID: strconv.FormatInt(profile.ID, 10),
	}
	if persistRole {
		entries[domain.KeyActorRole] = string(role)
	}
	if err := m.store.SetMany(ctx, entries); err != nil {
		m.log.Error().Err(err).Msg("bootstrap: persisting actor identity failed")
	}

	m.mu.Lock()
	m.session.Role = role
	m.session.Profile = profile
	m.mu.Unlock()

	m.connectRealtime(ctx, token)

	m.log.Info().
		Str("role", string(role)).
		Int64("actor_id", profile.ID).
		Msg("session resolved")
}

// resolveFailed handles a failed role-specific fetch during bootstrap.
// A rejection wipes the credential; anything else keeps it for retry.
func (m *sessionManager) resolveFailed(ctx context.Context, role domain.Role, err error) {
	if errors.Is(err, domain.ErrCredentialRejected) {
		m.clearCredentials(ctx)
		return
	}
	m.log.Warn().Err(err).Str("role", string(role)).Msg("bootstrap: profile fetch failed, keeping credentials")
}

// clearCredentials is the passive forced-logout path taken when the
// upstream explicitly rejects the held token. Unlike Logout it touches
// only the session keys and emits no navigation intent.
func (m *sessionManager) clearCredentials(ctx context.Context) {
	metrics.CredentialRejections.Inc()

	for _, key := range []string{domain.KeyToken, domain.KeyActorRole, domain.KeyActorID} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.log.Error().Err(err).Str("key", key).Msg("clearing credential key failed")
		}
	}

	m.realtime.Disconnect()

	m.mu.Lock()
	state := m.session.State
	m.session = domain.Session{State: state}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	m.log.Info().Msg("credentials rejected upstream, session cleared")
}

func (m *sessionManager) connectRealtime(ctx context.Context, token string) {
	if err := m.realtime.Connect(ctx, token); err != nil {
		// Realtime is best-effort: a failed connect does not invalidate
		// the session.
		m.log.Warn().Err(err).Msg("realtime connect failed")
		return
	}
	metrics.RealtimeConnections.WithLabelValues("connect").Inc()
}

// snapshotLocked copies the session, including the profile, so callers
// can never alias the manager's internal state. Callers must hold mu.
func (m *sessionManager) snapshotLocked() domain.Session {
	snap := m.session
	if snap.Profile != nil {
		p := *snap.Profile
		snap.Profile = &p
	}
	return snap
}

// publish fans the snapshot out to subscribers without blocking: a slow
// consumer misses an update rather than stalling a session operation.
func (m *sessionManager) publish(snap domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// clearExcept empties the store while preserving the named keys exactly.
func clearExcept(ctx context.Context, store ports.CredentialStore, keep []string) error {
	saved := make(map[string]string, len(keep))
	for _, key := range keep {
		v, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", key, err)
		}
		if v != "" {
			saved[key] = v
		}
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	if len(saved) == 0 {
		return nil
	}
	if err := store.SetMany(ctx, saved); err != nil {
		return fmt.Errorf("restore allow-list: %w", err)
	}
	return nil
}
