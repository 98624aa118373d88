// Package manager owns a single live analytics session and wraps every
// operation in a reconnect-and-retry-once policy.
package manager

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/amigodata/amigosas/internal/sas"
	"github.com/amigodata/amigosas/pkg/models"
)

// Config describes a session. Immutable after construction.
type Config struct {
	Profile     string
	Libraries   map[string]string
	Interactive bool
}

// Display is an interactive output surface cleared after a reconnect, so a
// retried operation does not render on top of stale failure output.
type Display interface {
	Clear()
}

// SessionManager holds at most one live session handle and reconnects it
// when an operation fails. Not safe for concurrent use; it assumes one
// caller at a time.
type SessionManager struct {
	cfg       Config
	connector sas.Connector
	session   sas.Session
	display   Display
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithDisplay attaches the display cleared on reconnect when the session
// is interactive.
func WithDisplay(d Display) Option {
	return func(m *SessionManager) { m.display = d }
}

// New eagerly connects a session for the profile. A connection failure here
// is not retried.
func New(cfg Config, connector sas.Connector, opts ...Option) (*SessionManager, error) {
	m := &SessionManager{cfg: cfg, connector: connector}
	for _, opt := range opts {
		opt(m)
	}

	sess, err := m.initSession()
	if err != nil {
		return nil, fmt.Errorf("connect profile %q: %w", cfg.Profile, err)
	}
	m.session = sess
	return m, nil
}

// initSession creates a fresh handle and registers every configured library
// on it, one assign call per mapping entry.
func (m *SessionManager) initSession() (sas.Session, error) {
	sess, err := m.connector.Connect(m.cfg.Profile, m.cfg.Libraries)
	if err != nil {
		return nil, err
	}
	for name, path := range m.cfg.Libraries {
		if err := sess.AssignLibref(name, path); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// SessionID identifies the live handle. It changes across reconnects.
func (m *SessionManager) SessionID() string {
	return m.session.ID()
}

// Close releases the live handle.
func (m *SessionManager) Close() error {
	return m.session.Close()
}

// withReconnect runs op against the live handle. On any failure it replaces
// the handle with a fresh one and retries exactly once; the second failure
// is returned unmodified. The old handle is dropped, not closed. Failures
// are treated as potentially transient disconnects regardless of kind.
func withReconnect[T any](m *SessionManager, op func(sas.Session) (T, error)) (T, error) {
	v, err := op(m.session)
	if err == nil {
		return v, nil
	}

	log.Warn().
		Err(err).
		Str("profile", m.cfg.Profile).
		Str("session", m.session.ID()).
		Msg("session operation failed, reconnecting")

	sess, rerr := m.initSession()
	if rerr != nil {
		var zero T
		return zero, fmt.Errorf("reconnect profile %q: %w", m.cfg.Profile, rerr)
	}
	m.session = sess
	if m.cfg.Interactive && m.display != nil {
		m.display.Clear()
	}

	return op(m.session)
}

// ListLibraries returns the librefs visible to the session.
func (m *SessionManager) ListLibraries() ([]string, error) {
	return withReconnect(m, func(s sas.Session) ([]string, error) {
		return s.AssignedLibrefs()
	})
}

// ListTables returns the members of a library.
func (m *SessionManager) ListTables(lib string) ([]models.Table, error) {
	return withReconnect(m, func(s sas.Session) ([]models.Table, error) {
		return s.ListTables(lib)
	})
}

// SampleTable returns a view handle onto the first rows of a table. The row
// count is the engine's default; no limit is passed here.
func (m *SessionManager) SampleTable(lib, table string) (sas.Dataset, error) {
	return withReconnect(m, func(s sas.Session) (sas.Dataset, error) {
		return s.Dataset(lib, table)
	})
}

// Query materializes a table into a frame, filtered by a where-style
// predicate when filter is non-empty. A predicate the engine rejects is
// reported and swallowed: the caller gets a nil frame and no error.
func (m *SessionManager) Query(lib, table, filter, method string) (*models.Frame, error) {
	if method == "" {
		method = sas.MethodMemory
	}
	return withReconnect(m, func(s sas.Session) (*models.Frame, error) {
		var opts sas.DataOpts
		if filter != "" {
			opts.Where = filter
		}
		frame, err := s.TableToFrame(lib, table, opts, method)
		if errors.Is(err, sas.ErrInvalidQuery) {
			log.Warn().
				Err(err).
				Str("libref", lib).
				Str("table", table).
				Str("where", filter).
				Msg("invalid query")
			return nil, nil
		}
		return frame, err
	})
}

// SetTablePermissions makes a table's backing file group-readable by
// submitting a host chmod through the engine's command channel. Inputs are
// not escaped; callers must pass trusted paths.
func (m *SessionManager) SetTablePermissions(libPath, table string) error {
	_, err := withReconnect(m, func(s sas.Session) (struct{}, error) {
		return struct{}{}, s.Submit(fmt.Sprintf("x 'chmod 744 %s/%s.sas7bdat';", libPath, table))
	})
	return err
}
