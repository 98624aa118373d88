package manager

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amigodata/amigosas/internal/sas"
	"github.com/amigodata/amigosas/pkg/models"
)

type fakeSession struct {
	id        string
	assigns   []string
	submitted []string
	closed    bool

	librefsFn func() ([]string, error)
	tablesFn  func(libref string) ([]models.Table, error)
	frameFn   func(libref, table string, opts sas.DataOpts, method string) (*models.Frame, error)
	submitErr error
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) AssignLibref(name, path string) error {
	f.assigns = append(f.assigns, name+"="+path)
	return nil
}

func (f *fakeSession) AssignedLibrefs() ([]string, error) {
	if f.librefsFn != nil {
		return f.librefsFn()
	}
	return []string{"work"}, nil
}

func (f *fakeSession) ListTables(libref string) ([]models.Table, error) {
	if f.tablesFn != nil {
		return f.tablesFn(libref)
	}
	return nil, nil
}

func (f *fakeSession) Dataset(libref, table string) (sas.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSession) TableToFrame(libref, table string, opts sas.DataOpts, method string) (*models.Frame, error) {
	if f.frameFn != nil {
		return f.frameFn(libref, table, opts, method)
	}
	return &models.Frame{}, nil
}

func (f *fakeSession) Submit(code string) error {
	f.submitted = append(f.submitted, code)
	return f.submitErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeConnector struct {
	sessions   []*fakeSession
	connectErr func(attempt int) error
	configure  func(s *fakeSession)
}

func (c *fakeConnector) Connect(profile string, libraries map[string]string) (sas.Session, error) {
	attempt := len(c.sessions) + 1
	if c.connectErr != nil {
		if err := c.connectErr(attempt); err != nil {
			return nil, err
		}
	}
	s := &fakeSession{id: fmt.Sprintf("sess-%d", attempt)}
	if c.configure != nil {
		c.configure(s)
	}
	c.sessions = append(c.sessions, s)
	return s, nil
}

func newManager(t *testing.T, cfg Config, conn *fakeConnector, opts ...Option) *SessionManager {
	t.Helper()
	mgr, err := New(cfg, conn, opts...)
	require.NoError(t, err)
	return mgr
}

func TestNewRegistersEveryLibrary(t *testing.T) {
	conn := &fakeConnector{}
	libs := map[string]string{
		"work":  "/data/work",
		"stage": "/data/stage",
		"raw":   "/data/raw",
	}

	newManager(t, Config{Profile: "oda", Libraries: libs}, conn)

	require.Len(t, conn.sessions, 1)
	got := conn.sessions[0].assigns
	sort.Strings(got)
	assert.Equal(t, []string{"raw=/data/raw", "stage=/data/stage", "work=/data/work"}, got)
}

func TestNewPropagatesConnectFailure(t *testing.T) {
	errDown := errors.New("engine down")
	conn := &fakeConnector{connectErr: func(int) error { return errDown }}

	_, err := New(Config{Profile: "oda"}, conn)
	assert.ErrorIs(t, err, errDown)
}

func TestReconnectReplacesHandle(t *testing.T) {
	errLost := errors.New("connection lost")
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		if s.id == "sess-1" {
			s.librefsFn = func() ([]string, error) { return nil, errLost }
		} else {
			s.librefsFn = func() ([]string, error) { return []string{"work"}, nil }
		}
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)
	require.Equal(t, "sess-1", mgr.SessionID())

	libs, err := mgr.ListLibraries()
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, libs)

	// the failed handle must be replaced before the retry
	assert.Equal(t, "sess-2", mgr.SessionID())
	assert.Len(t, conn.sessions, 2)
}

func TestRetriedLibrariesAreRegisteredOnNewHandle(t *testing.T) {
	errLost := errors.New("connection lost")
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		if s.id == "sess-1" {
			s.librefsFn = func() ([]string, error) { return nil, errLost }
		}
	}

	mgr := newManager(t, Config{Profile: "oda", Libraries: map[string]string{"work": "/data/work"}}, conn)
	_, err := mgr.ListLibraries()
	require.NoError(t, err)

	require.Len(t, conn.sessions, 2)
	assert.Equal(t, []string{"work=/data/work"}, conn.sessions[1].assigns)
}

func TestSecondFailurePropagatesUnchanged(t *testing.T) {
	errLost := errors.New("connection lost")
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		s.tablesFn = func(string) ([]models.Table, error) { return nil, errLost }
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)

	_, err := mgr.ListTables("work")
	assert.Equal(t, errLost, err)
	assert.Len(t, conn.sessions, 2)
}

func TestReconnectFailurePropagates(t *testing.T) {
	errLost := errors.New("connection lost")
	errDown := errors.New("engine down")
	conn := &fakeConnector{
		connectErr: func(attempt int) error {
			if attempt > 1 {
				return errDown
			}
			return nil
		},
	}
	conn.configure = func(s *fakeSession) {
		s.tablesFn = func(string) ([]models.Table, error) { return nil, errLost }
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)

	_, err := mgr.ListTables("work")
	assert.ErrorIs(t, err, errDown)
}

func TestQueryWithoutFilterPassesNoPredicate(t *testing.T) {
	var gotOpts sas.DataOpts
	var gotMethod string
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		s.frameFn = func(_, _ string, opts sas.DataOpts, method string) (*models.Frame, error) {
			gotOpts = opts
			gotMethod = method
			return &models.Frame{Columns: []string{"x"}}, nil
		}
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)

	frame, err := mgr.Query("work", "sales", "", "")
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Empty(t, gotOpts.Where)
	assert.Equal(t, sas.MethodMemory, gotMethod)
}

func TestQueryWithFilterPassesWherePredicate(t *testing.T) {
	var gotOpts sas.DataOpts
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		s.frameFn = func(_, _ string, opts sas.DataOpts, _ string) (*models.Frame, error) {
			gotOpts = opts
			return &models.Frame{Columns: []string{"x"}}, nil
		}
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)

	_, err := mgr.Query("work", "sales", "x=1", sas.MethodCSV)
	require.NoError(t, err)
	assert.Equal(t, "x=1", gotOpts.Where)
}

func TestQueryInvalidPredicateIsSwallowed(t *testing.T) {
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		s.frameFn = func(_, _ string, _ sas.DataOpts, _ string) (*models.Frame, error) {
			return nil, fmt.Errorf("%w: Parser Error near 'frobnicate'", sas.ErrInvalidQuery)
		}
	}

	mgr := newManager(t, Config{Profile: "oda"}, conn)

	frame, err := mgr.Query("work", "sales", "frobnicate !!", "")
	assert.NoError(t, err)
	assert.Nil(t, frame)

	// an invalid predicate is not a disconnect; no reconnect happens
	assert.Len(t, conn.sessions, 1)
}

func TestSetTablePermissionsSubmitsExactCommand(t *testing.T) {
	conn := &fakeConnector{}
	mgr := newManager(t, Config{Profile: "oda"}, conn)

	require.NoError(t, mgr.SetTablePermissions("/data/lib", "mytable"))

	require.Len(t, conn.sessions[0].submitted, 1)
	assert.Equal(t, `x 'chmod 744 /data/lib/mytable.sas7bdat';`, conn.sessions[0].submitted[0])
}

type fakeDisplay struct {
	cleared int
}

func (d *fakeDisplay) Clear() { d.cleared++ }

func TestDisplayClearedOnInteractiveReconnect(t *testing.T) {
	errLost := errors.New("connection lost")
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		if s.id == "sess-1" {
			s.librefsFn = func() ([]string, error) { return nil, errLost }
		}
	}
	display := &fakeDisplay{}

	mgr := newManager(t, Config{Profile: "oda", Interactive: true}, conn, WithDisplay(display))

	_, err := mgr.ListLibraries()
	require.NoError(t, err)
	assert.Equal(t, 1, display.cleared)
}

func TestDisplayUntouchedWhenNotInteractive(t *testing.T) {
	errLost := errors.New("connection lost")
	conn := &fakeConnector{}
	conn.configure = func(s *fakeSession) {
		if s.id == "sess-1" {
			s.librefsFn = func() ([]string, error) { return nil, errLost }
		}
	}
	display := &fakeDisplay{}

	mgr := newManager(t, Config{Profile: "oda", Interactive: false}, conn, WithDisplay(display))

	_, err := mgr.ListLibraries()
	require.NoError(t, err)
	assert.Zero(t, display.cleared)
}
