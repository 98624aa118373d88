// Package sas defines the call surface of the analytics engine a session
// manager drives, plus an embedded DuckDB implementation of it.
package sas

import (
	"errors"

	"github.com/amigodata/amigosas/pkg/models"
)

// Transfer methods for TableToFrame.
const (
	// MethodMemory scans the result straight into a frame.
	MethodMemory = "MEMORY"
	// MethodCSV stages the result through a temporary CSV file.
	MethodCSV = "CSV"
)

var (
	// ErrInvalidQuery marks a conversion that failed because the filter
	// predicate could not be applied to the table.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoSuchLibref marks an operation against an unassigned libref.
	ErrNoSuchLibref = errors.New("no such libref")
)

// DataOpts narrows a table before conversion. An empty Where means the
// whole table.
type DataOpts struct {
	Where string
}

// Session is a live handle to the analytics engine. Implementations are not
// safe for concurrent use; the session manager assumes a single caller.
type Session interface {
	// ID identifies this handle. A reconnect yields a new ID.
	ID() string

	// AssignLibref registers a library name at a filesystem path.
	AssignLibref(name, path string) error

	// AssignedLibrefs lists the librefs registered on this handle.
	AssignedLibrefs() ([]string, error)

	// ListTables lists the members of a library.
	ListTables(libref string) ([]models.Table, error)

	// Dataset returns a view handle onto a table.
	Dataset(libref, table string) (Dataset, error)

	// TableToFrame materializes a (possibly filtered) table into a frame
	// using the given transfer method. A filter that cannot be applied
	// reports ErrInvalidQuery.
	TableToFrame(libref, table string, opts DataOpts, method string) (*models.Frame, error)

	// Submit runs raw code through the engine's command channel.
	Submit(code string) error

	Close() error
}

// Dataset is a lazy view onto a single table.
type Dataset interface {
	Libref() string
	Name() string

	// Head materializes the first n rows. n <= 0 uses the engine default.
	Head(n int) (*models.Frame, error)
}

// Connector creates sessions for a configuration profile.
type Connector interface {
	Connect(profile string, libraries map[string]string) (Session, error)
}
