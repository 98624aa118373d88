package sas

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog/log"

	"github.com/amigodata/amigosas/pkg/models"
)

// defaultHeadRows is the engine's own sample size, used when a caller asks
// for a head without naming a row count.
const defaultHeadRows = 5

// readableFormats maps member file extensions to the DuckDB reader used for
// them. sas7bdat members are listed but cannot be read locally.
var readableFormats = map[string]string{
	".parquet":  "parquet",
	".csv":      "csv",
	".json":     "json",
	".jsonl":    "json",
	".ndjson":   "json",
	".sas7bdat": "sas7bdat",
}

// EngineConnector creates sessions backed by an embedded DuckDB.
type EngineConnector struct{}

// NewEngineConnector returns a connector for the embedded engine.
func NewEngineConnector() *EngineConnector {
	return &EngineConnector{}
}

// Connect opens a fresh in-memory engine for the profile. Library
// registration is left to the caller.
func (*EngineConnector) Connect(profile string, libraries map[string]string) (Session, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	// DuckDB works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("INSTALL json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install JSON extension: %w", err)
	}
	if _, err := db.Exec("LOAD json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load JSON extension: %w", err)
	}

	sess := &engineSession{
		id:      uuid.New().String(),
		profile: profile,
		db:      db,
		librefs: make(map[string]string, len(libraries)),
	}
	log.Debug().Str("session", sess.id).Str("profile", profile).Msg("engine session opened")
	return sess, nil
}

// engineSession is a Session over an embedded DuckDB, with librefs resolved
// to directories of data files.
type engineSession struct {
	id      string
	profile string
	db      *sql.DB
	librefs map[string]string
}

func (s *engineSession) ID() string {
	return s.id
}

func (s *engineSession) AssignLibref(name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("assign libref %s: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("assign libref %s: %s is not a directory", name, path)
	}
	s.librefs[strings.ToLower(name)] = path
	return nil
}

func (s *engineSession) AssignedLibrefs() ([]string, error) {
	names := make([]string, 0, len(s.librefs))
	for name := range s.librefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *engineSession) ListTables(libref string) ([]models.Table, error) {
	dir, err := s.librefPath(libref)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", libref, err)
	}

	var tables []models.Table
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		format, ok := readableFormats[ext]
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		tables = append(tables, models.Table{
			Name:       strings.ToUpper(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
			Format:     format,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

func (s *engineSession) Dataset(libref, table string) (Dataset, error) {
	if _, _, err := s.tablePath(libref, table); err != nil {
		return nil, err
	}
	return &engineDataset{session: s, libref: libref, table: table}, nil
}

func (s *engineSession) TableToFrame(libref, table string, opts DataOpts, method string) (*models.Frame, error) {
	rel, err := s.relation(libref, table)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + rel
	if opts.Where != "" {
		query += " WHERE " + opts.Where
	}

	var frame *models.Frame
	switch strings.ToUpper(method) {
	case MethodMemory, "":
		frame, err = s.queryFrame(query)
	case MethodCSV:
		frame, err = s.stageCSV(query)
	default:
		return nil, fmt.Errorf("unknown transfer method %q", method)
	}
	if err != nil {
		if opts.Where != "" && isPredicateError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		return nil, err
	}
	return frame, nil
}

func (s *engineSession) Submit(code string) error {
	if cmd, ok := hostCommand(code); ok {
		log.Debug().Str("session", s.id).Str("command", cmd).Msg("submitting host command")
		return exec.Command("sh", "-c", cmd).Run()
	}
	_, err := s.db.Exec(code)
	return err
}

func (s *engineSession) Close() error {
	return s.db.Close()
}

// hostCommand extracts the shell command from the x '<cmd>'; submit form.
var hostCommandRe = regexp.MustCompile(`(?is)^\s*x\s+'(.+)'\s*;?\s*$`)

func hostCommand(code string) (string, bool) {
	m := hostCommandRe.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (s *engineSession) librefPath(libref string) (string, error) {
	dir, ok := s.librefs[strings.ToLower(libref)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSuchLibref, libref)
	}
	return dir, nil
}

// tablePath resolves a table name to its backing file, matching the base
// name case-insensitively.
func (s *engineSession) tablePath(libref, table string) (path, format string, err error) {
	dir, err := s.librefPath(libref)
	if err != nil {
		return "", "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("read libref %s: %w", libref, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		format, ok := readableFormats[ext]
		if !ok {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if strings.EqualFold(base, table) {
			return filepath.Join(dir, entry.Name()), format, nil
		}
	}
	return "", "", fmt.Errorf("table %s not found in libref %s", table, libref)
}

// relation builds the DuckDB FROM clause reading a table's backing file.
func (s *engineSession) relation(libref, table string) (string, error) {
	path, format, err := s.tablePath(libref, table)
	if err != nil {
		return "", err
	}

	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch format {
	case "parquet":
		return fmt.Sprintf("read_parquet(%s)", quoted), nil
	case "csv":
		return fmt.Sprintf("read_csv(%s, auto_detect = true, header = true)", quoted), nil
	case "json":
		return fmt.Sprintf("read_json(%s, format = 'newline_delimited', union_by_name = true)", quoted), nil
	default:
		return "", fmt.Errorf("table %s.%s: %s members require the remote engine", libref, table, format)
	}
}

func (s *engineSession) queryFrame(query string) (*models.Frame, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	frame := &models.Frame{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		frame.Rows = append(frame.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frame, nil
}

// stageCSV runs the query through a temporary CSV file instead of scanning
// the result directly.
func (s *engineSession) stageCSV(query string) (*models.Frame, error) {
	tmp, err := os.CreateTemp("", "amigosas-*.csv")
	if err != nil {
		return nil, fmt.Errorf("stage csv: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	quoted := "'" + strings.ReplaceAll(tmpPath, "'", "''") + "'"
	copyStmt := fmt.Sprintf("COPY (%s) TO %s (FORMAT CSV, HEADER)", query, quoted)
	if _, err := s.db.Exec(copyStmt); err != nil {
		return nil, err
	}

	return s.queryFrame(fmt.Sprintf("SELECT * FROM read_csv(%s, auto_detect = true, header = true)", quoted))
}

// isPredicateError reports whether a query failure came from DuckDB
// rejecting the statement rather than from I/O.
func isPredicateError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Parser Error") ||
		strings.Contains(msg, "Binder Error") ||
		strings.Contains(msg, "Conversion Error")
}

// engineDataset is a lazy view onto a single table.
type engineDataset struct {
	session *engineSession
	libref  string
	table   string
}

func (d *engineDataset) Libref() string {
	return d.libref
}

func (d *engineDataset) Name() string {
	return d.table
}

func (d *engineDataset) Head(n int) (*models.Frame, error) {
	if n <= 0 {
		n = defaultHeadRows
	}
	rel, err := d.session.relation(d.libref, d.table)
	if err != nil {
		return nil, err
	}
	return d.session.queryFrame(fmt.Sprintf("SELECT * FROM %s LIMIT %d", rel, n))
}
