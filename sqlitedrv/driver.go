// Package sqlitedrv provides a database/sql/driver implementation on top of
// the sqlitec binding.
//
// The driver registers itself as "litebind":
//
//	db, err := sql.Open("litebind", "file:app.db?cache=shared")
//
// Use NewConnector with options for anything beyond a plain file name, and
// sql.Conn.Raw with RawConn to reach the underlying *sqlitec.Conn.
package sqlitedrv

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/sqlitec"
)

// DriverName is the name the driver is registered under.
const DriverName = "litebind"

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
	_ driver.Connector     = (*Connector)(nil)
)

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver implements the database/sql/driver interface
type Driver struct{}

// Open creates a new connection to the SQLite database
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	return NewConnector(dsn).Connect(context.Background())
}

// OpenConnector returns a Connector for dsn.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	return NewConnector(dsn), nil
}

type connectorOption func(*Connector)

// WithPostConnectQueries sets a slice of queries to be executed after a
// connection is established
func WithPostConnectQueries(queries []string) connectorOption {
	return func(connector *Connector) {
		connector.postConnectQueries = queries
	}
}

// WithBusyTimeout sets how long a connection waits on a locked database
// before failing with SQLITE_BUSY.
func WithBusyTimeout(timeout time.Duration) connectorOption {
	return func(connector *Connector) {
		connector.busyTimeout = timeout
	}
}

// WithOpenFlags sets the flags used to open every connection. The default
// is sqlitec.OpenDefault, plus sqlitec.OpenURI for "file:" names.
func WithOpenFlags(flags sqlitec.OpenFlags) connectorOption {
	return func(connector *Connector) {
		connector.flags = flags
	}
}

// WithVFS selects the VFS used to open every connection.
func WithVFS(vfs string) connectorOption {
	return func(connector *Connector) {
		connector.vfs = vfs
	}
}

// WithTxMode sets the mode of transactions started with BeginTx.
func WithTxMode(mode sqlitec.TxMode) connectorOption {
	return func(connector *Connector) {
		connector.txMode = mode
	}
}

// WithLogger sets the logger for connection lifecycle events.
func WithLogger(logger *slog.Logger) connectorOption {
	return func(connector *Connector) {
		connector.logger = logger
	}
}

// Connector implements the database/sql/driver.Connector interface
type Connector struct {
	dsn                string
	flags              sqlitec.OpenFlags
	vfs                string
	busyTimeout        time.Duration
	txMode             sqlitec.TxMode
	postConnectQueries []string
	logger             *slog.Logger
}

// NewConnector creates a new connector to the SQLite database
func NewConnector(dsn string, options ...connectorOption) *Connector {
	connector := &Connector{
		dsn:    dsn,
		flags:  sqlitec.OpenDefault,
		txMode: sqlitec.TxDeferred,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if strings.HasPrefix(dsn, "file:") {
		connector.flags |= sqlitec.OpenURI
	}

	for _, option := range options {
		option(connector)
	}

	return connector
}

// Connect creates a new connection to the SQLite database
func (connector *Connector) Connect(_ context.Context) (driver.Conn, error) {
	raw, err := sqlitec.OpenV2(connector.dsn, connector.flags, connector.vfs)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if connector.busyTimeout > 0 {
		if err := raw.SetBusyTimeout(connector.busyTimeout); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	for _, query := range connector.postConnectQueries {
		if err := raw.Exec(query); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf(`failed to execute "%s" post-connect query: %w`, query, err)
		}
	}

	connector.logger.Debug("connection opened", "ns", log.NsDriver, "dsn", connector.dsn)

	return &Conn{
		raw:       raw,
		connector: connector,
	}, nil
}

// Driver returns the driver
func (connector *Connector) Driver() driver.Driver {
	return &Driver{}
}
