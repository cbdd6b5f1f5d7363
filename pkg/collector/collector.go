// Package collector implements the MySQL binlog collector: it opens a
// replication connection, consumes the resulting event stream, and
// translates each event into the common Value payload before handing it
// to the router. It owns the table-map and column-definition caches
// (via pkg/sqlanalyzer) that row reconstruction depends on; those caches
// live only as long as the connection does, since replication always
// starts from the master's current position with no resume token.
package collector

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
	"github.com/wlf-engine/wlf/pkg/sqlanalyzer"
	"github.com/wlf-engine/wlf/pkg/value"
)

// Config is a collector's static configuration, one per MySQL source.
type Config struct {
	ID          string
	Destination string
	Host        string
	Port        uint16 // defaults to 3306 if zero
	User        string
	Password    string
}

// ErrUnsupportedBinlogEvent is logged and skipped, never fatal: the
// stream keeps running past any event outside the explicit allowlist
// (QueryEvent, TableMapEvent, write rows, and the ignored housekeeping
// events). UpdateRowsEvent and DeleteRowsEvent fall in here today; the
// source stream this repository targets never emits them, and extending
// support is a design decision this repository does not make silently.
type ErrUnsupportedBinlogEvent struct {
	EventType string
}

func (e *ErrUnsupportedBinlogEvent) Error() string {
	return fmt.Sprintf("unsupported binlog event: %s", e.EventType)
}

// Collector is the component.Component implementation that drives one
// MySQL replication connection.
type Collector struct {
	cfg      Config
	analyzer *sqlanalyzer.Analyzer
	logger   zerolog.Logger
}

// New returns a Collector ready to Run against cfg.
func New(cfg Config) *Collector {
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	return &Collector{
		cfg:      cfg,
		analyzer: sqlanalyzer.New(),
		logger:   log.WithComponent(cfg.ID),
	}
}

func (c *Collector) ID() string { return c.cfg.ID }

func (c *Collector) Kind() component.Kind { return component.KindCollector }

// masterPosition fetches the replication start position via SHOW MASTER
// STATUS. Replication always starts here: there is no persisted resume
// token, so a collector restart re-reads the binlog from whatever
// position MySQL currently reports.
func masterPosition(dsn string) (gomysql.Position, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return gomysql.Position{}, fmt.Errorf("open mysql connection: %w", err)
	}
	defer db.Close()

	row := db.QueryRow("SHOW MASTER STATUS")
	var pos gomysql.Position
	var ignored interface{}
	if err := row.Scan(&pos.Name, &pos.Pos, &ignored, &ignored, &ignored); err != nil {
		return gomysql.Position{}, fmt.Errorf("read master status: %w", err)
	}
	return pos, nil
}

// randomServerID picks a server id unlikely to collide with a real
// replica, the same way a randomized slave id avoids colliding with
// another consumer of the same master.
func randomServerID() (uint32, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Run opens the replication connection and drives the event loop until
// ctx is canceled or the connection fails. It implements
// component.Component.
func (c *Collector) Run(ctx context.Context, r component.Router) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/", c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port)

	pos, err := masterPosition(dsn)
	if err != nil {
		return err
	}

	serverID, err := randomServerID()
	if err != nil {
		return fmt.Errorf("generate server id: %w", err)
	}

	syncer := replication.NewBinlogSyncer(replication.BinlogSyncerConfig{
		ServerID: serverID,
		Flavor:   "mysql",
		Host:     c.cfg.Host,
		Port:     c.cfg.Port,
		User:     c.cfg.User,
		Password: c.cfg.Password,
		UseSSL:   false,
	})
	defer syncer.Close()

	streamer, err := syncer.StartSync(pos)
	if err != nil {
		return fmt.Errorf("start binlog sync: %w", err)
	}

	for {
		ev, err := streamer.GetEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read binlog event: %w", err)
		}

		if err := c.handleEvent(ctx, r, ev); err != nil {
			if unsupported, ok := err.(*ErrUnsupportedBinlogEvent); ok {
				metrics.BinlogEventsUnsupportedTotal.WithLabelValues(c.cfg.ID, unsupported.EventType).Inc()
			}
			c.logger.Warn().Err(err).Msg("dropping binlog event")
		}
	}
}

func (c *Collector) handleEvent(ctx context.Context, r component.Router, ev *replication.BinlogEvent) error {
	switch e := ev.Event.(type) {
	case *replication.QueryEvent:
		return c.handleQueryEvent(ctx, r, ev.Header, e)

	case *replication.TableMapEvent:
		c.analyzer.MapTable(string(e.Schema), string(e.Table), e.TableID)
		return nil

	case *replication.RowsEvent:
		switch ev.Header.EventType {
		case replication.WRITE_ROWS_EVENTv0, replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
			return c.handleWriteRowsEvent(ctx, r, ev.Header, e)
		default:
			return &ErrUnsupportedBinlogEvent{EventType: ev.Header.EventType.String()}
		}

	case *replication.RotateEvent, *replication.FormatDescriptionEvent, *replication.GenericEvent, *replication.XIDEvent:
		return nil

	default:
		return &ErrUnsupportedBinlogEvent{EventType: ev.Header.EventType.String()}
	}
}

func (c *Collector) handleQueryEvent(ctx context.Context, r component.Router, h *replication.EventHeader, e *replication.QueryEvent) error {
	database := string(e.Schema)
	result, err := c.analyzer.Analyze(database, string(e.Query))
	if err != nil {
		return fmt.Errorf("analyze query event: %w", err)
	}
	if result.IsNull() {
		return nil
	}

	result.Set("timestamp", eventTimestamp(h.Timestamp))
	result.Set("server_id", value.Uint(uint64(h.ServerID)))
	result.Set("thread_id", value.Uint(uint64(e.SlaveProxyID)))

	return r.SendEvent(ctx, event.Event{Value: result}, c.cfg.Destination)
}

func (c *Collector) handleWriteRowsEvent(ctx context.Context, r component.Router, h *replication.EventHeader, e *replication.RowsEvent) error {
	database, table, err := c.analyzer.GetTableInfo(e.TableID)
	if err != nil {
		return err
	}
	defs, err := c.analyzer.GetColumnDefs(e.TableID)
	if err != nil {
		return err
	}

	rows := make([]value.Value, 0, len(e.Rows))
	for _, row := range e.Rows {
		rows = append(rows, c.reconstructRow(database, table, defs, row))
	}

	out := value.Object(
		value.Pair{Key: "database", Value: value.String(database)},
		value.Pair{Key: "table", Value: value.String(table)},
		value.Pair{Key: "type", Value: value.String("insert")},
		value.Pair{Key: "timestamp", Value: eventTimestamp(h.Timestamp)},
		value.Pair{Key: "server_id", Value: value.Uint(uint64(h.ServerID))},
		value.Pair{Key: "data", Value: value.Array(rows...)},
	)

	return r.SendEvent(ctx, event.Event{Value: out}, c.cfg.Destination)
}

// reconstructRow builds one row object by pairing cells with column
// definitions by position. If the row carries more cells than there are
// known columns, it logs the mismatch and stops at the first overflowing
// cell rather than failing the whole row.
func (c *Collector) reconstructRow(database, table string, defs []sqlanalyzer.ColumnDef, row []interface{}) value.Value {
	n := len(row)
	if len(defs) < n {
		log.WithTableRef(database, table).Warn().Msg("row data and column definitions do not match")
		n = len(defs)
	}

	pairs := make([]value.Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, value.Pair{Key: defs[i].Name, Value: debugCell(row[i])})
	}
	return value.Object(pairs...)
}

// eventTimestamp converts a binlog header's Unix-seconds timestamp. A
// zero timestamp shows up on some heartbeat-adjacent events and is
// treated as "no timestamp" rather than an error, since the conversion
// itself cannot fail in Go the way a fallible timestamp parse can
// elsewhere.
func eventTimestamp(ts uint32) value.Value {
	if ts == 0 {
		return value.Null()
	}
	return value.Timestamp(time.Unix(int64(ts), 0).UTC())
}

// debugCell renders one row cell the way the replication library's
// decoded Go value would print in a debug representation: quoted for
// strings/byte slices, plain for everything else, null for an absent
// cell.
func debugCell(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case string:
		return value.String(fmt.Sprintf("%q", x))
	case []byte:
		return value.String(fmt.Sprintf("%q", string(x)))
	default:
		return value.String(fmt.Sprint(x))
	}
}
