package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/utils"
)

const tableHousePrice = "house_price"

var listingColumns = []string{
	"dealtime", "type", "address", "room", "dealprice", "unitprice", "floorspace", "floor", "total_floor",
}

var coordinateColumns = []string{"latitude", "longitude"}

var (
	_ ListingLoader   = (*SQLStore)(nil)
	_ CoordinateStore = (*SQLStore)(nil)
	_ CommunityReader = (*SQLStore)(nil)
	_ ListingWriter   = (*CSVWriter)(nil)
)

type dialect struct {
	driver      string
	idColumn    string
	placeholder sq.PlaceholderFormat
	waitForDB   bool
	// columnCount counts the columns of house_price named column.
	columnCount func(b sq.StatementBuilderType, column string) sq.SelectBuilder
}

var dialects = map[string]dialect{
	"sqlite": {
		driver:      "sqlite",
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		placeholder: sq.Question,
		columnCount: func(b sq.StatementBuilderType, column string) sq.SelectBuilder {
			return b.Select("COUNT(*)").
				From(fmt.Sprintf("pragma_table_info('%s')", tableHousePrice)).
				Where(sq.Eq{"name": column})
		},
	},
	"postgres": {
		driver:      "postgres",
		idColumn:    "id SERIAL PRIMARY KEY",
		placeholder: sq.Dollar,
		waitForDB:   true,
		columnCount: func(b sq.StatementBuilderType, column string) sq.SelectBuilder {
			return b.Select("COUNT(*)").
				From("information_schema.columns").
				Where("table_schema = current_schema()").
				Where(sq.Eq{"table_name": tableHousePrice}).
				Where(sq.Eq{"column_name": column})
		},
	},
}

// SQLStore persists listings in the house_price table. One store is opened
// per run and its connection pool is held until Close.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// Open connects to the database, creates the table and adds the coordinate
// columns when they are missing. driver is "sqlite" (dsn is a file path) or
// "postgres".
func Open(ctx context.Context, driver, dsn string, logger *utils.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if err := ping(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	s, err := NewSQLStore(db, driver, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an already opened database.
func NewSQLStore(db *sql.DB, driver string, logger *utils.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	return &SQLStore{db: db, dialect: d, logger: logger}, nil
}

// ping waits for a database server to accept connections; file-backed
// databases are pinged once.
func ping(ctx context.Context, db *sql.DB, d dialect) error {
	if !d.waitForDB {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("store: ping: %w", err)
		}
		return nil
	}

	err := backoff.Retry(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 10),
			ctx,
		),
	)
	if err != nil {
		return fmt.Errorf("store: ping failed after retries: %w", err)
	}
	return nil
}

func (s *SQLStore) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.placeholder)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execWith(ctx context.Context, e execer, stmt sq.Sqlizer) (sql.Result, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	return e.ExecContext(ctx, query, args...)
}

// Exec runs a statement that returns no rows.
func (s *SQLStore) Exec(ctx context.Context, stmt sq.Sqlizer) (sql.Result, error) {
	return execWith(ctx, s.db, stmt)
}

// Query runs a statement and returns its rows; the caller closes them.
func (s *SQLStore) Query(ctx context.Context, stmt sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// Migrate creates the table and then adds the coordinate columns in a
// separate alteration step.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.CreateTable(ctx); err != nil {
		return err
	}
	return s.AddCoordinateColumns(ctx)
}

func (s *SQLStore) CreateTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			dealtime    TEXT,
			type        TEXT,
			address     TEXT,
			room        TEXT,
			dealprice   DOUBLE PRECISION,
			unitprice   DOUBLE PRECISION,
			floorspace  DOUBLE PRECISION,
			floor       TEXT,
			total_floor TEXT
		)`, tableHousePrice, s.dialect.idColumn)
	if _, err := s.Exec(ctx, sq.Expr(ddl)); err != nil {
		return fmt.Errorf("store: create table: %w", err)
	}

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_address ON %[1]s(address)", tableHousePrice)
	if _, err := s.Exec(ctx, sq.Expr(index)); err != nil {
		return fmt.Errorf("store: create index: %w", err)
	}
	return nil
}

// AddCoordinateColumns adds latitude and longitude, skipping columns that
// already exist.
func (s *SQLStore) AddCoordinateColumns(ctx context.Context) error {
	for _, column := range coordinateColumns {
		exists, err := s.hasColumn(ctx, column)
		if err != nil {
			return fmt.Errorf("store: check column %s: %w", column, err)
		}
		if exists {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s DOUBLE PRECISION", tableHousePrice, column)
		if _, err := s.Exec(ctx, sq.Expr(alter)); err != nil {
			return fmt.Errorf("store: add column %s: %w", column, err)
		}
		s.logger.Info("[store] Added column %s.%s", tableHousePrice, column)
	}
	return nil
}

func (s *SQLStore) hasColumn(ctx context.Context, column string) (bool, error) {
	rows, err := s.Query(ctx, s.dialect.columnCount(s.builder(), column))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n > 0, rows.Err()
}

// Load inserts one row per listing inside a single transaction and returns
// the number of rows inserted. Nothing is deduplicated.
func (s *SQLStore) Load(ctx context.Context, listings []*models.Listing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, l := range listings {
		stmt := s.builder().Insert(tableHousePrice).
			Columns(listingColumns...).
			Values(
				l.DealTime, l.Type, l.Address, l.Room,
				nullFloat(l.DealPrice), nullFloat(l.UnitPrice), nullFloat(l.FloorSpace),
				l.Floor, nullString(l.TotalFloor),
			)
		if _, err := execWith(ctx, tx, stmt); err != nil {
			return 0, fmt.Errorf("store: insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit load: %w", err)
	}
	return len(listings), nil
}

// Count returns the number of stored listings.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	rows, err := s.Query(ctx, s.builder().Select("COUNT(*)").From(tableHousePrice))
	if err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("store: scan count: %w", err)
		}
	}
	return n, rows.Err()
}

// FetchAll retrieves every stored listing in insertion order.
func (s *SQLStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	columns := append([]string{"id"}, listingColumns...)
	columns = append(columns, coordinateColumns...)

	rows, err := s.Query(ctx, s.builder().Select(columns...).From(tableHousePrice).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("store: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var (
			l                                models.Listing
			dealPrice, unitPrice, floorSpace sql.NullFloat64
			latitude, longitude              sql.NullFloat64
			dealTime, typ, address, room     sql.NullString
			floor, totalFloor                sql.NullString
		)
		if err := rows.Scan(
			&l.ID, &dealTime, &typ, &address, &room,
			&dealPrice, &unitPrice, &floorSpace, &floor, &totalFloor,
			&latitude, &longitude,
		); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		l.DealTime = dealTime.String
		l.Type = typ.String
		l.Address = address.String
		l.Room = room.String
		l.Floor = floor.String
		l.DealPrice = floatPtr(dealPrice)
		l.UnitPrice = floatPtr(unitPrice)
		l.FloorSpace = floatPtr(floorSpace)
		l.TotalFloor = stringPtr(totalFloor)
		l.Latitude = floatPtr(latitude)
		l.Longitude = floatPtr(longitude)
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// UpdateCoordinates writes the coordinates into every row whose address
// equals address and returns how many rows changed.
func (s *SQLStore) UpdateCoordinates(ctx context.Context, address string, lat, lng float64) (int64, error) {
	stmt := s.builder().Update(tableHousePrice).
		Set("latitude", lat).
		Set("longitude", lng).
		Where(sq.Eq{"address": address})

	res, err := s.Exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("store: update coordinates: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return n, nil
}

// AverageUnitPrice groups the listings of one type by address and averages
// their unit price. The order of the result is unspecified.
func (s *SQLStore) AverageUnitPrice(ctx context.Context, listingType string) ([]models.CommunityAggregate, error) {
	stmt := s.builder().Select("address", "AVG(unitprice)").
		From(tableHousePrice).
		Where(sq.Eq{"type": listingType}).
		GroupBy("address")

	rows, err := s.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("store: average unit price: %w", err)
	}
	defer rows.Close()

	var result []models.CommunityAggregate
	for rows.Next() {
		var (
			address sql.NullString
			avg     sql.NullFloat64
		)
		if err := rows.Scan(&address, &avg); err != nil {
			return nil, fmt.Errorf("store: scan aggregate: %w", err)
		}
		result = append(result, models.CommunityAggregate{Address: address.String, AvgUnitPrice: floatPtr(avg)})
	}
	return result, rows.Err()
}

// Markers returns one marker per address of the given type, carrying the
// group's average unit price and the coordinates of its last stored row.
func (s *SQLStore) Markers(ctx context.Context, listingType string) ([]models.MapMarker, error) {
	groups := s.builder().
		Select("address", "MAX(id) AS last_id", "AVG(unitprice) AS avg_unit_price").
		From(tableHousePrice).
		Where(sq.Eq{"type": listingType}).
		GroupBy("address")

	stmt := s.builder().
		Select("h.address", "g.avg_unit_price", "h.latitude", "h.longitude").
		FromSelect(groups, "g").
		Join(tableHousePrice + " h ON h.id = g.last_id").
		OrderBy("h.id")

	rows, err := s.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("store: markers: %w", err)
	}
	defer rows.Close()

	var result []models.MapMarker
	for rows.Next() {
		var (
			address       sql.NullString
			avg, lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&address, &avg, &lat, &lng); err != nil {
			return nil, fmt.Errorf("store: scan marker: %w", err)
		}
		result = append(result, models.MapMarker{
			Address:      address.String,
			AvgUnitPrice: floatPtr(avg),
			Latitude:     floatPtr(lat),
			Longitude:    floatPtr(lng),
		})
	}
	return result, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
