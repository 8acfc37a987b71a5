// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores aggregated sysbench results in a SQL database.
package db

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/net/context"

	"github.com/perfkit/sbperf/sbfmt"
)

// DB is a high-level interface to a database of sysbench results.
// It's safe for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertUpload      *sql.Stmt
	insertBucket      *sql.Stmt
	insertObservation *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	if driverName == "sqlite3" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(driverName); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}}
);
CREATE TABLE IF NOT EXISTS Buckets (
	UploadID BIGINT UNSIGNED,
	Config VARCHAR(255),
	Mode VARCHAR(64),
	BlockSize BIGINT,
	TotalSize VARCHAR(64),
	PRIMARY KEY (UploadID, Config, Mode),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Observations (
	UploadID BIGINT UNSIGNED,
	Config VARCHAR(255),
	Mode VARCHAR(64),
	Metric VARCHAR(64),
	Threads INT,
	Seq INT,
	Value DOUBLE,
	PRIMARY KEY (UploadID, Config, Mode, Metric, Threads, Seq),
	FOREIGN KEY (UploadID, Config, Mode) REFERENCES Buckets(UploadID, Config, Mode) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements(driverName string) error {
	var err error
	q := "INSERT INTO Uploads() VALUES ()"
	if driverName == "sqlite3" {
		q = "INSERT INTO Uploads DEFAULT VALUES"
	}
	db.insertUpload, err = db.sql.Prepare(q)
	if err != nil {
		return err
	}
	db.insertBucket, err = db.sql.Prepare("INSERT INTO Buckets(UploadID, Config, Mode, BlockSize, TotalSize) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertObservation, err = db.sql.Prepare("INSERT INTO Observations(UploadID, Config, Mode, Metric, Threads, Seq, Value) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// An Upload is one set of aggregated results stored under an upload ID.
type Upload struct {
	// ID is the public identifier of the upload.
	ID string

	// id is the numeric value used as the primary key.
	id int64
	// db is the underlying database that this upload is going to.
	db *DB
}

// NewUpload returns an upload for storing new results.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	res, err := db.insertUpload.ExecContext(ctx)
	if err != nil {
		return nil, err
	}
	i, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Upload{
		ID: fmt.Sprint(i),
		id: i,
		db: db,
	}, nil
}

// InsertResults stores every observation in results under u in a
// single transaction. Averages are not stored; they are recomputed by
// Finalize after loading.
func (u *Upload) InsertResults(ctx context.Context, results sbfmt.Results) (err error) {
	tx, err := u.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	insertBucket := tx.StmtContext(ctx, u.db.insertBucket)
	insertObservation := tx.StmtContext(ctx, u.db.insertObservation)
	for _, config := range results.ConfigNames() {
		mr := results[config]
		for _, mode := range mr.Modes() {
			b := mr[mode]
			if _, err := insertBucket.ExecContext(ctx, u.id, config, string(mode), b.BlockSize, b.TotalSize); err != nil {
				return fmt.Errorf("insert %s/%s: %w", config, mode, err)
			}
			for _, m := range sbfmt.Metrics {
				obs := b.Results[m]
				for _, threads := range obs.Threads() {
					for seq, v := range obs[threads] {
						if _, err := insertObservation.ExecContext(ctx, u.id, config, string(mode), m.Key(), threads, seq, v); err != nil {
							return fmt.Errorf("insert %s/%s %s: %w", config, mode, m, err)
						}
					}
				}
			}
		}
	}
	return nil
}

// LoadResults returns the results stored under uploadID. The returned
// results are finalized.
func (db *DB) LoadResults(ctx context.Context, uploadID string) (sbfmt.Results, error) {
	id, err := strconv.ParseInt(uploadID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad upload ID %q", uploadID)
	}
	results := make(sbfmt.Results)

	rows, err := db.sql.QueryContext(ctx, "SELECT Config, Mode, BlockSize, TotalSize FROM Buckets WHERE UploadID = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var config, mode, totalSize string
		var blockSize int64
		if err := rows.Scan(&config, &mode, &blockSize, &totalSize); err != nil {
			return nil, err
		}
		results.Config(config)[sbfmt.TestMode(mode)] = sbfmt.NewBucket(blockSize, totalSize)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		var n int
		if err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Uploads WHERE UploadID = ?", id).Scan(&n); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return results, nil
	}

	rows, err = db.sql.QueryContext(ctx, "SELECT Config, Mode, Metric, Threads, Value FROM Observations WHERE UploadID = ? ORDER BY Config, Mode, Metric, Threads, Seq", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var config, mode, key string
		var threads int
		var v float64
		if err := rows.Scan(&config, &mode, &key, &threads, &v); err != nil {
			return nil, err
		}
		m, ok := sbfmt.ParseMetric(key)
		if !ok {
			return nil, fmt.Errorf("upload %s: unknown metric %q", uploadID, key)
		}
		results[config][sbfmt.TestMode(mode)].Add(m, threads, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	results.Finalize()
	return results, nil
}

// ErrNotFound is returned by LoadResults if the upload does not exist.
var ErrNotFound = errors.New("upload not found")

// CountUploads returns the number of uploads in the database.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// ListUploads returns the IDs of the stored uploads, most recent
// first. If limit is positive, at most limit IDs are returned.
func (db *DB) ListUploads(ctx context.Context, limit int) ([]string, error) {
	q := "SELECT UploadID FROM Uploads ORDER BY UploadID DESC"
	var args []interface{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return ids, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertUpload, db.insertBucket, db.insertObservation} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
