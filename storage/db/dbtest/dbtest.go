// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens empty result databases for tests.
//
// By default each test gets a private in-memory SQLite database. The
// -testdb flag selects a MySQL server instead, given in the same
// driver:dsn form the sbstat -db flag takes, for example
//
//	go test ./storage/db -testdb 'mysql:root:@cloudsql(project:region:instance)/'
//
// Each test then runs in a freshly created database on that server,
// which is dropped when the test finishes.
package dbtest

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"strings"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"

	"github.com/perfkit/sbperf/storage/db"
	_ "github.com/perfkit/sbperf/storage/db/sqlite3"
)

var testDB = flag.String("testdb", "sqlite3::memory:", "run database tests against `driver:dsn`")

// server splits a -testdb value into its driver and DSN. A MySQL DSN
// names the server only and must end in "/".
func server(s string) (driver, dsn string, err error) {
	driver, dsn, ok := strings.Cut(s, ":")
	if !ok || driver == "" {
		return "", "", fmt.Errorf("-testdb %q: want driver:dsn", s)
	}
	switch driver {
	case "sqlite3":
	case "mysql":
		if !strings.HasSuffix(dsn, "/") {
			return "", "", fmt.Errorf("-testdb %q: mysql DSN must end in /", s)
		}
	default:
		return "", "", fmt.Errorf("-testdb %q: unsupported driver %q", s, driver)
	}
	return driver, dsn, nil
}

// scratchName returns a random database name.
func scratchName() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sbperf_test_" + strings.ReplaceAll(base64.RawURLEncoding.EncodeToString(buf), "-", "_"), nil
}

// scratchMySQL creates an empty database on the server at prefix and
// returns its DSN. The database is dropped when the test finishes.
func scratchMySQL(t *testing.T, prefix string) string {
	name, err := scratchName()
	if err != nil {
		t.Fatal(err)
	}
	admin, err := sql.Open("mysql", prefix)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		admin.Close()
		t.Fatal(err)
	}
	t.Logf("using database %q", name)
	t.Cleanup(func() {
		if _, err := admin.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Error(err)
		}
		admin.Close()
	})
	return prefix + name
}

// NewDB returns an empty result database for the test, selected by
// the -testdb flag. It is closed when the test finishes.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	driver, dsn, err := server(*testDB)
	if err != nil {
		t.Fatal(err)
	}
	if driver == "mysql" {
		dsn = scratchMySQL(t, dsn)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		t.Fatalf("open %s database: %v", driver, err)
	}
	// Registered after scratchMySQL, so this runs before the drop.
	t.Cleanup(func() { d.Close() })

	if uploads, err := d.CountUploads(); err != nil {
		t.Fatal(err)
	} else if uploads != 0 {
		t.Fatalf("found %d upload(s) in a new database, want 0", uploads)
	}
	return d
}
