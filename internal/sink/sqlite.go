// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sink

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

const schema = `CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sensor_id TEXT NOT NULL,
	recorded_at INTEGER NOT NULL,
	distance_mm INTEGER NOT NULL,
	reliability INTEGER NOT NULL,
	status INTEGER NOT NULL,
	result_number INTEGER NOT NULL
)`

// SQLite appends samples to the samples table of a database.
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
	id     string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, sensorID uint32) (*SQLite, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "db open")
	}
	// One writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "db ping")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "db schema")
	}
	insert, err := db.Prepare(`INSERT INTO samples
		(sensor_id, recorded_at, distance_mm, reliability, status, result_number)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "db prepare")
	}
	return &SQLite{db: db, insert: insert, id: SensorID(sensorID)}, nil
}

func buildDSN(path string) (string, error) {
	params := "_busy_timeout=5000&_journal_mode=WAL"
	if path == ":memory:" {
		return "file::memory:?" + params, nil
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + params, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", pkgerrors.Wrapf(err, "mkdir %s", dir)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, params), nil
}

func (s *SQLite) Write(v tmf8x01.Sample) error {
	_, err := s.insert.Exec(s.id, v.Time.UnixMilli(), v.MM, v.Reliability, v.Status, v.ResultNumber)
	return pkgerrors.Wrap(err, "db insert")
}

// DB returns the underlying database.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) Close() error {
	_ = s.insert.Close()
	return s.db.Close()
}
