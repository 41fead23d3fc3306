// Copyright 2025 Sonic Labs
// This file is part of Shadowfuzz, a verification framework for Sonic
//
// Shadowfuzz is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Shadowfuzz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Shadowfuzz. If not, see <http://www.gnu.org/licenses/>.

// Package register persists the actions of fuzz runs in a sqlite database so
// that a failing run can be inspected and replayed from its seed.
package register

import (
	"database/sql"

	"github.com/0xsoniclabs/shadowfuzz/config"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	// registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const (
	// bufferSize of the in-memory buffer for action records
	bufferSize = 1000

	createSQL = `
PRAGMA journal_mode = MEMORY;
CREATE TABLE IF NOT EXISTS run (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	createTimestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	campaign TEXT,
	policy TEXT,
	seed INTEGER,
	steps INTEGER
);
CREATE TABLE IF NOT EXISTS action (
	run INTEGER,
	step INTEGER,
	actor TEXT,
	action TEXT,
	success INTEGER,
	error TEXT,
	gas INTEGER
);
`

	insertRunSQL = `
INSERT INTO run (
	campaign, policy, seed, steps
) VALUES (
	?, ?, ?, ?
)
`

	insertActionSQL = `
INSERT INTO action (
	run, step, actor, action, success, error, gas
) VALUES (
	?, ?, ?, ?, ?, ?, ?
)
`

	selectActionsSQL = `
SELECT run, step, actor, action, success, error, gas FROM action WHERE run = ? ORDER BY step
`

	summarySQL = `
SELECT action, SUM(success) AS succeeded, COUNT(*) - SUM(success) AS failed, SUM(gas) AS gas
FROM action WHERE run = ? GROUP BY action ORDER BY action
`
)

// Entry is one registered action.
type Entry struct {
	Run     int64  `db:"run"`
	Step    int    `db:"step"`
	Actor   string `db:"actor"`
	Action  string `db:"action"`
	Success bool   `db:"success"`
	Error   string `db:"error"`
	Gas     uint64 `db:"gas"`
}

// ActionSummary aggregates the entries of one action of a run.
type ActionSummary struct {
	Action    string `db:"action"`
	Succeeded int    `db:"succeeded"`
	Failed    int    `db:"failed"`
	Gas       uint64 `db:"gas"`
}

// RunRegistry records the outcomes of one run. It implements
// simulation.Recorder.
type RunRegistry struct {
	db     *sqlx.DB
	stmt   *sql.Stmt // prepared insert statement for an action
	run    int64
	buffer []Entry
	limit  int // number of buffered entries that triggers a flush
}

// NewRunRegistry opens or creates the registry in dbFile and registers a new
// run of cfg.
func NewRunRegistry(dbFile string, cfg *config.Config) (*RunRegistry, error) {
	db, err := sqlx.Open("sqlite3", dbFile)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %v", dbFile)
	}
	r, err := newRunRegistry(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func newRunRegistry(db *sqlx.DB, cfg *config.Config) (*RunRegistry, error) {
	if _, err := db.Exec(createSQL); err != nil {
		return nil, errors.Wrap(err, "cannot create schema")
	}
	res, err := db.Exec(insertRunSQL, cfg.Campaign, cfg.Policy, cfg.RandomSeed, cfg.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "cannot register run")
	}
	run, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read id of run")
	}
	stmt, err := db.Prepare(insertActionSQL)
	if err != nil {
		return nil, errors.Wrap(err, "cannot prepare statement for actions")
	}
	return &RunRegistry{
		db:     db,
		stmt:   stmt,
		run:    run,
		buffer: make([]Entry, 0, bufferSize),
		limit:  bufferSize,
	}, nil
}

// Run returns the id of the registered run.
func (r *RunRegistry) Run() int64 {
	return r.run
}

// Record buffers the outcome of a step and flushes full buffers.
func (r *RunRegistry) Record(step int, outcome *simulation.Outcome) error {
	e := Entry{
		Run:     r.run,
		Step:    step,
		Actor:   outcome.Actor,
		Action:  outcome.Action,
		Success: outcome.Success,
		Gas:     outcome.GasUsed,
	}
	if outcome.Err != nil {
		e.Error = outcome.Err.Error()
	}
	r.buffer = append(r.buffer, e)
	if len(r.buffer) >= r.limit {
		if err := r.Flush(); err != nil {
			return errors.Wrap(err, "cannot flush actions")
		}
	}
	return nil
}

// Flush writes the buffered entries in one transaction.
func (r *RunRegistry) Flush() error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, e := range r.buffer {
		_, err := tx.Stmt(r.stmt).Exec(e.Run, e.Step, e.Actor, e.Action, e.Success, e.Error, e.Gas)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	r.buffer = r.buffer[:0]
	return tx.Commit()
}

// Actions returns the entries of run ordered by step. Buffered entries are
// not included.
func (r *RunRegistry) Actions(run int64) ([]Entry, error) {
	var res []Entry
	if err := r.db.Select(&res, selectActionsSQL, run); err != nil {
		return nil, errors.Wrapf(err, "cannot read actions of run %d", run)
	}
	return res, nil
}

// Summary aggregates the entries of run per action.
func (r *RunRegistry) Summary(run int64) ([]ActionSummary, error) {
	var res []ActionSummary
	if err := r.db.Select(&res, summarySQL, run); err != nil {
		return nil, errors.Wrapf(err, "cannot summarize run %d", run)
	}
	return res, nil
}

// Close flushes the buffer and closes the database.
func (r *RunRegistry) Close() error {
	defer func() {
		_ = r.stmt.Close()
		_ = r.db.Close()
	}()
	return r.Flush()
}
