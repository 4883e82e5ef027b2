// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists ledger events in sqlite so indexers and the read
// API can query them by block range and name without replaying state.
package eventdb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/log"
	"github.com/stasisprotocol/stasis/staking"
)

var logger = log.WithContext("pkg", "eventdb")

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	blockNumber INTEGER NOT NULL,
	name TEXT NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS event_block ON event(blockNumber);
CREATE INDEX IF NOT EXISTS event_name ON event(name);`

type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range bounds a query to blocks [From, To], inclusive.
type Range struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events by name and/or block range. A zero Name matches
// every event; a nil Range matches every block.
type Filter struct {
	Name    string    `json:"name"`
	Order   OrderType `json:"order"` // default asc
	Range   *Range    `json:"range"`
	Options *Options  `json:"options"`
}

// Event is one stored ledger occurrence.
type Event struct {
	ID          uint64          `json:"id"`
	BlockNumber uint32          `json:"blockNumber"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
}

// EventDB manages the event store.
type EventDB struct {
	path string
	db   *sql.DB
}

// New opens an event db at the given path, creating the schema when absent.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event db")
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create event schema")
	}
	return &EventDB{path: path, db: db}, nil
}

// NewMem creates an in-memory event db, for tests.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (e *EventDB) Path() string {
	return e.path
}

func (e *EventDB) Close() error {
	return e.db.Close()
}

// Insert stores one event.
func (e *EventDB) Insert(blockNumber uint32, event staking.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	_, err = e.db.Exec(
		"INSERT INTO event(blockNumber, name, payload) VALUES(?, ?, ?)",
		blockNumber, event.Name(), payload)
	return errors.Wrap(err, "failed to insert event")
}

// MaxBlockNumber returns the highest block number seen by the store, zero
// when empty.
func (e *EventDB) MaxBlockNumber() (uint32, error) {
	row := e.db.QueryRow("SELECT IFNULL(MAX(blockNumber), 0) FROM event")
	var n uint32
	if err := row.Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to query max block number")
	}
	return n, nil
}

// Filter queries stored events, ordered by insertion within blocks.
func (e *EventDB) Filter(f *Filter) ([]*Event, error) {
	query := "SELECT id, blockNumber, name, payload FROM event"
	var args []any
	where := ""
	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	if f != nil {
		if f.Name != "" {
			and("name = ?")
			args = append(args, f.Name)
		}
		if f.Range != nil {
			and("blockNumber >= ? AND blockNumber <= ?")
			args = append(args, f.Range.From, f.Range.To)
		}
	}
	query += where
	if f != nil && f.Order == DESC {
		query += " ORDER BY id DESC"
	} else {
		query += " ORDER BY id ASC"
	}
	if f != nil && f.Options != nil {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Options.Limit, f.Options.Offset)
	}

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.BlockNumber, &ev.Name, (*[]byte)(&ev.Payload)); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// Sink adapts the store to the ledger's event sink. Storage failures are
// logged rather than surfaced, an indexing gap must not fail a ledger
// operation that already committed.
func (e *EventDB) Sink() staking.Sink {
	return sink{e}
}

type sink struct {
	db *EventDB
}

func (s sink) Emit(blockNumber uint32, event staking.Event) {
	if err := s.db.Insert(blockNumber, event); err != nil {
		logger.Warn(fmt.Sprintf("failed to store event %s", event.Name()), "err", err)
	}
}
