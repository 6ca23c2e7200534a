// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persist

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matta/mailpdf/internal/message"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	createTableSql = []string{
		// The replies table records each message the bot answered.
		//
		// Field: message_id
		//
		//   GMail API: Users.messages resource "id" field of the
		//   answered message.
		//
		// Field: thread_id
		//
		//   GMail API: Users.messages resource "threadId" field.
		//
		// Field: recipient
		//
		//   The bare address the reply went to.
		//
		// Field: attachments
		//
		//   How many PDFs the reply carried.
		//
		// Field: replied_at
		//
		//   Unix seconds.
		`
CREATE TABLE IF NOT EXISTS replies (
message_id TEXT NOT NULL PRIMARY KEY,
thread_id TEXT NOT NULL,
recipient TEXT NOT NULL,
attachments INTEGER NOT NULL,
replied_at INTEGER NOT NULL
);`,
		// The trashed table records each message the bot moved to
		// the trash and why ("answered", "stale", ...).  A message
		// may be trashed more than once if an earlier trash was
		// undone by a user.
		`
CREATE TABLE IF NOT EXISTS trashed (
message_id TEXT NOT NULL,
thread_id TEXT NOT NULL,
reason TEXT NOT NULL,
trashed_at INTEGER NOT NULL
);`,
	}
)

// DB is the reply journal.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

func dsnFromPath(path string, addValues url.Values) (string, error) {
	var u *url.URL
	if !strings.HasPrefix(path, "file:") {
		u = &url.URL{Scheme: "file", Path: path}
	} else {
		var err error
		u, err = url.Parse(path)
		if err != nil {
			return "", err
		}
	}
	values := u.Query()
	for k, v := range addValues {
		for _, item := range v {
			values.Add(k, item)
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Open opens, creating if needed, the journal database at path.  The
// caller must import a "sqlite3" database/sql driver.
func Open(ctx context.Context, path string, log *zap.Logger) (*DB, error) {
	// The _busy_timeout is a SQLite extension that controls how
	// long SQLite will poll before giving up.  The default of 5
	// seconds is too short if two runs overlap; go with 1 minute.
	var busyTimeout = int(time.Minute) / int(time.Millisecond)

	dsn, err := dsnFromPath(path, url.Values{
		"_busy_timeout": {fmt.Sprintf("%d", busyTimeout)}})
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not form a DB DSN from "+
				"the given path",
			path)
	}
	log.Debug("opening journal", zap.String("dsn", dsn))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not open database at %q",
			path, dsn)
	}

	if err = initSchema(ctx, db, log); err != nil {
		db.Close()
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not initialize the "+
				"database schema", path)
	}

	return &DB{db: db, now: time.Now}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	for _, sql := range createTableSql {
		log.Debug("SQL Exec", zap.String("sql", sql))
		if _, err := db.ExecContext(ctx, sql); err != nil {
			return errors.Wrapf(err, "while executing %q", sql)
		}
	}

	return nil
}

// HasReplied reports whether a reply to the message was recorded.
func (db *DB) HasReplied(ctx context.Context, id string) (bool, error) {
	const q = `SELECT 1 FROM replies WHERE message_id = $1`
	var one int
	err := db.db.QueryRowContext(ctx, q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil // a non-error
	}
	if err != nil {
		return false, errors.Wrap(err, "db query failed in HasReplied")
	}
	return true, nil
}

// RecordReply records that the message was answered.
func (db *DB) RecordReply(ctx context.Context, id message.ID, to string, attachments int) error {
	const q = `INSERT OR REPLACE INTO replies
		(message_id, thread_id, recipient, attachments, replied_at)
		values ($1, $2, $3, $4, $5)`
	_, err := db.db.ExecContext(ctx, q, id.PermID, id.ThreadID, to, attachments, db.now().Unix())
	if err != nil {
		return errors.Wrap(err, "db insert failed in RecordReply")
	}
	return nil
}

// RecordTrash records that the message was trashed, and why.
func (db *DB) RecordTrash(ctx context.Context, id message.ID, reason string) error {
	const q = `INSERT INTO trashed
		(message_id, thread_id, reason, trashed_at)
		values ($1, $2, $3, $4)`
	_, err := db.db.ExecContext(ctx, q, id.PermID, id.ThreadID, reason, db.now().Unix())
	if err != nil {
		return errors.Wrap(err, "db insert failed in RecordTrash")
	}
	return nil
}
