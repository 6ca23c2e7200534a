package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/mailpdf/internal/message"
	"go.uber.org/zap/zaptest"

	_ "github.com/mattn/go-sqlite3"
)

func TestDSNFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/tmp/j.db", "file:///tmp/j.db?_busy_timeout=60000"},
		{"file:/tmp/j.db?mode=rwc", "file:/tmp/j.db?_busy_timeout=60000&mode=rwc"},
	}
	for _, tc := range cases {
		got, err := dsnFromPath(tc.path, map[string][]string{"_busy_timeout": {"60000"}})
		if err != nil {
			t.Errorf("dsnFromPath(%q) = %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("dsnFromPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func openTemp(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(context.Background(), path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open(%q) = %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	db.now = func() time.Time { return time.Unix(1704196800, 0) }
	return db
}

func TestReplies(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	id := message.ID{PermID: "m1", ThreadID: "t1"}

	replied, err := db.HasReplied(ctx, "m1")
	if err != nil || replied {
		t.Fatalf("HasReplied(m1) = %v, %v before any reply, want false, nil", replied, err)
	}
	if err := db.RecordReply(ctx, id, "friend@example.com", 2); err != nil {
		t.Fatalf("RecordReply() = %v", err)
	}
	// Recording twice is harmless.
	if err := db.RecordReply(ctx, id, "friend@example.com", 2); err != nil {
		t.Fatalf("second RecordReply() = %v", err)
	}
	replied, err = db.HasReplied(ctx, "m1")
	if err != nil || !replied {
		t.Errorf("HasReplied(m1) = %v, %v, want true, nil", replied, err)
	}
	replied, err = db.HasReplied(ctx, "m2")
	if err != nil || replied {
		t.Errorf("HasReplied(m2) = %v, %v, want false, nil", replied, err)
	}
}

func TestRecordTrash(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	for _, tc := range []struct {
		id     string
		reason string
	}{{"m1", "answered"}, {"m2", "stale"}, {"m1", "answered"}} {
		if err := db.RecordTrash(ctx, message.ID{PermID: tc.id, ThreadID: "t"}, tc.reason); err != nil {
			t.Fatalf("RecordTrash(%s) = %v", tc.id, err)
		}
	}

	rows, err := db.db.QueryContext(ctx, `SELECT message_id, reason, trashed_at FROM trashed ORDER BY rowid`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	type row struct {
		ID, Reason string
		At         int64
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ID, &r.Reason, &r.At); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}
	want := []row{
		{"m1", "answered", 1704196800},
		{"m2", "stale", 1704196800},
		{"m1", "answered", 1704196800},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trashed rows mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenReusesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	log := zaptest.NewLogger(t)

	db, err := Open(ctx, path, log)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if err := db.RecordReply(ctx, message.ID{PermID: "m1", ThreadID: "t1"}, "a@example.com", 1); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(ctx, path, log)
	if err != nil {
		t.Fatalf("second Open() = %v", err)
	}
	defer db.Close()
	if replied, err := db.HasReplied(ctx, "m1"); err != nil || !replied {
		t.Errorf("HasReplied(m1) after reopen = %v, %v, want true, nil", replied, err)
	}
}
