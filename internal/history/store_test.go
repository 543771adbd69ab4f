package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestNormalizeValue(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"temp":21.5}`, `{"temp":21.5}`},
		{`42`, `42`},
		{`"already a string"`, `"already a string"`},
		{`not json at all`, `"not json at all"`},
		{``, `""`},
	}
	for _, tc := range cases {
		if got := string(NormalizeValue([]byte(tc.in))); got != tc.want {
			t.Errorf("NormalizeValue(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

// openTestDB returns a DB for integration coverage, or skips when no database
// is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresStore_AppendQueryInsertionOrder(t *testing.T) {
	db := openTestDB(t)
	store := NewPostgresStore(db, 5*time.Hour)
	ctx := context.Background()
	deviceID := fmt.Sprintf("store-test-%d", time.Now().UnixNano())

	// Out-of-order producer timestamps; retrieval must preserve insertion order.
	base := time.Now().UTC().Truncate(time.Second)
	stamps := []time.Time{base.Add(2 * time.Second), base, base.Add(time.Second)}
	for i, ts := range stamps {
		payload := fmt.Sprintf(`{"seq":%d}`, i)
		if err := store.Append(ctx, deviceID, ts, []byte(payload)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := store.Query(ctx, deviceID)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf(`{"seq":%d}`, i)
		if string(e.Value) != want {
			t.Errorf("entry %d value = %s, want %s", i, e.Value, want)
		}
		if !e.Timestamp.Equal(stamps[i]) {
			t.Errorf("entry %d timestamp = %v, want %v", i, e.Timestamp, stamps[i])
		}
	}
}

func TestPostgresStore_QueryUnknownDeviceIsEmpty(t *testing.T) {
	db := openTestDB(t)
	store := NewPostgresStore(db, 0)

	entries, err := store.Query(context.Background(), "no-such-device")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestPostgresStore_RetentionPrunesOldEntries(t *testing.T) {
	db := openTestDB(t)
	store := NewPostgresStore(db, time.Hour)
	ctx := context.Background()
	deviceID := fmt.Sprintf("store-ttl-%d", time.Now().UnixNano())

	old := time.Now().UTC().Add(-2 * time.Hour)
	if err := store.Append(ctx, deviceID, old, []byte(`{"old":true}`)); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := store.Append(ctx, deviceID, time.Now().UTC(), []byte(`{"old":false}`)); err != nil {
		t.Fatalf("Append fresh: %v", err)
	}

	entries, err := store.Query(ctx, deviceID)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries after prune, want 1", len(entries))
	}
	if string(entries[0].Value) != `{"old":false}` {
		t.Errorf("surviving entry = %s", entries[0].Value)
	}
}
