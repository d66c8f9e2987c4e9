package db

import "testing"

func TestDialectRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"

	if got := SQLite.Rebind(q); got != q {
		t.Fatalf("sqlite rebind = %q, want unchanged", got)
	}

	want := "SELECT a FROM t WHERE x = $1 AND y = $2"
	if got := Postgres.Rebind(q); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	conn, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRow("SELECT 1").Scan(&one); err != nil || one != 1 {
		t.Fatalf("select 1: got %d, err %v", one, err)
	}
}
