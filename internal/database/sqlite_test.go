package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM products`).Scan(&n); err != nil {
		t.Fatalf("products table: %v", err)
	}
	if err := db.QueryRow(`SELECT count(*) FROM product_subscribers`).Scan(&n); err != nil {
		t.Fatalf("subscribers table: %v", err)
	}

	// Schema is idempotent.
	db.Close()
	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	db.Close()
}

func TestTargetDSN(t *testing.T) {
	c := DBConfig{User: "u", Password: "p@ss", Host: "db", Port: "5432", DBName: "tracker"}
	want := "postgres://u:p%40ss@db:5432/tracker?sslmode=disable"
	if got := c.TargetDSN(); got != want {
		t.Errorf("TargetDSN = %q, want %q", got, want)
	}
	c.SSLMode = "require"
	if got := c.TargetDSN(); got != "postgres://u:p%40ss@db:5432/tracker?sslmode=require" {
		t.Errorf("sslmode: %q", got)
	}
	if (DBConfig{Host: "db"}).Complete() {
		t.Error("partial config reported complete")
	}
}

func TestApplyEnvKeepsUnset(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "")
	for _, k := range []string{"DB_USER", "DB_PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	c := DBConfig{User: "app", Password: "secret", Host: "localhost", Port: "5432"}
	c.ApplyEnv()

	if c.Host != "db" {
		t.Errorf("host: %q", c.Host)
	}
	if c.Password != "" {
		t.Errorf("set-but-empty password should override: %q", c.Password)
	}
	if c.User != "app" || c.Port != "5432" {
		t.Errorf("unset vars changed fields: %+v", c)
	}
}
