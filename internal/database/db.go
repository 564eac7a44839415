// Package database opens the MySQL store holding sign records and saved
// user signatures.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL, configures the pool and verifies the connection
// with a bounded ping.  parseTime maps DATETIME columns to time.Time and
// loc=UTC keeps CreateTime/UpdateTime comparisons timezone-free.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
    if err != nil {
        return nil, fmt.Errorf("open mysql: %w", err)
    }

    // The workload is many short point queries (status polls, confirms), so
    // a modest pool with recycled connections is enough.
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping mysql: %w", err)
    }
    return db, nil
}

func dsn(user, pass, host, port, name string) string {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)
}
