// Package testutil provides test helpers for alabq.
//
// This package includes:
//   - Database setup for SQLite (always available) and PostgreSQL (integration tag)
//   - Table provisioning from table definitions through a dialect's DDL
//   - SQL, argument, value and error-code assertions
//
// # Build Tags
//
// PostgreSQL tests need a running database:
//
//	docker-compose -f docker-compose.test.yml up -d
//	go test ./... -tags=integration
//
// The connection string can be overridden with POSTGRES_URL.
//
// # Example Usage
//
//	func TestFindMany(t *testing.T) {
//	    db := testutil.SetupSQLite(t)
//	    testutil.CreateTables(t, db, dialect.SQLite(), usersTable)
//	    testutil.ExecSQL(t, db, `INSERT INTO users (id, name) VALUES (1, 'Ann')`)
//	    testutil.AssertRowCount(t, db, "users", 1)
//	}
package testutil
