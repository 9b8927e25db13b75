package testutils

import (
	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"quick-jot/quickjot/database"
)

// SetupMockDB returns a Postgres-dialect database backed by sqlmock, for tests
// that assert on the SQL a service emits.
func SetupMockDB() (*database.Database, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		panic(err)
	}

	close := func() {
		db.Close()
	}

	return &database.Database{DB: gormDB}, mock, close
}
