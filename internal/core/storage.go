package core

import (
	"fmt"
	"os"

	"stillcore/internal/infra/persistence/memory"
	"stillcore/internal/infra/persistence/postgres"
	"stillcore/internal/infra/persistence/sqlite"
	"stillcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	STILLCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	STILLCORE_SQLITE_PATH: path to sqlite file (default ./stillcore.db)
//	STILLCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("STILLCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("STILLCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("STILLCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
