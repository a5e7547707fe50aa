package config

import (
	"os"
	"path/filepath"

	dbm "github.com/tendermint/tm-db"
)

// DBContext names one chain database under the data directory of Config.
type DBContext struct {
	ID     string
	Config *Config
}

// Path is where the database lives on disk. memdb databases have no path.
func (ctx *DBContext) Path() string {
	if dbm.BackendType(ctx.Config.DBBackend) == dbm.MemDBBackend {
		return ""
	}
	return filepath.Join(ctx.Config.DBDir(), ctx.ID+".db")
}

// DBProvider opens the database of a DBContext.
type DBProvider func(*DBContext) (dbm.DB, error)

// DefaultDBProvider opens ctx.ID with the backend and directory of the config.
func DefaultDBProvider(ctx *DBContext) (dbm.DB, error) {
	return dbm.NewDB(ctx.ID, dbm.BackendType(ctx.Config.DBBackend), ctx.Config.DBDir())
}

// ResetDBProvider removes the data a previous run left at ctx.Path before
// opening the database with provider.
func ResetDBProvider(provider DBProvider) DBProvider {
	return func(ctx *DBContext) (dbm.DB, error) {
		if path := ctx.Path(); path != "" {
			if err := os.RemoveAll(path); err != nil {
				return nil, err
			}
		}
		return provider(ctx)
	}
}
