// Package database opens the optional run ledger database.
//
// It wraps GORM and configures either a MySQL server shared by every workstation or a
// local SQLite file, based on the application's configuration. An empty driver
// disables the ledger.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("Run ledger disabled", zap.Error(err))
//	}
package database
