package db

import (
	"fmt"
	"net"
	"time"

	"Playshare/config"
	"Playshare/logger"
	"Playshare/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DSN builds the MySQL data source name from cfg.
func DSN(cfg *config.Config) string {
	dc := mysqldriver.NewConfig()
	dc.User = cfg.DBUser
	dc.Passwd = cfg.DBPassword
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	dc.DBName = cfg.DBName
	dc.ParseTime = true
	dc.Loc = time.Local
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

// Open wraps gorm.Open with the shared options. Tests pass a sqlite dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(),
		// Cascades and set-null are done by the repositories.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// ConnectGormDB opens the MySQL connection pool.
func ConnectGormDB(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := Open(mysql.Open(DSN(cfg)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to the database", logger.String("host", cfg.DBHost), logger.String("name", cfg.DBName))
	return gdb, nil
}

// CloseGormDB closes the pool behind gdb.
func CloseGormDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates every table.
func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("GORM database not initialized")
	}
	if err := gdb.SetupJoinTable(&model.Playlist{}, "Tags", &model.PlaylistTag{}); err != nil {
		return fmt.Errorf("failed to set up playlist_tags join table: %w", err)
	}
	if err := gdb.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("Models migrated successfully")
	return nil
}
