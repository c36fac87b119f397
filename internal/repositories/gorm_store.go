package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apexify/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase connects to driver ("postgres" or "sqlite") and migrates the schema.
func OpenDatabase(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// SQLite serialises writers; one connection keeps in-memory databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	if log != nil {
		log.Info("database_ready", zap.String("driver", driver))
	}
	return db, nil
}

// GORMStore is a Store backed by a relational database through GORM.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore wraps an opened database handle.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// DB exposes the underlying handle.
func (s *GORMStore) DB() *gorm.DB { return s.db }

func (s *GORMStore) Repositories() Repositories {
	return gormRepositories(s.db)
}

func (s *GORMStore) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormRepositories(tx))
	})
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	return sqlDB.Close()
}

func gormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:  NewGORMProductRepository(db),
		Orders:    NewGORMOrderRepository(db),
		Users:     NewGORMUserRepository(db),
		Coupons:   NewGORMCouponRepository(db),
		Reviews:   NewGORMReviewRepository(db),
		PopupAds:  NewGORMPopupAdRepository(db),
		Wishlists: NewGORMWishlistRepository(db),
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
