package repository

import (
	"context"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// TableUsage 单表行数与占用字节
type TableUsage struct {
	Table string
	Rows  int64
	Bytes int64
}

type StorageRepo interface {
	Dialect() string
	Compact(ctx context.Context, tables ...string) error
	TableUsage(ctx context.Context, tables []string) ([]*TableUsage, error)
}

type storageRepoImpl struct {
	db *gorm.DB
}

func NewStorageRepo(db *gorm.DB) StorageRepo {
	return &storageRepoImpl{db: db}
}

func (s *storageRepoImpl) Dialect() string {
	return s.db.Dialector.Name()
}

// Compact 回收删除后的空间：MySQL OPTIMIZE TABLE，Postgres VACUUM ANALYZE，SQLite VACUUM
func (s *storageRepoImpl) Compact(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		if !tableNameRe.MatchString(t) {
			return fmt.Errorf("invalid table name %q", t)
		}
	}

	db := s.db.WithContext(ctx)
	switch s.Dialect() {
	case DialectMySQL:
		if len(tables) == 0 {
			return nil
		}
		return db.Exec("OPTIMIZE TABLE " + strings.Join(tables, ", ")).Error
	case DialectPostgres:
		for _, t := range tables {
			if err := db.Exec("VACUUM ANALYZE " + t).Error; err != nil {
				return err
			}
		}
		return nil
	case DialectSQLite:
		return db.Exec("VACUUM").Error
	default:
		log.WarnContext(ctx, "compaction not supported for dialect", "dialect", s.Dialect())
		return nil
	}
}

func (s *storageRepoImpl) TableUsage(ctx context.Context, tables []string) ([]*TableUsage, error) {
	db := s.db.WithContext(ctx)
	usages := make([]*TableUsage, 0, len(tables))

	for _, t := range tables {
		if !tableNameRe.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
		u := &TableUsage{Table: t}
		if err := db.Table(t).Count(&u.Rows).Error; err != nil {
			return nil, err
		}
		u.Bytes = s.tableBytes(ctx, t)
		usages = append(usages, u)
	}
	return usages, nil
}

// tableBytes 查询失败时返回 0，SQLite 需要编译 dbstat 才有数据
func (s *storageRepoImpl) tableBytes(ctx context.Context, table string) int64 {
	db := s.db.WithContext(ctx)
	var size int64
	var err error

	switch s.Dialect() {
	case DialectMySQL:
		err = db.Raw("SELECT COALESCE(data_length + index_length, 0) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", table).
			Scan(&size).Error
	case DialectPostgres:
		err = db.Raw("SELECT pg_total_relation_size(?::regclass)", table).Scan(&size).Error
	case DialectSQLite:
		err = db.Raw("SELECT COALESCE(SUM(pgsize), 0) FROM dbstat WHERE name = ?", table).Scan(&size).Error
	}
	if err != nil {
		log.DebugContext(ctx, "table size unavailable", "table", table, "err", err)
		return 0
	}
	return size
}
