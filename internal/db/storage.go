package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	m "fincalendar/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Storage struct {
	db  *gorm.DB
	rds *redis.Client
	lg  zerolog.Logger
}

func NewStorage(mc *MysqlConfig, rc *RedisConfig, opts ...gorm.Option) (*Storage, error) {

	sqlDB, err := sql.Open("mysql", stgDsn(mc))
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Use a compatible writer for GORM's logger
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	opts = append([]gorm.Option{&gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}}, opts...)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn: sqlDB,
	}), opts...)
	if err != nil {
		return nil, err
	}

	var rds *redis.Client
	if rc != nil && rc.ip != "" {
		rds = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", rc.ip, rc.port),
			Password: rc.password,
			DB:       rc.db, // memo. 캐시는 0번 DB 하나만 사용
		})
	}

	stg := newStorage(db, rds)
	if err := stg.initTables(); err != nil {
		return nil, err
	}
	return stg, nil
}

func newStorage(db *gorm.DB, rds *redis.Client) *Storage {
	return &Storage{
		db:  db,
		rds: rds,
		lg:  zerolog.New(os.Stdout).With().Str("Module", "Storage").Timestamp().Logger(),
	}
}

func (s Storage) initTables() error {
	if err := s.db.AutoMigrate(m.Entities()...); err != nil {
		return fmt.Errorf("failed to migrate database. %w", err)
	}
	return nil
}

// Transaction runs fn atomically. The Storage handed to fn shares the cache but not the connection.
func (s Storage) Transaction(ctx context.Context, fn func(tx *Storage) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx, rds: s.rds, lg: s.lg})
	})
	return translate(err)
}

func (s Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s Storage) Close() error {
	if s.rds != nil {
		s.rds.Close()
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type MysqlConfig struct {
	user     string
	password string
	ip       string
	port     string
	scheme   string
}

func NewMysqlConfig(user string, password string, ip string, port string, scheme string) *MysqlConfig {
	return &MysqlConfig{
		user:     user,
		password: password,
		ip:       ip,
		port:     port,
		scheme:   scheme,
	}
}

// memo. 모든 timestamp 컬럼은 UTC 기준으로 읽고 씀
func stgDsn(conf *MysqlConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", conf.user, conf.password, conf.ip, conf.port, conf.scheme)
}

type RedisConfig struct {
	password string
	ip       string
	port     string
	db       int
}

func NewRedisConfig(password string, ip string, port string, db int) *RedisConfig {
	return &RedisConfig{
		password: password,
		ip:       ip,
		port:     port,
		db:       db,
	}
}
