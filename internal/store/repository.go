// Package store persists finished reports.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by FindByID for an unknown id.
var ErrNotFound = errors.New("report not found")

// Report is a stored report.
type Report struct {
	ID        int64     `json:"id"`
	HTML      string    `json:"html_content"`
	CSS       string    `json:"css_content,omitempty"`
	JS        string    `json:"js_content,omitempty"`
	HTMLEn    string    `json:"html_content_en,omitempty"`
	JSEn      string    `json:"js_content_en,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReport is the payload for Insert. Empty optional fields are stored as NULL.
type NewReport struct {
	HTML   string
	CSS    string
	JS     string
	HTMLEn string
	JSEn   string
}

type Reports interface {
	Insert(ctx context.Context, r NewReport) (Report, error)
	FindLatest(ctx context.Context) (*Report, error)
	FindByID(ctx context.Context, id int64) (*Report, error)
}

// SQL implements Reports on gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL wraps an open connection.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, errors.New("connection cannot be nil")
	}
	return &SQL{db: db}, nil
}

// OpenMySQL connects to MySQL with dsn, e.g.
// user:pass@tcp(host:3306)/reports?charset=utf8mb4&parseTime=True&loc=UTC.
func OpenMySQL(dsn string, migrate bool) (*SQL, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(&Table{}); err != nil {
			return nil, fmt.Errorf("migrating %s: %w", tableName, err)
		}
	}
	return NewSQL(db)
}

// Ping checks that the database is reachable.
func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) Insert(ctx context.Context, r NewReport) (Report, error) {
	row := tableFrom(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Report{}, err
	}
	return row.report(), nil
}

func (s *SQL) FindLatest(ctx context.Context) (*Report, error) {
	var row Table
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r := row.report()
	return &r, nil
}

func (s *SQL) FindByID(ctx context.Context, id int64) (*Report, error) {
	var row Table
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r := row.report()
	return &r, nil
}

// Memory keeps reports in process. Used when no database is configured.
type Memory struct {
	mu      sync.Mutex
	reports []Report
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) Insert(_ context.Context, r NewReport) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep := Report{
		ID:        int64(len(m.reports) + 1),
		HTML:      r.HTML,
		CSS:       r.CSS,
		JS:        r.JS,
		HTMLEn:    r.HTMLEn,
		JSEn:      r.JSEn,
		CreatedAt: m.now(),
	}
	m.reports = append(m.reports, rep)
	return rep, nil
}

func (m *Memory) FindLatest(_ context.Context) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reports) == 0 {
		return nil, nil
	}
	r := m.reports[len(m.reports)-1]
	return &r, nil
}

func (m *Memory) FindByID(_ context.Context, id int64) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || id > int64(len(m.reports)) {
		return nil, ErrNotFound
	}
	r := m.reports[id-1]
	return &r, nil
}

// Len reports how many reports are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}
