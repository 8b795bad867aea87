package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ricks/core/events"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// accountKeys are the attributes indexed as the event's primary account, in
// order of preference.
var accountKeys = []string{"account", "bidder", "winner", "buyer", "holder", "recipient", "curator", "depositor"}

// Open connects to the archive database and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("explorer: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("explorer: open %s: %w", driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("explorer: migrate: %w", err)
	}
	return db, nil
}

// Archive persists every emitted event. Emit writes synchronously, and the
// vault flushes events while holding its lock, so archive rows follow commit
// order and each insert adds to the latency of the call that produced it.
// Write failures are logged and never fail that call.
type Archive struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time

	mu  sync.Mutex
	seq uint64
}

// NewArchive resumes numbering after the highest archived sequence.
func NewArchive(db *gorm.DB, logger *slog.Logger) (*Archive, error) {
	if db == nil {
		return nil, errors.New("explorer: database required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var last EventRecord
	err := db.Order("sequence desc").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("explorer: load sequence: %w", err)
	}
	return &Archive{
		db:     db,
		logger: logger.With("component", "explorer"),
		nowFn:  time.Now,
		seq:    last.Sequence,
	}, nil
}

// Emit implements events.Emitter.
func (a *Archive) Emit(evt events.Event) {
	if a == nil || evt == nil {
		return
	}
	if _, err := a.Append(context.Background(), evt); err != nil {
		a.logger.Error("archive event", "error", err, "reason", evt.EventType())
	}
}

// Append stores evt and returns the archived record.
func (a *Archive) Append(ctx context.Context, evt events.Event) (*EventRecord, error) {
	rendered := events.Render(evt)
	if rendered == nil {
		return nil, errors.New("explorer: nil event")
	}
	encoded, err := json.Marshal(rendered.Attributes)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	record := &EventRecord{
		ID:         uuid.New(),
		Sequence:   a.seq + 1,
		Type:       rendered.Type,
		Account:    primaryAccount(rendered.Attributes),
		Attributes: string(encoded),
		Digest:     Digest(rendered.Type, encoded),
		CreatedAt:  a.nowFn().UTC(),
	}
	if err := a.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	a.seq = record.Sequence
	return record, nil
}

func primaryAccount(attrs map[string]string) string {
	for _, key := range accountKeys {
		if value := strings.TrimSpace(attrs[key]); value != "" {
			return value
		}
	}
	return ""
}

// Filter narrows an archive query. Results are ordered by sequence.
type Filter struct {
	Type    string
	Account string
	After   uint64
	Limit   int
}

// Query returns archived events matching filter.
func (a *Archive) Query(ctx context.Context, filter Filter) ([]EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	query := a.db.WithContext(ctx).Model(&EventRecord{}).Where("sequence > ?", filter.After)
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if account := strings.TrimSpace(filter.Account); account != "" {
		query = query.Where("account = ?", account)
	}
	var records []EventRecord
	if err := query.Order("sequence asc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
