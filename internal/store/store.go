package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Store persists medications and taken events in SQLite
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Snapshot is an immutable copy of the stored collections
type Snapshot struct {
	Medications []adherence.Medication
	Events      []adherence.TakenEvent
	TakenAt     time.Time
}

// Open opens (creating if needed) the SQLite database at path
func Open(path string, log *zap.Logger) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	sqliteDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// every connection to :memory: is a separate database
	if path == MemoryPath {
		sqliteDB.SetMaxOpenConns(1)
	} else {
		sqliteDB.SetMaxOpenConns(4)
		sqliteDB.SetMaxIdleConns(2)
		sqliteDB.SetConnMaxLifetime(time.Hour)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return New(db, log)
}

// New wraps an existing gorm handle and migrates the schema
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := db.AutoMigrate(&MedicationRecord{}, &TakenEventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate medication schemas: %w", err)
	}

	return &Store{db: db, logger: log, now: time.Now}, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Medication Methods ====================

// CreateMedication validates and inserts a medication, assigning an ID when empty
func (s *Store) CreateMedication(ctx context.Context, med *adherence.Medication) error {
	med.Normalize()
	if med.StartDate.IsZero() {
		med.StartDate = s.now()
	}
	if err := med.Validate(); err != nil {
		return err
	}
	if med.ID == "" {
		med.ID = uuid.NewString()
	}

	rec, err := toMedicationRecord(med)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to create medication")
	}

	s.logger.Debug("Medication stored",
		zap.String("medication_id", med.ID),
		zap.String("name", med.Name),
	)
	return nil
}

// GetMedication returns the medication or ErrMedicationNotFound
func (s *Store) GetMedication(ctx context.Context, id string) (*adherence.Medication, error) {
	var rec MedicationRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrMedicationNotFound.Code, fmt.Sprintf("medication %s not found", id))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to load medication")
	}

	med, err := rec.toMedication()
	if err != nil {
		return nil, err
	}
	return &med, nil
}

// ListMedications returns all medications in insertion order
func (s *Store) ListMedications(ctx context.Context) ([]adherence.Medication, error) {
	var recs []MedicationRecord
	if err := s.db.WithContext(ctx).Order("rowid ASC").Find(&recs).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to list medications")
	}

	meds := make([]adherence.Medication, 0, len(recs))
	for i := range recs {
		med, err := recs[i].toMedication()
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	return meds, nil
}

// DeleteMedication removes a medication. Its taken events are kept so past
// adherence stays intact.
func (s *Store) DeleteMedication(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&MedicationRecord{})
	if res.Error != nil {
		return apperrors.Wrap(res.Error, apperrors.ErrStorage.Code, "failed to delete medication")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrMedicationNotFound.Code, fmt.Sprintf("medication %s not found", id))
	}
	return nil
}

// SetReminderEnabled toggles reminders for a medication
func (s *Store) SetReminderEnabled(ctx context.Context, id string, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&MedicationRecord{}).Where("id = ?", id).Update("reminder_enabled", enabled)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, apperrors.ErrStorage.Code, "failed to update medication")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrMedicationNotFound.Code, fmt.Sprintf("medication %s not found", id))
	}
	return nil
}

// ==================== Taken Event Methods ====================

// RecordTaken stores a taken dose. A zero timestamp means now.
func (s *Store) RecordTaken(ctx context.Context, ev *adherence.TakenEvent) error {
	if ev.MedicationID == "" {
		return apperrors.InvalidArgument("medication id is required")
	}
	if ev.ScheduledTime != "" {
		t, err := adherence.ParseTimeOfDay(ev.ScheduledTime)
		if err != nil {
			return err
		}
		ev.ScheduledTime = t.String()
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	rec := &TakenEventRecord{
		ID:            ev.ID,
		MedicationID:  ev.MedicationID,
		ScheduledTime: ev.ScheduledTime,
		Timestamp:     ev.Timestamp.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to record taken dose")
	}
	return nil
}

// ListEvents returns events at or after since (all events for a zero since),
// oldest first
func (s *Store) ListEvents(ctx context.Context, since time.Time) ([]adherence.TakenEvent, error) {
	query := s.db.WithContext(ctx)
	if !since.IsZero() {
		query = query.Where("timestamp >= ?", since.UTC())
	}

	var recs []TakenEventRecord
	if err := query.Order("timestamp ASC").Find(&recs).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to list taken events")
	}

	events := make([]adherence.TakenEvent, len(recs))
	for i := range recs {
		events[i] = recs[i].toEvent()
	}
	return events, nil
}

// Snapshot copies both collections for a single engine computation
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	meds, err := s.ListMedications(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.ListEvents(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return &Snapshot{Medications: meds, Events: events, TakenAt: s.now()}, nil
}
