package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gmsas95/medtrack/internal/adherence"
)

const dateLayout = "2006-01-02"

// MedicationRecord is the persisted form of a medication
type MedicationRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Dosage    string
	Frequency string
	TimesJSON string `gorm:"type:text"` // serialized ["08:00", "20:00"]

	// Calendar dates as YYYY-MM-DD so they survive any driver time zone handling
	StartDate string
	EndDate   string

	Notes           string
	ReminderEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across struct renames
func (MedicationRecord) TableName() string {
	return "medications"
}

// TakenEventRecord is the persisted form of a taken dose
type TakenEventRecord struct {
	ID            string    `gorm:"primaryKey"`
	MedicationID  string    `gorm:"index"`
	ScheduledTime string    // HH:MM slot, optional
	Timestamp     time.Time `gorm:"index"`
	CreatedAt     time.Time
}

func (TakenEventRecord) TableName() string {
	return "taken_events"
}

func toMedicationRecord(med *adherence.Medication) (*MedicationRecord, error) {
	timesJSON, err := json.Marshal(med.Times)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize times: %w", err)
	}

	rec := &MedicationRecord{
		ID:              med.ID,
		Name:            med.Name,
		Dosage:          med.Dosage,
		Frequency:       med.Frequency,
		TimesJSON:       string(timesJSON),
		StartDate:       med.StartDate.Format(dateLayout),
		Notes:           med.Notes,
		ReminderEnabled: med.ReminderEnabled,
	}
	if med.EndDate != nil {
		rec.EndDate = med.EndDate.Format(dateLayout)
	}
	return rec, nil
}

func (r *MedicationRecord) toMedication() (adherence.Medication, error) {
	med := adherence.Medication{
		ID:              r.ID,
		Name:            r.Name,
		Dosage:          r.Dosage,
		Frequency:       r.Frequency,
		Notes:           r.Notes,
		ReminderEnabled: r.ReminderEnabled,
	}

	if r.TimesJSON != "" {
		if err := json.Unmarshal([]byte(r.TimesJSON), &med.Times); err != nil {
			return med, fmt.Errorf("corrupt times for medication %s: %w", r.ID, err)
		}
	}

	start, err := time.ParseInLocation(dateLayout, r.StartDate, time.Local)
	if err != nil {
		return med, fmt.Errorf("corrupt start date for medication %s: %w", r.ID, err)
	}
	med.StartDate = start

	if r.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, r.EndDate, time.Local)
		if err != nil {
			return med, fmt.Errorf("corrupt end date for medication %s: %w", r.ID, err)
		}
		med.EndDate = &end
	}

	return med, nil
}

func (r *TakenEventRecord) toEvent() adherence.TakenEvent {
	return adherence.TakenEvent{
		ID:            r.ID,
		MedicationID:  r.MedicationID,
		ScheduledTime: r.ScheduledTime,
		Timestamp:     r.Timestamp,
	}
}
