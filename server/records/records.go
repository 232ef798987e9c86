package records

import (
	"context"
	"strings"
	"sync"

	"github.com/gear6io/parity/pkg/errors"
)

// FailingPatientID makes the fixture repository report a backend failure
const FailingPatientID = "error"

// forbiddenIDChars may not appear in a patient id
const forbiddenIDChars = `';\/`

// Patient identifies a patient
type Patient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Record is one medical record entry
type Record struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Type   string `json:"type"`
	Result string `json:"result"`
}

// PatientRecords is the body returned for a patient
type PatientRecords struct {
	Patient Patient  `json:"patient"`
	Records []Record `json:"records"`
}

// Repository looks up a patient's records
type Repository interface {
	PatientRecords(ctx context.Context, patientID string) (*PatientRecords, error)
}

// ValidateID rejects ids containing quote, semicolon or slash characters
func ValidateID(patientID string) error {
	if strings.ContainsAny(patientID, forbiddenIDChars) {
		return errors.New(ErrInvalidID, "Invalid patient ID format", nil).AddContext("patient_id", patientID)
	}
	return nil
}

// MemoryRepository serves records from memory
type MemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]PatientRecords
}

// NewMemoryRepository returns an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patients: make(map[string]PatientRecords)}
}

// NewFixtureRepository returns a repository holding patient P12345
func NewFixtureRepository() *MemoryRepository {
	repo := NewMemoryRepository()
	repo.Add(PatientRecords{
		Patient: Patient{ID: "P12345", Name: "John Doe", DateOfBirth: "1980-01-01"},
		Records: []Record{
			{ID: "R1", Date: "2024-01-15", Type: "Blood Test", Result: "Normal"},
		},
	})
	return repo
}

// Add stores or replaces a patient's records
func (r *MemoryRepository) Add(pr PatientRecords) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr.Records = append([]Record(nil), pr.Records...)
	r.patients[pr.Patient.ID] = pr
}

// PatientRecords implements Repository
func (r *MemoryRepository) PatientRecords(ctx context.Context, patientID string) (*PatientRecords, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(ErrBackendFailed, "Database error", err)
	}
	if patientID == FailingPatientID {
		return nil, errors.New(ErrBackendFailed, "Database error", nil).AddContext("patient_id", patientID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pr, ok := r.patients[patientID]
	if !ok {
		return nil, errors.New(ErrPatientNotFound, "Patient not found", nil).AddContext("patient_id", patientID)
	}
	out := pr
	out.Records = append([]Record{}, pr.Records...)
	return &out, nil
}
