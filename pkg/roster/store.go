package roster

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/models"
)

// Store is the persisted roster, keyed by phone
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func toModel(rec database.RegistrantRecord) models.Registrant {
	return models.Registrant{
		Name:        rec.Name,
		Phone:       rec.Phone,
		Residence:   rec.Residence,
		YearOfStudy: rec.YearOfStudy,
		Gender:      models.Gender(rec.Gender),
		IsPastor:    rec.IsPastor,
	}
}

func toRecord(r models.Registrant) database.RegistrantRecord {
	return database.RegistrantRecord{
		Phone:       r.Phone,
		Name:        r.Name,
		Residence:   r.Residence,
		YearOfStudy: r.YearOfStudy,
		Gender:      string(r.Gender),
		IsPastor:    r.IsPastor,
	}
}

// List returns the roster ordered by residence, then name
func (s *Store) List(ctx context.Context) ([]database.RegistrantRecord, error) {
	var recs []database.RegistrantRecord
	err := s.DB.WithContext(ctx).Order("residence, name, phone").Find(&recs).Error
	return recs, err
}

// Registrants implements Provider
func (s *Store) Registrants(ctx context.Context) ([]models.Registrant, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Registrant, len(recs))
	for i, rec := range recs {
		out[i] = toModel(rec)
	}
	return out, nil
}

// Upsert inserts registrants, updating the stored fields of any phone already present
func (s *Store) Upsert(ctx context.Context, regs []models.Registrant) error {
	if len(regs) == 0 {
		return nil
	}
	recs := make([]database.RegistrantRecord, len(regs))
	for i, r := range regs {
		recs[i] = toRecord(r)
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "residence", "year_of_study", "gender", "is_pastor", "updated_at"}),
	}).CreateInBatches(&recs, 200).Error
}

// Delete removes one registrant; it reports whether a row was removed
func (s *Store) Delete(ctx context.Context, phone string) (bool, error) {
	res := s.DB.WithContext(ctx).Where("phone = ?", phone).Delete(&database.RegistrantRecord{})
	return res.RowsAffected > 0, res.Error
}

// Clear removes the whole roster
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("1 = 1").Delete(&database.RegistrantRecord{})
	return res.RowsAffected, res.Error
}
