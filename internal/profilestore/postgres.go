package profilestore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

const profileColumns = `user_id, date_of_birth, age, gender, marital_status, religion,
	education_level, job_category, diet, smoking, drinking, bio, location,
	primary_photo_url, phone, email, completeness`

// PostgresStore reads profiles from the profiles table. It implements both
// matching.ProfileLookup and matching.CandidateProvider.
type PostgresStore struct {
	db     *sql.DB
	clock  func() time.Time
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PostgresStore{
		db:     db,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
	}
}

// WithClock overrides the reference time used for age filters.
func (s *PostgresStore) WithClock(clock func() time.Time) *PostgresStore {
	s.clock = clock
	return s
}

// FindByUserID returns nil, nil when the member has no profile or the stored
// profile does not pass validation.
func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)

	in, err := scanProfile(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.queryError(ctx, models.QueryTypeSearcherProfile, err)
	}

	p, err := models.NewProfile(in)
	if err != nil {
		s.logger.Warn("stored profile is incomplete", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, nil
	}
	return &p, nil
}

// FetchFiltered returns up to limit complete profiles matching filters, most
// complete first. Rows that fail validation are skipped.
func (s *PostgresStore) FetchFiltered(ctx context.Context, filters matching.HardFilters, excludeID string, limit int) ([]models.Profile, error) {
	query, args := buildCandidateQuery(filters, excludeID, limit, s.clock())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.queryError(ctx, models.QueryTypeCandidateProfiles, err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0, limit)
	skipped := 0
	for rows.Next() {
		in, err := scanProfile(rows)
		if err != nil {
			return nil, s.queryError(ctx, models.QueryTypeCandidateProfiles, err)
		}
		p, err := models.NewProfile(in)
		if err != nil {
			skipped++
			continue
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, models.QueryTypeCandidateProfiles, err)
	}

	if skipped > 0 {
		s.logger.Debug("skipped invalid candidate rows", map[string]interface{}{"skipped": skipped})
	}
	return profiles, nil
}

// FindContact returns delivery details for a member, or nil, nil if unknown.
func (s *PostgresStore) FindContact(ctx context.Context, userID string) (*models.Contact, error) {
	var (
		c         models.Contact
		firstName sql.NullString
		email     sql.NullString
		phone     sql.NullString
		optedIn   sql.NullBool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, email, phone, match_digest_opt_in
		FROM users
		WHERE id = $1`, userID).Scan(&c.UserID, &firstName, &email, &phone, &optedIn)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.queryError(ctx, models.QueryTypeRecipientContact, err)
	}

	c.FirstName = firstName.String
	c.Email = email.String
	c.Phone = phone.String
	c.OptedIn = optedIn.Valid && optedIn.Bool
	return &c, nil
}

func (s *PostgresStore) queryError(ctx context.Context, qt models.QueryType, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(qt)
	}
	return apperrors.NewQueryExecutionFailedError(qt, err)
}

// searchableClauses are the checks models.NewProfile applies to a row, so
// rows it would reject never take a slot in the LIMIT window.
var searchableClauses = []string{
	"TRIM(COALESCE(bio, '')) <> ''",
	"TRIM(COALESCE(location, '')) <> ''",
	"TRIM(COALESCE(primary_photo_url, '')) <> ''",
	"(TRIM(COALESCE(phone, '')) <> '' OR TRIM(COALESCE(email, '')) <> '' OR " +
		"TRIM(COALESCE(job_category, '')) <> '' OR TRIM(COALESCE(education_level, '')) <> '')",
	"COALESCE(age, 0) >= 0",
	"COALESCE(completeness, 0) BETWEEN 0 AND 100",
}

// buildCandidateQuery renders the hard filters as a parameterised WHERE clause.
// Age bounds become date-of-birth cutoffs so the dob index can serve them;
// rows without a date of birth fall back to the stored age.
func buildCandidateQuery(f matching.HardFilters, excludeID string, limit int, asOf time.Time) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "user_id <> "+arg(excludeID))
	where = append(where, searchableClauses...)
	if f.Gender != "" {
		where = append(where, "LOWER(gender) = LOWER("+arg(f.Gender)+")")
	}
	if f.Religion != "" {
		where = append(where, "LOWER(religion) = LOWER("+arg(f.Religion)+")")
	}

	asOf = asOf.UTC()
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if f.MinAge != nil {
		cutoff := today.AddDate(-*f.MinAge, 0, 0)
		where = append(where, fmt.Sprintf(
			"(date_of_birth <= %s OR (date_of_birth IS NULL AND age >= %s))", arg(cutoff), arg(*f.MinAge)))
	}
	if f.MaxAge != nil {
		cutoff := today.AddDate(-(*f.MaxAge + 1), 0, 0)
		where = append(where, fmt.Sprintf(
			"(date_of_birth > %s OR (date_of_birth IS NULL AND age <= %s))", arg(cutoff), arg(*f.MaxAge)))
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY completeness DESC, user_id LIMIT ` + arg(limit)
	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(r rowScanner) (models.ProfileInput, error) {
	var (
		in                                        models.ProfileInput
		dob                                       sql.NullTime
		age, completeness                         sql.NullInt64
		gender, marital, religion, education, job sql.NullString
		diet, smoking, drinking, bio, location    sql.NullString
		photo, phone, email                       sql.NullString
	)
	err := r.Scan(
		&in.UserID, &dob, &age, &gender, &marital, &religion,
		&education, &job, &diet, &smoking, &drinking, &bio, &location,
		&photo, &phone, &email, &completeness,
	)
	if err != nil {
		return in, err
	}

	if dob.Valid {
		t := dob.Time
		in.DateOfBirth = &t
	}
	in.Age = int(age.Int64)
	in.Gender = gender.String
	in.MaritalStatus = marital.String
	in.Religion = religion.String
	in.EducationLevel = education.String
	in.JobCategory = job.String
	in.Diet = diet.String
	in.Smoking = smoking.String
	in.Drinking = drinking.String
	in.Bio = bio.String
	in.Location = location.String
	in.PrimaryPhotoURL = photo.String
	in.Phone = phone.String
	in.Email = email.String
	in.Completeness = int(completeness.Int64)
	return in, nil
}
