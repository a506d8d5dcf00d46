package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/psyscore/internal/models"
	"github.com/soaringjerry/psyscore/internal/services"
)

// DefaultTimeout bounds every store operation that has no earlier deadline.
const DefaultTimeout = 5 * time.Second

// SQLStore persists the instrument catalog and attempts through database/sql.
// Queries are written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	logger  *slog.Logger
}

var _ services.Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if driver == "" {
		driver = DriverSQLite3
	}
	if !isSupported(driver) {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	return &SQLStore{db: db, driver: driver, timeout: DefaultTimeout, logger: slog.Default()}, nil
}

// SetTimeout changes the per-operation deadline; zero disables it.
func (s *SQLStore) SetTimeout(d time.Duration) { s.timeout = d }

func (s *SQLStore) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const instrumentColumns = `id, code, category_code, type, name, min_scale, max_scale, strategy`

func scanInstrument(row interface{ Scan(...any) error }) (*models.Instrument, error) {
	var (
		inst     models.Instrument
		strategy string
	)
	if err := row.Scan(&inst.ID, &inst.Code, &inst.CategoryCode, &inst.Type, &inst.Name,
		&inst.MinScale, &inst.MaxScale, &strategy); err != nil {
		return nil, err
	}
	if strings.TrimSpace(strategy) != "" {
		if err := json.Unmarshal([]byte(strategy), &inst.Strategy); err != nil {
			return nil, fmt.Errorf("decode strategy for %s: %w", inst.Code, err)
		}
	}
	return &inst, nil
}

func (s *SQLStore) FindInstrumentByCategory(ctx context.Context, categoryCode, instrumentType string) (*models.Instrument, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+instrumentColumns+` FROM instruments WHERE category_code = ? AND type = ? ORDER BY code LIMIT 1`),
		categoryCode, instrumentType)
	inst, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inst, err
}

func (s *SQLStore) FindInstrumentByCode(ctx context.Context, code string) (*models.Instrument, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+instrumentColumns+` FROM instruments WHERE code = ?`), code)
	inst, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inst, err
}

// ListInstruments returns every seeded instrument ordered by code.
func (s *SQLStore) ListInstruments(ctx context.Context) ([]*models.Instrument, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT `+instrumentColumns+` FROM instruments ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListQuestions(ctx context.Context, instrumentID string) ([]models.Question, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, instrument_id, position, text, is_reverse FROM questions WHERE instrument_id = ? ORDER BY position`),
		instrumentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.InstrumentID, &q.Order, &q.Text, &q.IsReverse); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListBands(ctx context.Context, instrumentID string) ([]models.ResultBand, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, instrument_id, dimension, min_score, max_score, label, description, detail, feature, advice, position
		 FROM result_bands WHERE instrument_id = ? ORDER BY position`), instrumentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ResultBand
	for rows.Next() {
		var b models.ResultBand
		if err := rows.Scan(&b.ID, &b.InstrumentID, &b.Dimension, &b.MinScore, &b.MaxScore,
			&b.Label, &b.Description, &b.Detail, &b.Feature, &b.Advice, &b.Position); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateAttempt writes the attempt in a single INSERT.
func (s *SQLStore) CreateAttempt(ctx context.Context, a *models.Attempt) (*models.Attempt, error) {
	if a == nil {
		return nil, errors.New("nil attempt")
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	var (
		total sql.NullFloat64
		dims  sql.NullString
	)
	switch a.Score.Kind {
	case models.ScoreSingle:
		total = sql.NullFloat64{Float64: a.Score.Total, Valid: true}
	case models.ScoreDimensions:
		b, err := json.Marshal(a.Score.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("encode dimension scores: %w", err)
		}
		dims = sql.NullString{String: string(b), Valid: true}
	default:
		return nil, fmt.Errorf("unknown score kind %q", a.Score.Kind)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO attempts (id, user_id, instrument_id, answers, score_kind, total_score, dimension_scores, interpretation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.UserID, a.InstrumentID, string(answers), string(a.Score.Kind), total, dims,
		a.Interpretation, a.CreatedAt.UTC().UnixNano())
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

const attemptSelect = `SELECT a.id, a.user_id, a.instrument_id, i.code, i.type, i.name, a.answers,
	a.score_kind, a.total_score, a.dimension_scores, a.interpretation, a.created_at
	FROM attempts a JOIN instruments i ON i.id = a.instrument_id`

func scanAttempt(row interface{ Scan(...any) error }) (*models.Attempt, error) {
	var (
		a       models.Attempt
		answers string
		kind    string
		total   sql.NullFloat64
		dims    sql.NullString
		created int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.InstrumentID, &a.InstrumentCode, &a.InstrumentType, &a.InstrumentName,
		&answers, &kind, &total, &dims, &a.Interpretation, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers for %s: %w", a.ID, err)
	}
	switch models.ScoreKind(kind) {
	case models.ScoreSingle:
		a.Score = models.SingleScore(total.Float64)
	case models.ScoreDimensions:
		var ds []models.DimensionScore
		if dims.Valid {
			if err := json.Unmarshal([]byte(dims.String), &ds); err != nil {
				return nil, fmt.Errorf("decode dimension scores for %s: %w", a.ID, err)
			}
		}
		a.Score = models.DimensionScores(ds)
	default:
		return nil, fmt.Errorf("attempt %s: unknown score kind %q", a.ID, kind)
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return &a, nil
}

// ListAttemptsByUser returns the user's attempts on instruments of the given type, newest first.
func (s *SQLStore) ListAttemptsByUser(ctx context.Context, userID, instrumentType string) ([]*models.Attempt, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, s.rebind(attemptSelect+
		` WHERE a.user_id = ? AND i.type = ? ORDER BY a.created_at DESC, a.id DESC`), userID, instrumentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (*models.Attempt, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	a, err := scanAttempt(s.db.QueryRowContext(ctx, s.rebind(attemptSelect+` WHERE a.id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ReplaceInstrument upserts an instrument by code together with its
// questions and bands. An existing instrument keeps its id so prior attempts
// still resolve. Question and band order follow the slices.
func (s *SQLStore) ReplaceInstrument(ctx context.Context, inst *models.Instrument, bands []models.ResultBand) (*models.Instrument, error) {
	if inst == nil {
		return nil, errors.New("nil instrument")
	}
	if err := services.ValidateStrategy(inst.Strategy, len(inst.Questions)); err != nil {
		return nil, fmt.Errorf("instrument %s: %w", inst.Code, err)
	}
	strategy, err := json.Marshal(inst.Strategy)
	if err != nil {
		return nil, fmt.Errorf("encode strategy: %w", err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := *inst
	var existing string
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM instruments WHERE code = ?`), inst.Code).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if out.ID == "" {
			out.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO instruments (`+instrumentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			out.ID, out.Code, out.CategoryCode, out.Type, out.Name, out.MinScale, out.MaxScale, string(strategy))
	case err == nil:
		out.ID = existing
		_, err = tx.ExecContext(ctx, s.rebind(
			`UPDATE instruments SET category_code = ?, type = ?, name = ?, min_scale = ?, max_scale = ?, strategy = ? WHERE id = ?`),
			out.CategoryCode, out.Type, out.Name, out.MinScale, out.MaxScale, string(strategy), out.ID)
		if err == nil {
			err = s.clearChildren(ctx, tx, out.ID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("upsert instrument %s: %w", inst.Code, err)
	}

	out.Questions = make([]models.Question, len(inst.Questions))
	for i, q := range inst.Questions {
		q.ID = uuid.NewString()
		q.InstrumentID = out.ID
		q.Order = i + 1
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO questions (id, instrument_id, position, text, is_reverse) VALUES (?, ?, ?, ?, ?)`),
			q.ID, q.InstrumentID, q.Order, q.Text, q.IsReverse); err != nil {
			return nil, fmt.Errorf("insert question %d of %s: %w", q.Order, inst.Code, err)
		}
		out.Questions[i] = q
	}
	for i, b := range bands {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO result_bands (id, instrument_id, dimension, min_score, max_score, label, description, detail, feature, advice, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			uuid.NewString(), out.ID, b.Dimension, b.MinScore, b.MaxScore, b.Label,
			b.Description, b.Detail, b.Feature, b.Advice, i); err != nil {
			return nil, fmt.Errorf("insert band %q of %s: %w", b.Label, inst.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Info("instrument seeded", "code", out.Code, "questions", len(out.Questions), "bands", len(bands))
	return &out, nil
}

func (s *SQLStore) clearChildren(ctx context.Context, q querier, instrumentID string) error {
	if _, err := q.ExecContext(ctx, s.rebind(`DELETE FROM questions WHERE instrument_id = ?`), instrumentID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, s.rebind(`DELETE FROM result_bands WHERE instrument_id = ?`), instrumentID)
	return err
}
