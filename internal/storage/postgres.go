package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/oracle"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsDir = "migrations"

// PostgresStore persists feedback to PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *errors.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to cfg.DSN and, when cfg.AutoMigrate is set, applies
// pending migrations.
func OpenPostgres(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (*PostgresStore, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError(errors.ErrCodePersistFailed, "failed to reach database", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("Feedback store migrations applied")
	}

	logger.Info("Using PostgreSQL feedback store")
	return &PostgresStore{db: db, logger: logger}, nil
}

// OpenDB opens a pool without checking connectivity
func OpenDB(cfg config.StorageConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "storage.dsn is required for postgres", nil)
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodePersistFailed, "failed to open database", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Migrate runs a goose command ("up", "down" or "status") with the embedded migrations
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidConfig, "failed to set migration dialect", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, migrationsDir)
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown migration command: %s", command), nil)
	}
	if err != nil {
		return errors.NewStorageError(errors.ErrCodePersistFailed, "migration "+command+" failed", err)
	}
	return nil
}

func (s *PostgresStore) CreateFeedback(ctx context.Context, params CreateFeedbackParams) (*CreateFeedbackResult, error) {
	if err := params.Validate(); err != nil {
		return &CreateFeedbackResult{Success: false}, err
	}

	transcriptJSON, err := json.Marshal(params.Transcript)
	if err != nil {
		return &CreateFeedbackResult{Success: false}, errors.NewInternalError(errors.ErrCodePersistFailed, "failed to encode transcript", err)
	}
	toneJSON, err := marshalNullable(params.Tone)
	if err != nil {
		return &CreateFeedbackResult{Success: false}, errors.NewInternalError(errors.ErrCodePersistFailed, "failed to encode tone", err)
	}
	feedbackJSON, err := marshalNullable(params.Feedback)
	if err != nil {
		return &CreateFeedbackResult{Success: false}, errors.NewInternalError(errors.ErrCodePersistFailed, "failed to encode feedback", err)
	}

	id := params.FeedbackID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, interview_id, user_id, transcript, tone, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			transcript = EXCLUDED.transcript,
			tone = EXCLUDED.tone,
			feedback = EXCLUDED.feedback,
			updated_at = EXCLUDED.updated_at
		WHERE feedback.interview_id = EXCLUDED.interview_id
			AND feedback.user_id = EXCLUDED.user_id`,
		id, params.InterviewID, params.UserID, string(transcriptJSON), toneJSON, feedbackJSON, now)
	if err != nil {
		appErr := errors.NewStorageError(errors.ErrCodePersistFailed, "failed to save feedback", err).
			WithContext("interview_id", params.InterviewID)
		return &CreateFeedbackResult{Success: false}, appErr
	}
	// Zero rows means the conflicting row is owned by someone else.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &CreateFeedbackResult{Success: false}, ownerMismatch(id, params.InterviewID)
	}

	return &CreateFeedbackResult{Success: true, FeedbackID: id}, nil
}

func (s *PostgresStore) GetFeedback(ctx context.Context, interviewID, userID string) (*FeedbackRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, interview_id, user_id, transcript, tone, feedback, created_at, updated_at
		FROM feedback
		WHERE interview_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
		LIMIT 1`, interviewID, userID)

	var (
		rec                                    FeedbackRecord
		transcriptJSON, toneJSON, feedbackJSON []byte
	)
	err := row.Scan(&rec.ID, &rec.InterviewID, &rec.UserID, &transcriptJSON, &toneJSON, &feedbackJSON,
		&rec.CreatedAt, &rec.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(interviewID, userID)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodePersistFailed, "failed to load feedback", err)
	}

	if err := json.Unmarshal(transcriptJSON, &rec.Transcript); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeInvalidFormat, "stored transcript is corrupt", err)
	}
	if len(toneJSON) > 0 {
		var tone oracle.ToneResult
		if err := json.Unmarshal(toneJSON, &tone); err == nil {
			rec.Tone = &tone
		}
	}
	if len(feedbackJSON) > 0 {
		var fb oracle.FeedbackResult
		if err := json.Unmarshal(feedbackJSON, &fb); err == nil {
			rec.Feedback = &fb
		}
	}
	return &rec, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Driver() string { return "postgres" }

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// marshalNullable encodes v, mapping a nil pointer to SQL NULL
func marshalNullable[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
