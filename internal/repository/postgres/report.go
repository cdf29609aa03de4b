package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oakrobotics/scoutbase/internal/domain"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/database"
)

const reportColumns = `
	r.id, r.user_id, u.first_name, u.last_name, r.created_at,
	r.event_code, r.match_type, r.match_number, r.team_number, r.trench_or_bump,
	r.notes, r.minor_fouls, r.major_fouls,
	r.auto_notes, r.auto_movement, r.auto_hub_score, r.auto_hub_misses, r.auto_level1,
	r.teleop_notes, r.teleop_hub_score, r.teleop_hub_misses, r.teleop_level,
	r.endgame_notes, r.endgame_hub_score, r.endgame_hub_misses, r.endgame_level`

// ReportRepository implements repository.ReportRepository using PostgreSQL.
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report repository.
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a single report authored by the given user.
func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report, userID string) error {
	query := `
		INSERT INTO reports (
			user_id, created_at, event_code, match_type, match_number, team_number, trench_or_bump,
			notes, minor_fouls, major_fouls,
			auto_notes, auto_movement, auto_hub_score, auto_hub_misses, auto_level1,
			teleop_notes, teleop_hub_score, teleop_hub_misses, teleop_level,
			endgame_notes, endgame_hub_score, endgame_hub_misses, endgame_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err := r.db.Exec(ctx, query, reportArgs(rep, userID)...)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

// CreateBatch inserts multiple reports in one transaction.
func (r *ReportRepository) CreateBatch(ctx context.Context, reports []domain.Report, userID string) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO reports (
			user_id, created_at, event_code, match_type, match_number, team_number, trench_or_bump,
			notes, minor_fouls, major_fouls,
			auto_notes, auto_movement, auto_hub_score, auto_hub_misses, auto_level1,
			teleop_notes, teleop_hub_score, teleop_hub_misses, teleop_level,
			endgame_notes, endgame_hub_score, endgame_hub_misses, endgame_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	for i := range reports {
		if _, err := tx.Exec(ctx, query, reportArgs(&reports[i], userID)...); err != nil {
			return fmt.Errorf("insert report %d of %d: %w", i+1, len(reports), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a full report with its author, if the author still exists.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`

	rep, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	return rep, nil
}

// List returns report summaries matching the filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportSummary, error) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("r.user_id = $%d", *filter.UserID)
	}
	if filter.EventCode != nil {
		add("r.event_code = $%d", *filter.EventCode)
	}
	if filter.MatchType != nil {
		add("r.match_type = $%d", *filter.MatchType)
	}
	if filter.MinMatchNumber != nil {
		add("r.match_number >= $%d", *filter.MinMatchNumber)
	}
	if filter.MaxMatchNumber != nil {
		add("r.match_number <= $%d", *filter.MaxMatchNumber)
	}
	if filter.TeamNumber != nil {
		add("r.team_number = $%d", *filter.TeamNumber)
	}
	if filter.TrenchOrBump != nil {
		add("r.trench_or_bump = $%d", *filter.TrenchOrBump)
	}
	if filter.MaxMinorFouls != nil {
		add("r.minor_fouls <= $%d", *filter.MaxMinorFouls)
	}
	if filter.MaxMajorFouls != nil {
		add("r.major_fouls <= $%d", *filter.MaxMajorFouls)
	}
	if filter.AutoMovement != nil {
		add("r.auto_movement = $%d", *filter.AutoMovement)
	}
	if filter.AutoMinHubScore != nil {
		add("r.auto_hub_score >= $%d", *filter.AutoMinHubScore)
	}
	if filter.AutoMaxHubMisses != nil {
		add("r.auto_hub_misses <= $%d", *filter.AutoMaxHubMisses)
	}
	if filter.AutoLevel1 != nil {
		add("r.auto_level1 = $%d", *filter.AutoLevel1)
	}
	if filter.TeleopMinHubScore != nil {
		add("r.teleop_hub_score >= $%d", *filter.TeleopMinHubScore)
	}
	if filter.TeleopMaxHubMisses != nil {
		add("r.teleop_hub_misses <= $%d", *filter.TeleopMaxHubMisses)
	}
	if filter.EndgameMinHubScore != nil {
		add("r.endgame_hub_score >= $%d", *filter.EndgameMinHubScore)
	}
	if filter.EndgameMaxHubMisses != nil {
		add("r.endgame_hub_misses <= $%d", *filter.EndgameMaxHubMisses)
	}

	query := `
		SELECT r.id, r.team_number, r.user_id, u.first_name, u.last_name
		FROM reports r
		LEFT JOIN users u ON u.id = r.user_id`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Take)
	query += fmt.Sprintf("\n\t\tORDER BY r.created_at DESC\n\t\tLIMIT $%d", len(args))
	args = append(args, filter.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ReportSummary
	for rows.Next() {
		var s domain.ReportSummary
		var userID, firstName, lastName *string
		if err := rows.Scan(&s.ID, &s.TeamNumber, &userID, &firstName, &lastName); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		if userID != nil {
			s.User = &domain.UserDisplay{ID: *userID, FirstName: *firstName, LastName: *lastName}
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	if summaries == nil {
		summaries = []domain.ReportSummary{}
	}

	return summaries, nil
}

// ListAll returns every report in full. Used to assemble the ranking prompt.
func (r *ReportRepository) ListAll(ctx context.Context) ([]domain.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		LEFT JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, *rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	if reports == nil {
		reports = []domain.Report{}
	}

	return reports, nil
}

// Count returns the total number of stored reports.
func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func reportArgs(rep *domain.Report, userID string) []any {
	return []any{
		userID,
		rep.CreatedAt,
		rep.EventCode,
		rep.MatchType,
		rep.MatchNumber,
		rep.TeamNumber,
		rep.TrenchOrBump,
		rep.Notes,
		rep.MinorFouls,
		rep.MajorFouls,
		rep.Auto.Notes,
		rep.Auto.Movement,
		rep.Auto.HubScore,
		rep.Auto.HubMisses,
		rep.Auto.Level1,
		rep.Teleop.Notes,
		rep.Teleop.HubScore,
		rep.Teleop.HubMisses,
		rep.Teleop.Level,
		rep.Endgame.Notes,
		rep.Endgame.HubScore,
		rep.Endgame.HubMisses,
		rep.Endgame.Level,
	}
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	var userID, firstName, lastName *string

	err := row.Scan(
		&rep.ID,
		&userID,
		&firstName,
		&lastName,
		&rep.CreatedAt,
		&rep.EventCode,
		&rep.MatchType,
		&rep.MatchNumber,
		&rep.TeamNumber,
		&rep.TrenchOrBump,
		&rep.Notes,
		&rep.MinorFouls,
		&rep.MajorFouls,
		&rep.Auto.Notes,
		&rep.Auto.Movement,
		&rep.Auto.HubScore,
		&rep.Auto.HubMisses,
		&rep.Auto.Level1,
		&rep.Teleop.Notes,
		&rep.Teleop.HubScore,
		&rep.Teleop.HubMisses,
		&rep.Teleop.Level,
		&rep.Endgame.Notes,
		&rep.Endgame.HubScore,
		&rep.Endgame.HubMisses,
		&rep.Endgame.Level,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		rep.User = &domain.UserDisplay{ID: *userID, FirstName: *firstName, LastName: *lastName}
	}

	return &rep, nil
}
