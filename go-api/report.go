package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// userStats is one line of the admin report.
type userStats struct {
	FirebaseUID string    `db:"firebase_uid"`
	Email       string    `db:"email"`
	CreatedAt   time.Time `db:"created_at"`
	Notes       int       `db:"notes"`
	Tasks       int       `db:"tasks"`
	OpenTasks   int       `db:"open_tasks"`
}

// userReportQuery counts notes, tasks and not-done tasks per user. An empty
// subject means every user.
func userReportQuery(subject string) sq.SelectBuilder {
	q := sq.Select("u.firebase_uid", "u.email", "u.created_at").
		Column("COUNT(DISTINCT n.id) AS notes").
		Column("COUNT(DISTINCT t.id) AS tasks").
		Column(sq.Expr("COUNT(DISTINCT CASE WHEN t.status <> ? THEN t.id END) AS open_tasks", string(StatusDone))).
		From("users u").
		LeftJoin("notes n ON n.user_id = u.id").
		LeftJoin("tasks t ON t.user_id = u.id").
		GroupBy("u.id", "u.firebase_uid", "u.email", "u.created_at").
		OrderBy("u.created_at ASC").
		PlaceholderFormat(sq.Dollar)
	if subject != "" {
		q = q.Where(sq.Eq{"u.firebase_uid": subject})
	}
	return q
}

func userReport(ctx context.Context, db *sqlx.DB, subject string) ([]userStats, error) {
	query, args, err := userReportQuery(subject).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report query: %w", err)
	}
	rows := []userStats{}
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("run report query: %w", err)
	}
	return rows, nil
}

func printUserReport(w io.Writer, rows []userStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tEMAIL\tCREATED\tNOTES\tTASKS\tOPEN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.FirebaseUID, r.Email, r.CreatedAt.UTC().Format(time.RFC3339), r.Notes, r.Tasks, r.OpenTasks)
	}
	return tw.Flush()
}
