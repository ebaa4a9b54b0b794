package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/models"
)

// HeatMap aggregates a user's daily activity (books, notes, comments and
// replies created) over the trailing year, bucketed into display levels.
func (r *PostgresRepo) HeatMap(ctx context.Context, userID int64) ([]models.HeatPoint, error) {
	const op = "storage.postgres.HeatMap"

	query := `
		SELECT
			date,
			SUM(count) AS count,
			CASE
				WHEN SUM(count) = 0 THEN 0
				WHEN SUM(count) BETWEEN 1 AND 2 THEN 1
				WHEN SUM(count) BETWEEN 3 AND 5 THEN 2
				WHEN SUM(count) BETWEEN 6 AND 9 THEN 3
				WHEN SUM(count) BETWEEN 10 AND 14 THEN 4
				ELSE 5
			END AS level
		FROM (
			SELECT to_char(create_time, 'YYYY-MM-DD') AS date, COUNT(*) AS count
			FROM book WHERE user_id = $1 AND deleted = 0 GROUP BY date
			UNION ALL
			SELECT to_char(create_time, 'YYYY-MM-DD') AS date, COUNT(*) AS count
			FROM note WHERE user_id = $1 AND deleted = 0 GROUP BY date
			UNION ALL
			SELECT to_char(create_time, 'YYYY-MM-DD') AS date, COUNT(*) AS count
			FROM comment WHERE user_id = $1 AND deleted = 0 GROUP BY date
			UNION ALL
			SELECT to_char(create_time, 'YYYY-MM-DD') AS date, COUNT(*) AS count
			FROM reply WHERE user_id = $1 AND deleted = 0 GROUP BY date
		) AS combined
		WHERE date >= to_char(CURRENT_DATE - INTERVAL '1 year', 'YYYY-MM-DD')
		GROUP BY date
		ORDER BY date;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var points []models.HeatPoint

	for rows.Next() {
		var p models.HeatPoint
		if err := rows.Scan(&p.Date, &p.Count, &p.Level); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
