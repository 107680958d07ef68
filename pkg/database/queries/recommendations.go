package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

type RecommendationRecord struct {
	ID              int       `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	ServiceName     string    `json:"service_name"`
	Action          string    `json:"action"`
	CurrentReplicas int       `json:"current_replicas"`
	TargetReplicas  int       `json:"target_replicas"`
	Reason          string    `json:"reason"`
	RuleMatched     string    `json:"rule_matched"`
}

func (r *RecommendationRepository) Insert(ctx context.Context, rec *models.ScalingRecommendation) error {
	query := `
		INSERT INTO scaling_recommendations
			(created_at, service_name, action, current_replicas, target_replicas, reason, rule_matched)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Timestamp,
		rec.ServiceName,
		string(rec.Action),
		rec.CurrentReplicas,
		rec.TargetReplicas,
		rec.Reason,
		rec.RuleMatched,
	)
	return err
}

func (r *RecommendationRepository) GetByService(ctx context.Context, serviceName string, from, to time.Time, limit int) ([]RecommendationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, service_name, action, current_replicas, target_replicas, reason, rule_matched
		FROM scaling_recommendations
		WHERE service_name = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, serviceName, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RecommendationRecord
	for rows.Next() {
		var rec RecommendationRecord
		err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.ServiceName, &rec.Action,
			&rec.CurrentReplicas, &rec.TargetReplicas, &rec.Reason, &rec.RuleMatched,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
