package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// PredictionRecord is a persisted prediction, kept so confidence scoring can
// be evaluated against what actually happened.
type PredictionRecord struct {
	ID                int       `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	ServiceName       string    `json:"service_name"`
	CurrentReplicas   int       `json:"current_replicas"`
	PredictedReplicas int       `json:"predicted_replicas"`
	Confidence        float64   `json:"confidence"`
	PatternCount      int       `json:"pattern_count"`
	Reasoning         string    `json:"reasoning"`
	ActualReplicas    *int      `json:"actual_replicas,omitempty"`
}

func (r *PredictionRepository) Insert(ctx context.Context, p *models.PredictionResult) error {
	query := `
		INSERT INTO predictions
			(created_at, service_name, current_replicas, predicted_replicas, confidence, pattern_count, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		p.CreatedAt,
		p.ServiceName,
		p.CurrentReplicas,
		p.PredictedReplicas,
		p.Confidence,
		len(p.DetectedPatterns),
		p.Reasoning,
	)
	return err
}

func (r *PredictionRepository) GetByService(ctx context.Context, serviceName string, from, to time.Time, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, service_name, current_replicas, predicted_replicas,
			   confidence, pattern_count, reasoning, actual_replicas
		FROM predictions
		WHERE service_name = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, serviceName, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.ServiceName,
			&rec.CurrentReplicas, &rec.PredictedReplicas,
			&rec.Confidence, &rec.PatternCount, &rec.Reasoning,
			&rec.ActualReplicas,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ResolveActual backfills what the replica count actually was at the
// forecast moment, enabling offline accuracy review.
func (r *PredictionRepository) ResolveActual(ctx context.Context, id int, actualReplicas int) error {
	query := `UPDATE predictions SET actual_replicas = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, actualReplicas)
	return err
}
