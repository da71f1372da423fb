package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/pkg/api"
)

// CreateResource stores a record of the given kind
func (s *Storage) CreateResource(ctx context.Context, res *models.Resource) error {
	data := string(res.Data)
	if data == "" {
		data = "{}"
	}

	query := `
		INSERT INTO resources (id, user_id, kind, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, res.ID, res.UserID, string(res.Kind), data, res.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	return nil
}

// ListResources returns records of the user of the given kind, newest first
func (s *Storage) ListResources(ctx context.Context, userID string, kind api.Resource) ([]*models.Resource, error) {
	query := `
		SELECT id, user_id, kind, data, created_at
		FROM resources
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resources := make([]*models.Resource, 0)
	for rows.Next() {
		var (
			res  models.Resource
			kind string
			data string
		)
		if err := rows.Scan(&res.ID, &res.UserID, &kind, &data, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		res.Kind = api.Resource(kind)
		res.Data = []byte(data)
		resources = append(resources, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}

	return resources, nil
}
