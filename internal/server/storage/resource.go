package storage

import (
	"context"

	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/pkg/api"
)

//go:generate moq -out resource_mock.go . ResourceStorage

// ResourceStorage defines interface for user collections persistence
type ResourceStorage interface {
	// CreateResource stores a record of the given kind
	CreateResource(ctx context.Context, res *models.Resource) error

	// ListResources returns records of the user of the given kind, newest first
	// Returns empty slice if nothing found
	ListResources(ctx context.Context, userID string, kind api.Resource) ([]*models.Resource, error)
}
