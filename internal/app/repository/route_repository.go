package repository

import (
	"context"

	"qroute/internal/app/model"
)

// RouteRepository defines the durable backend contract for QR routes. A nil
// route with a nil error from GetByID means the id has no row. Any error from
// these methods is an adapter failure; the store facade is the only caller
// expected to catch it.
type RouteRepository interface {
	List(ctx context.Context, limit int) ([]model.QrRoute, error)
	GetByID(ctx context.Context, id string) (*model.QrRoute, error)
	Upsert(ctx context.Context, route model.QrRoute) (model.QrRoute, error)
}
