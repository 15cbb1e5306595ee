package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Healthcheck pings the primary of the storage database's deployment.
// Writes go to the primary, so a reachable secondary is not enough.
func (s *Storage) Healthcheck(ctx context.Context) error {
	if err := s.entries.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
