package redis

import (
	"context"
	"errors"
)

// Healthcheck pings the server and loads the storage scripts into its script
// cache, so the first write after a server restart does not pay for it.
func (s *Storage) Healthcheck(ctx context.Context) error {
	if err := s.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	for _, script := range scripts {
		if err := script.Load(ctx, s.db).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
	}
	return nil
}
