package async

import (
	"context"
	"time"
)

// Service is a long running background process
type Service interface {
	// Start runs the service until ctx is done
	Start(ctx context.Context, interval time.Duration) error
}
