package reviewer

import "context"

// =============================================================================
// Lifecycle
// =============================================================================

// Start starts the reviewer service and its background workers.
func (s *Service) Start(ctx context.Context) error {
	return s.BaseService.Start(ctx)
}

// Stop stops the reviewer service.
func (s *Service) Stop() error {
	return s.BaseService.Stop()
}
