package repositories

import "context"

// Repository aggregates every document-store repository
type Repository interface {
	Course() CourseRepository
	User() UserRepository
	Event() EventRepository
	Announcement() AnnouncementRepository
	Progress() ProgressRepository
	Badge() BadgeRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
