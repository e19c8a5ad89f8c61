package ports

import "github.com/vestlabs/vestd/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Vestings() domain.VestingRepository
	Settings() domain.SettingsRepository
	Close()
}
