package ports

import "go.trai.ch/stache/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration found from the given working directory.
	Load(cwd string) (domain.Config, error)

	// DiscoverPath walks up from cwd and returns the path of the configuration file.
	DiscoverPath(cwd string) (string, error)
}
