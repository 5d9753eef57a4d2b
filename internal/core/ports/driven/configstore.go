package driven

// ConfigStore provides typed access to application configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, "" when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when absent.
	GetInt(key string) int

	// GetFloat retrieves a float value, 0 when absent.
	GetFloat(key string) float64

	// Set stores a configuration value.
	Set(key string, value any)

	// Save persists the configuration.
	Save() error

	// Load reloads the configuration from its backing store.
	Load() error
}
