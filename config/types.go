package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int     `yaml:"port" validate:"gt=0"`
	RatePerSecond float64 `yaml:"ratePerSecond" validate:"gte=0"`
	RateBurst     int     `yaml:"rateBurst" validate:"gte=0"`
}

// SourceConfig describes the upstream waste collection site
type SourceConfig struct {
	BaseURL        string `yaml:"baseURL" validate:"required,url"`
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"gte=0"`
}

// CacheConfig controls the freshness window for fetched schedules
type CacheConfig struct {
	FreshHours int `yaml:"freshHours" validate:"gte=0"`
	IdleHours  int `yaml:"idleHours" validate:"gte=0"`
}

// FeedConfig controls the generated calendar output
type FeedConfig struct {
	Name     string `yaml:"name"`
	ProdID   string `yaml:"prodID"`
	Timezone string `yaml:"timezone"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig `yaml:"server" validate:"required"`
	Source   SourceConfig `yaml:"source" validate:"required"`
	Cache    CacheConfig  `yaml:"cache"`
	Feed     FeedConfig   `yaml:"feed"`
	LogLevel string       `yaml:"logLevel"`
}
