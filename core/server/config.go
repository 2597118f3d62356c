package server

// Config holds configuration for the status HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// Host is the interface to bind; empty binds every interface.
	Host string `mapstructure:"host" default:""`
	// ApiKey is the secret key required to access the API. Empty leaves it open.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the listen address.
func (c Config) Address() string {
	return c.Host + ":" + c.Port
}
