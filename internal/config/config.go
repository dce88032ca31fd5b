package config

import "time"

// Server configures the HTTP bus surface (internal/server).
type Server struct {
	ServerMode string `default:"dev" debugmap:"visible"`
	HTTPPort   int    `default:"8000" debugmap:"visible"`
}

// ServerOption mutates a Server during construction.
type ServerOption func(*Server)

// WithServerMode sets the "prod"/"dev" server mode.
func WithServerMode(mode string) ServerOption {
	return func(s *Server) { s.ServerMode = mode }
}

// WithHTTPPort sets the listen port.
func WithHTTPPort(port int) ServerOption {
	return func(s *Server) { s.HTTPPort = port }
}

// NewServerWithOptions builds a Server from opts with no defaults applied.
func NewServerWithOptions(opts ...ServerOption) Server {
	var s Server
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewServerWithOptionsAndDefaults applies defaults, then opts.
func NewServerWithOptionsAndDefaults(opts ...ServerOption) Server {
	s := Server{ServerMode: "dev", HTTPPort: 8000}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// DebugMap renders s for safe structured logging.
func (s Server) DebugMap() map[string]any {
	return map[string]any{"server-mode": s.ServerMode, "http-port": s.HTTPPort}
}

// Broker configures backend identity, storage paths, and bus identity.
type Broker struct {
	BusName          string `default:"org.pkgbrokerd" debugmap:"visible"`
	BackendName      string `default:"memory" debugmap:"visible"`
	DistroID         string `debugmap:"visible"`
	DataFolder       string `debugmap:"visible"`
	DesktopCachePath string `debugmap:"visible"`
}

// BrokerOption mutates a Broker during construction.
type BrokerOption func(*Broker)

func WithBusName(name string) BrokerOption       { return func(b *Broker) { b.BusName = name } }
func WithBackendName(name string) BrokerOption   { return func(b *Broker) { b.BackendName = name } }
func WithDistroID(id string) BrokerOption        { return func(b *Broker) { b.DistroID = id } }
func WithDataFolder(path string) BrokerOption    { return func(b *Broker) { b.DataFolder = path } }
func WithDesktopCachePath(p string) BrokerOption { return func(b *Broker) { b.DesktopCachePath = p } }

// NewBrokerWithOptions builds a Broker from opts with no defaults applied.
func NewBrokerWithOptions(opts ...BrokerOption) Broker {
	var b Broker
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// NewBrokerWithOptionsAndDefaults applies defaults, then opts.
func NewBrokerWithOptionsAndDefaults(opts ...BrokerOption) Broker {
	b := Broker{BusName: "org.pkgbrokerd", BackendName: "memory"}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// DebugMap renders b for safe structured logging.
func (b Broker) DebugMap() map[string]any {
	return map[string]any{
		"bus-name":           b.BusName,
		"backend-name":       b.BackendName,
		"distro-id":          b.DistroID,
		"data-folder":        b.DataFolder,
		"desktop-cache-path": b.DesktopCachePath,
	}
}

// Policy configures the PolicyKit-equivalent Rego bundle.
type Policy struct {
	BundlePath string `debugmap:"visible"`
}

// PolicyOption mutates a Policy during construction.
type PolicyOption func(*Policy)

func WithBundlePath(path string) PolicyOption { return func(p *Policy) { p.BundlePath = path } }

func NewPolicyWithOptions(opts ...PolicyOption) Policy {
	var p Policy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p Policy) DebugMap() map[string]any {
	return map[string]any{"bundle-path": p.BundlePath}
}

// Auth configures bearer-token authentication on the HTTP bus.
type Auth struct {
	Enabled bool `default:"true" debugmap:"visible"`
}

// AuthOption mutates an Auth during construction.
type AuthOption func(*Auth)

func WithAuthEnabled(enabled bool) AuthOption { return func(a *Auth) { a.Enabled = enabled } }

func NewAuthWithOptionsAndDefaults(opts ...AuthOption) Auth {
	a := Auth{Enabled: true}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func (a Auth) DebugMap() map[string]any {
	return map[string]any{"enabled": a.Enabled}
}

// Configuration is the daemon's fully resolved configuration.
type Configuration struct {
	Server Server
	Broker Broker
	Policy Policy
	Auth   Auth

	LogFormat string `default:"console" debugmap:"visible"`
	LogLevel  string `default:"info" debugmap:"visible"`

	// NetworkProbeInterval is how often internal/netstate re-probes
	// reachability.
	NetworkProbeInterval time.Duration `default:"30s" debugmap:"visible"`
}

// ConfigurationOption mutates a Configuration during construction.
type ConfigurationOption func(*Configuration)

func WithServer(s Server) ConfigurationOption { return func(c *Configuration) { c.Server = s } }
func WithBroker(b Broker) ConfigurationOption { return func(c *Configuration) { c.Broker = b } }
func WithPolicy(p Policy) ConfigurationOption { return func(c *Configuration) { c.Policy = p } }
func WithAuth(a Auth) ConfigurationOption     { return func(c *Configuration) { c.Auth = a } }
func WithLogFormat(f string) ConfigurationOption {
	return func(c *Configuration) { c.LogFormat = f }
}
func WithLogLevel(l string) ConfigurationOption { return func(c *Configuration) { c.LogLevel = l } }
func WithNetworkProbeInterval(d time.Duration) ConfigurationOption {
	return func(c *Configuration) { c.NetworkProbeInterval = d }
}

// NewConfigurationWithOptions builds a Configuration from opts with no
// defaults applied.
func NewConfigurationWithOptions(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewConfigurationWithOptionsAndDefaults applies every section's
// defaults, then opts.
func NewConfigurationWithOptionsAndDefaults(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{
		Server:               NewServerWithOptionsAndDefaults(),
		Broker:               NewBrokerWithOptionsAndDefaults(),
		Auth:                 NewAuthWithOptionsAndDefaults(),
		LogFormat:            "console",
		LogLevel:             "info",
		NetworkProbeInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DebugMap renders the full configuration for safe structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"server":                 c.Server.DebugMap(),
		"broker":                 c.Broker.DebugMap(),
		"policy":                 c.Policy.DebugMap(),
		"auth":                   c.Auth.DebugMap(),
		"log-format":             c.LogFormat,
		"log-level":              c.LogLevel,
		"network-probe-interval": c.NetworkProbeInterval.String(),
	}
}
