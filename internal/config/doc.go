// Package config defines the daemon's configuration structure.
//
// Configuration is organized into logical sections (Server, Broker,
// Policy, Auth) and follows the teacher's generated-option style by
// hand: functional options (WithXxx), defaults applied via
// creasty/defaults struct tags, and a DebugMap() for safe structured
// logging of the resolved configuration.
//
// # Configuration Structure
//
//	Configuration
//	├── Server  - HTTP bus surface settings
//	├── Broker  - Backend identity, storage paths, bus identity
//	├── Policy  - OPA policy bundle location
//	├── Auth    - Bearer-token authentication settings
//	├── LogFormat - Logging format
//	└── LogLevel  - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// Server modes:
//   - prod: HTTPS with a self-signed certificate
//   - dev: plain HTTP
//
// # Broker Configuration
//
//	┌─────────────────────┬────────────────────────┬──────────────────────────────────────┐
//	│ Field               │ Default                │ Description                          │
//	├─────────────────────┼────────────────────────┼──────────────────────────────────────┤
//	│ BusName             │ "org.pkgbrokerd"        │ Well-known bus identity (spec §6.1)  │
//	│ BackendName         │ "memory"                │ Backend to load at startup           │
//	│ DistroID            │ ""                      │ distro-id control property           │
//	│ DataFolder          │ ""                      │ Path to the transaction database     │
//	│ DesktopCachePath    │ ""                      │ Path to the desktop-file sqlite cache│
//	└─────────────────────┴────────────────────────┴──────────────────────────────────────┘
//
// # Policy Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ BundlePath       │ ""      │ Directory of Rego policy files          │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Auth Configuration
//
//	┌─────────────┬─────────┬────────────────────────────────────────┐
//	│ Field       │ Default │ Description                            │
//	├─────────────┼─────────┼────────────────────────────────────────┤
//	│ Enabled     │ true    │ Require a bearer token on the HTTP bus  │
//	└─────────────┴─────────┴────────────────────────────────────────┘
//
// # Usage Example
//
//	cfg := config.NewConfigurationWithOptionsAndDefaults(
//	    config.WithServer(config.Server{ServerMode: "prod", HTTPPort: 8443}),
//	    config.WithBroker(config.Broker{BusName: "org.pkgbrokerd", DataFolder: "/var/lib/pkgbrokerd"}),
//	    config.WithLogLevel("info"),
//	)
//
// # Debug Logging
//
// All fields are tagged with `debugmap:"visible"`, allowing safe logging
// of configuration values via DebugMap():
//
//	log.Info("configuration loaded", zap.Any("config", cfg.DebugMap()))
package config
