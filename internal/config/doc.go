// Package config loads multipart configuration. It exposes a Default()
// baseline, Load for JSON or YAML files and FromEnv for MULTIPART_*
// overrides.
//
// Example:
//
//	cfg, err := config.Load("/etc/multipart.yaml")
//	if err != nil { ... }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { ... }
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
