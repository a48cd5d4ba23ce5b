package config

// OtelConfig holds OTLP trace export configuration.
//
// Traces are exported over OTLP HTTP to a local collector agent. An empty
// Endpoint disables tracing entirely; the service runs fine without it.
type OtelConfig struct {
	// Endpoint is the OTLP HTTP endpoint (e.g. "localhost:4318"). Empty = disabled.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Environment is the deployment environment tag (default: dev)
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name reported on spans (default: verda)
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}
