package config

const (
	defaultRelayListen  = ":8080"
	defaultAPIListen    = ":8081"
	defaultUpstream     = "http://localhost:8000"
	defaultUpstreamPath = "/chat/stream"
	defaultRelayTimeout = "5m"

	defaultClientRelayTarget = "http://localhost:8080"
	defaultClientAPITarget   = "http://localhost:8081"

	defaultRenderProfile  = "auto"
	defaultRenderWindowMS = 300

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "thoughtwire.messages"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Relay: RelayConfig{
			Listen:       defaultRelayListen,
			Upstream:     defaultUpstream,
			UpstreamPath: defaultUpstreamPath,
			Timeout:      defaultRelayTimeout,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			RelayTarget: defaultClientRelayTarget,
			APITarget:   defaultClientAPITarget,
		},
		Render: RenderConfig{
			Profile:  defaultRenderProfile,
			WindowMS: defaultRenderWindowMS,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
