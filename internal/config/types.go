package config

// Config represents the modsync.yaml pack configuration.
type Config struct {
	Version         int                      `yaml:"version"`
	Pack            Pack                     `yaml:"pack"`
	Variables       map[string]string        `yaml:"variables,omitempty"`
	Overrides       []string                 `yaml:"overrides,omitempty"`
	ServerOverrides []string                 `yaml:"server_overrides,omitempty"`
	ClientOverrides []string                 `yaml:"client_overrides,omitempty"`
	Paths           map[string]string        `yaml:"paths,omitempty"`
	Projects        map[string]ProjectConfig `yaml:"projects,omitempty"`

	// ExportServerSideToClient keeps server-only projects installable on
	// clients in Modrinth exports.
	ExportServerSideToClient *bool `yaml:"export_server_side_projects_to_client,omitempty"`
}

// Pack holds the metadata written into exported manifests.
type Pack struct {
	Name        string `yaml:"name,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
}

// ProjectConfig overrides lockfile properties of the projects matching
// its key (slug, name, platform ID, or a file name fragment).
type ProjectConfig struct {
	Type            string   `yaml:"type,omitempty"`
	Side            string   `yaml:"side,omitempty"`
	UpdateStrategy  string   `yaml:"update_strategy,omitempty"`
	Redistributable *bool    `yaml:"redistributable,omitempty"`
	Subpath         string   `yaml:"subpath,omitempty"`
	Aliases         []string `yaml:"aliases,omitempty"`
	Export          *bool    `yaml:"export,omitempty"`
}

// ServerSideToClient reports the effective export_server_side_projects_to_client.
// Unset means true.
func (c *Config) ServerSideToClient() bool {
	return c.ExportServerSideToClient == nil || *c.ExportServerSideToClient
}
