package config

// Config holds the tunnelctl application configuration.
type Config struct {
	DirectoryURL  string `mapstructure:"directory_url"`
	Interface     string `mapstructure:"interface"`
	HelperTimeout int    `mapstructure:"helper_timeout"`
	AllowedIPs    string `mapstructure:"allowed_ips"`
	DNS           string `mapstructure:"dns"`
	ArtifactDir   string `mapstructure:"artifact_dir"`
	JournalPath   string `mapstructure:"journal_path"`
	UseKeyring    bool   `mapstructure:"use_keyring"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
}
