package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for ncctl.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Stack     StackConfig     `mapstructure:"stack"`
	Network   NetworkConfig   `mapstructure:"network"`
	Readiness ReadinessConfig `mapstructure:"readiness"`
	Configure ConfigureConfig `mapstructure:"configure"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StackConfig locates the deployment on disk and names the compose project.
type StackConfig struct {
	Dir     string `mapstructure:"dir"`
	DataDir string `mapstructure:"data_dir"`
	Project string `mapstructure:"project"`
	EnvFile string `mapstructure:"env_file"`
}

type NetworkConfig struct {
	Name   string `mapstructure:"name"`
	Subnet string `mapstructure:"subnet"`
}

type ReadinessConfig struct {
	Container    string        `mapstructure:"container"`
	Sentinel     string        `mapstructure:"sentinel"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TTY          bool          `mapstructure:"tty"`
	PollInitial  time.Duration `mapstructure:"poll_initial"`
	PollMax      time.Duration `mapstructure:"poll_max"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	StatusURL    string        `mapstructure:"status_url"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	HealthChecks []string      `mapstructure:"health_checks"`
}

type ConfigureConfig struct {
	Container              string   `mapstructure:"container"`
	User                   string   `mapstructure:"user"`
	MaintenanceWindowStart int      `mapstructure:"maintenance_window_start"`
	Apps                   []string `mapstructure:"apps"`
	PHPIni                 []string `mapstructure:"php_ini"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the NCCTL_ prefix (e.g. NCCTL_STACK_DIR).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("NCCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Stack.DataDir == "" {
		cfg.Stack.DataDir = cfg.Stack.Dir + "/data"
	}
	if cfg.Stack.EnvFile == "" {
		cfg.Stack.EnvFile = cfg.Stack.Dir + "/.env"
	}
	// Container names follow the compose template: <project>-<service>.
	if cfg.Readiness.Container == "" {
		cfg.Readiness.Container = cfg.Stack.Project + "-app"
	}
	if len(cfg.Readiness.HealthChecks) == 0 {
		cfg.Readiness.HealthChecks = []string{cfg.Stack.Project + "-db", cfg.Stack.Project + "-redis"}
	}
	if cfg.Configure.Container == "" {
		cfg.Configure.Container = cfg.Stack.Project + "-app"
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("stack.dir", ".")
	v.SetDefault("stack.data_dir", "")
	v.SetDefault("stack.project", "nextcloud")
	v.SetDefault("stack.env_file", "")

	v.SetDefault("network.name", "proxy")
	v.SetDefault("network.subnet", "172.30.0.0/24")

	v.SetDefault("readiness.container", "")
	v.SetDefault("readiness.sentinel", "Initializing finished")
	v.SetDefault("readiness.timeout", 10*time.Minute)
	v.SetDefault("readiness.tty", false)
	v.SetDefault("readiness.poll_initial", 2*time.Second)
	v.SetDefault("readiness.poll_max", 30*time.Second)
	v.SetDefault("readiness.poll_timeout", 5*time.Minute)
	v.SetDefault("readiness.status_url", "")
	v.SetDefault("readiness.redis_addr", "")
	v.SetDefault("readiness.health_checks", []string{})

	v.SetDefault("configure.container", "")
	v.SetDefault("configure.user", "www-data")
	v.SetDefault("configure.maintenance_window_start", 1)
	v.SetDefault("configure.apps", []string{"twofactor_totp"})
	v.SetDefault("configure.php_ini", []string{
		"memory_limit=1G",
		"upload_max_filesize=16G",
		"post_max_size=16G",
		"max_execution_time=3600",
		"max_input_time=3600",
		"opcache.interned_strings_buffer=32",
		"opcache.memory_consumption=256",
	})
}
