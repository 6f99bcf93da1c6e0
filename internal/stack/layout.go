package stack

import (
	"path/filepath"

	"github.com/tomorrowflow/nextcloud-compose/internal/config"
)

// Layout is the on-disk shape of one deployment.
type Layout struct {
	Dir     string
	DataDir string
	EnvFile string
	Project string
}

func NewLayout(cfg config.StackConfig) Layout {
	l := Layout{
		Dir:     cfg.Dir,
		DataDir: cfg.DataDir,
		EnvFile: cfg.EnvFile,
		Project: cfg.Project,
	}
	if l.DataDir == "" {
		l.DataDir = filepath.Join(l.Dir, "data")
	}
	if l.EnvFile == "" {
		l.EnvFile = filepath.Join(l.Dir, ".env")
	}
	return l
}

func (l Layout) ComposeFile() string  { return filepath.Join(l.Dir, "compose.yml") }
func (l Layout) OverrideFile() string { return filepath.Join(l.Dir, "compose.override.yml") }
func (l Layout) TraefikDir() string   { return filepath.Join(l.Dir, "traefik") }
func (l Layout) DynamicDir() string   { return filepath.Join(l.TraefikDir(), "dynamic") }
func (l Layout) ACMEFile() string     { return filepath.Join(l.TraefikDir(), "acme.json") }
func (l Layout) PHPDir() string       { return filepath.Join(l.Dir, "php") }

// PHPIniFile is the override mounted into the app container's conf.d.
func (l Layout) PHPIniFile() string { return filepath.Join(l.PHPDir(), "zz-ncctl.ini") }

// Dirs lists every directory the stack needs before compose can start.
func (l Layout) Dirs() []string {
	return []string{
		l.Dir,
		filepath.Join(l.DataDir, "nextcloud"),
		filepath.Join(l.DataDir, "db"),
		filepath.Join(l.DataDir, "redis"),
		l.DynamicDir(),
		l.PHPDir(),
	}
}
