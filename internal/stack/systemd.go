package stack

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Unit renders and optionally installs a oneshot systemd unit that brings
// the compose project up at boot.
type Unit struct {
	Layout Layout
	Runner Runner
	Log    *slog.Logger
	// SystemDir is /etc/systemd/system unless overridden.
	SystemDir string
}

func (u *Unit) Name() string { return "ncctl-" + u.Layout.Project + ".service" }

func (u *Unit) Render() (string, error) {
	dir, err := filepath.Abs(u.Layout.Dir)
	if err != nil {
		return "", err
	}
	l := u.Layout
	l.Dir = dir
	l.EnvFile, _ = filepath.Abs(u.Layout.EnvFile)
	args := strings.Join(ComposeBaseArgs(l), " ")

	var b strings.Builder
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=Nextcloud stack %s\n", u.Layout.Project)
	b.WriteString("Requires=docker.service\nAfter=docker.service network-online.target\n\n")
	b.WriteString("[Service]\nType=oneshot\nRemainAfterExit=yes\n")
	fmt.Fprintf(&b, "WorkingDirectory=%s\n", dir)
	fmt.Fprintf(&b, "ExecStart=/usr/bin/docker %s up -d --remove-orphans\n", args)
	fmt.Fprintf(&b, "ExecStop=/usr/bin/docker %s down\n\n", args)
	b.WriteString("[Install]\nWantedBy=multi-user.target\n")
	return b.String(), nil
}

// Install writes the unit into the stack dir and, when enable is set,
// copies it to the systemd directory and enables it.
func (u *Unit) Install(ctx context.Context, enable bool) error {
	text, err := u.Render()
	if err != nil {
		return err
	}
	local := filepath.Join(u.Layout.Dir, "systemd", u.Name())
	if err := ensureDir(filepath.Dir(local), 0o750); err != nil {
		return err
	}
	if err := writeFile(local, []byte(text), 0o644); err != nil {
		return err
	}
	u.Log.Info("wrote unit", "file", local)
	if !enable {
		return nil
	}

	sysDir := u.SystemDir
	if sysDir == "" {
		sysDir = "/etc/systemd/system"
	}
	if err := writeFile(filepath.Join(sysDir, u.Name()), []byte(text), 0o644); err != nil {
		return fmt.Errorf("install unit: %w", err)
	}
	if err := u.Runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	if err := u.Runner.Run(ctx, "systemctl", "enable", u.Name()); err != nil {
		return fmt.Errorf("systemctl enable: %w", err)
	}
	return nil
}
