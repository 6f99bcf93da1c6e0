package stack

import (
	"context"
	"fmt"
	"log/slog"
)

// Provisioner prepares the host: directories, the ACME store and the
// external network.
type Provisioner struct {
	Layout  Layout
	Network Network
	API     NetworkAPI
	Log     *slog.Logger
}

func (p *Provisioner) Provision(ctx context.Context) error {
	for _, dir := range p.Layout.Dirs() {
		if err := ensureDir(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	// traefik refuses an acme store readable by others
	if err := ensureFile(p.Layout.ACMEFile(), 0o600); err != nil {
		return fmt.Errorf("prepare %s: %w", p.Layout.ACMEFile(), err)
	}
	p.Log.Info("directories ready", "dir", p.Layout.Dir)

	if err := ctx.Err(); err != nil {
		return err
	}
	return EnsureNetwork(ctx, p.API, p.Network, p.Log)
}
