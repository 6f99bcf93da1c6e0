package stack

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
)

// NetworkAPI is the part of the Engine API client the provisioner needs.
type NetworkAPI interface {
	NetworkInspect(ctx context.Context, networkID string, options client.NetworkInspectOptions) (client.NetworkInspectResult, error)
	NetworkCreate(ctx context.Context, name string, options client.NetworkCreateOptions) (client.NetworkCreateResult, error)
}

// Network describes the external bridge shared by Traefik and the app.
type Network struct {
	Name   string
	Subnet string
}

// EnsureNetwork creates the network unless it already exists. Only a
// not-found inspect leads to a create; any other inspect error is returned.
func EnsureNetwork(ctx context.Context, api NetworkAPI, n Network, log *slog.Logger) error {
	_, err := api.NetworkInspect(ctx, n.Name, client.NetworkInspectOptions{})
	if err == nil {
		log.Info("network exists", "network", n.Name)
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("inspect network %q: %w", n.Name, err)
	}

	opts := client.NetworkCreateOptions{
		Driver: "bridge",
		Labels: map[string]string{"ncctl.network": n.Name},
	}
	if n.Subnet != "" {
		prefix, err := netip.ParsePrefix(n.Subnet)
		if err != nil {
			return fmt.Errorf("network %q has invalid subnet %q: %w", n.Name, n.Subnet, err)
		}
		opts.IPAM = &network.IPAM{
			Driver: "default",
			Config: []network.IPAMConfig{{Subnet: prefix}},
		}
	}

	if _, err := api.NetworkCreate(ctx, n.Name, opts); err != nil {
		// another process may have won the race
		if _, ie := api.NetworkInspect(ctx, n.Name, client.NetworkInspectOptions{}); ie != nil {
			return fmt.Errorf("create network %q: %w", n.Name, err)
		}
	}
	log.Info("network created", "network", n.Name, "subnet", n.Subnet)
	return nil
}
