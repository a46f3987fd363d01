package config

import (
	"bytes"
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort                     = 50051
	minPort                         = 1024
	maxPort                         = 65535
	defaultConsistencyCheckInterval = 10
)

// Default returns sensible defaults for Global. Load applies these before
// unmarshalling so that unset fields keep their default value.
func Default() Config {
	return Config{
		Global: Global{
			Port:                             defaultPort,
			ConsistencyCheckIntervalSeconds: defaultConsistencyCheckInterval,
		},
	}
}

// Load reads, parses, and validates the configuration file at path.
// Unknown fields are rejected so that a typo in a group's action fails
// loudly instead of silently binding nothing.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Global.Port == 0 {
		c.Global.Port = defaultPort
	}
	if c.Global.Port < minPort || c.Global.Port > maxPort {
		return fmt.Errorf("global.port %d out of range [%d,%d]", c.Global.Port, minPort, maxPort)
	}
	if c.Global.ConsistencyCheckIntervalSeconds == 0 {
		c.Global.ConsistencyCheckIntervalSeconds = defaultConsistencyCheckInterval
	}
	if c.Global.ConsistencyCheckIntervalSeconds < 1 {
		return fmt.Errorf("global.consistency_check_interval_seconds must be >= 1, got %d",
			c.Global.ConsistencyCheckIntervalSeconds)
	}

	seen := make(map[groupKey]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.XRInterface == "" {
			return fmt.Errorf("groups[%d]: xr_interface is required", i)
		}
		if g.VRID < 1 || g.VRID > 255 {
			return fmt.Errorf("groups[%d] (%s): vrid %d out of range [1,255]", i, g.XRInterface, g.VRID)
		}
		key := groupKey{iface: g.XRInterface, vrid: g.VRID}
		if seen[key] {
			return fmt.Errorf("groups[%d]: duplicate (xr_interface, vrid) = (%s, %d)", i, g.XRInterface, g.VRID)
		}
		seen[key] = true

		if err := g.Action.validate(); err != nil {
			return fmt.Errorf("groups[%d] (%s, vrid %d): %w", i, g.XRInterface, g.VRID, err)
		}
	}

	return nil
}

type groupKey struct {
	iface string
	vrid  int
}

func (a Action) validate() error {
	switch a.Type {
	case ActionAssignVIP:
		if a.DeviceIndex == nil || *a.DeviceIndex < 0 {
			return fmt.Errorf("action %s: device_index must be a non-negative integer", a.Type)
		}
		vip, err := netip.ParseAddr(a.VIP)
		if err == nil && !vip.Is4() {
			err = fmt.Errorf("not an IPv4 address")
		}
		if err != nil {
			return fmt.Errorf("action %s: vip %q is not a valid IPv4 address: %w", a.Type, a.VIP, err)
		}
		if a.RouteTableID != "" || a.Destination != "" || a.TargetNetworkInterface != "" {
			return fmt.Errorf("action %s: route_table_id/destination/target_network_interface are not valid for this action type", a.Type)
		}
	case ActionUpdateRouteTable:
		if a.RouteTableID == "" {
			return fmt.Errorf("action %s: route_table_id is required", a.Type)
		}
		dst, err := netip.ParsePrefix(a.Destination)
		if err == nil && !dst.Addr().Is4() {
			err = fmt.Errorf("not an IPv4 prefix")
		}
		if err != nil {
			return fmt.Errorf("action %s: destination %q is not a valid IPv4 CIDR: %w", a.Type, a.Destination, err)
		}
		if a.TargetNetworkInterface == "" {
			return fmt.Errorf("action %s: target_network_interface is required", a.Type)
		}
		if a.DeviceIndex != nil || a.VIP != "" {
			return fmt.Errorf("action %s: device_index/vip are not valid for this action type", a.Type)
		}
	default:
		return fmt.Errorf("unsupported action type %q", a.Type)
	}
	return nil
}
