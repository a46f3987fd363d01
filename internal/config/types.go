package config

// Config is the agent's full validated configuration.
type Config struct {
	Global Global  `yaml:"global"`
	Groups []Group `yaml:"groups"`
}

// Global holds process-wide settings.
type Global struct {
	// Port is the gRPC dialout listen port. Default 50051, range [1024,65535].
	Port int `yaml:"port"`
	// ConsistencyCheckIntervalSeconds is the reconciliation interval.
	// Default 10, must be >= 1.
	ConsistencyCheckIntervalSeconds int `yaml:"consistency_check_interval_seconds"`
	// AWS holds cloud-provider-specific settings.
	AWS AWS `yaml:"aws"`
	// StatusAddr is the optional local HTTP status/health/metrics listen
	// address (e.g. ":8080"). If empty, the status API is not started.
	StatusAddr string `yaml:"status_addr,omitempty"`
}

// AWS holds AWS-specific global settings.
type AWS struct {
	// EC2PrivateEndpointURL overrides the EC2 API endpoint, for use from a
	// VPC without public internet egress.
	EC2PrivateEndpointURL string `yaml:"ec2_private_endpoint_url,omitempty"`
}

// Group binds one VRRP session to one cloud action.
type Group struct {
	// XRInterface is the router-side interface name, e.g. "HundredGigE0/0/0/1".
	XRInterface string `yaml:"xr_interface"`
	// VRID is the VRRP group ID, in [1,255].
	VRID int `yaml:"vrid"`
	// Action is the bound cloud mutation for this session.
	Action Action `yaml:"action"`
}

// ActionType tags the variant held by Action.
type ActionType string

const (
	ActionAssignVIP         ActionType = "aws_activate_vip"
	ActionUpdateRouteTable  ActionType = "aws_update_route_table"
)

// Action is a tagged union over the two supported cloud mutations. Exactly
// one branch's fields are populated, selected by Type.
type Action struct {
	Type ActionType `yaml:"type"`

	// aws_activate_vip fields.
	DeviceIndex *int   `yaml:"device_index,omitempty"`
	VIP         string `yaml:"vip,omitempty"`

	// aws_update_route_table fields.
	RouteTableID            string `yaml:"route_table_id,omitempty"`
	Destination             string `yaml:"destination,omitempty"`
	TargetNetworkInterface  string `yaml:"target_network_interface,omitempty"`
}
