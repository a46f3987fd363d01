package action

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/ios-xr/xrd-ha-agent/internal/cloud"
)

// AssignVIP binds a session to reassigning a private IPv4 address onto the
// local ENI at DeviceIndex.
type AssignVIP struct {
	Client      *cloud.Client
	DeviceIndex int32
	VIP         netip.Addr
}

func (a *AssignVIP) Apply(ctx context.Context, precheck bool) error {
	return a.Client.AssignVIP(ctx, a.DeviceIndex, a.VIP, precheck)
}

func (a *AssignVIP) String() string {
	return fmt.Sprintf("assign_vip(device_index=%d, vip=%s)", a.DeviceIndex, a.VIP)
}

// UpdateRouteTable binds a session to upserting a destination CIDR's target
// ENI in a route table.
type UpdateRouteTable struct {
	Client       *cloud.Client
	RouteTableID string
	Destination  netip.Prefix
	TargetENI    string
}

func (u *UpdateRouteTable) Apply(ctx context.Context, precheck bool) error {
	return u.Client.UpdateRouteTable(ctx, u.RouteTableID, u.Destination, u.TargetENI, precheck)
}

func (u *UpdateRouteTable) String() string {
	return fmt.Sprintf("update_route_table(rtb=%s, destination=%s, target_eni=%s)",
		u.RouteTableID, u.Destination, u.TargetENI)
}

var (
	_ Binding = (*AssignVIP)(nil)
	_ Binding = (*UpdateRouteTable)(nil)
)
