package cloud

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// AssignVIP implements spec §4.A.3: assign a private IPv4 address to the
// local ENI at the given device index, silently stealing it from a peer
// instance's ENI if necessary (AllowReassignment=true).
//
// When precheck is true, the ENI's current private IP list is reloaded
// first; if ip is already present, this is a no-op.
func (c *Client) AssignVIP(ctx context.Context, deviceIndex int32, ip netip.Addr, precheck bool) error {
	eni, err := c.LookupENIByIndex(deviceIndex)
	if err != nil {
		return err
	}
	if eni.NetworkInterfaceId == nil {
		return fmt.Errorf("%w: device index %d has no network interface ID", ErrUnknownENI, deviceIndex)
	}
	eniID := *eni.NetworkInterfaceId

	if precheck {
		out, err := c.api.DescribeNetworkInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
			NetworkInterfaceIds: []string{eniID},
		})
		if err != nil {
			return fmt.Errorf("reloading ENI %s: %w", eniID, err)
		}
		if len(out.NetworkInterfaces) > 0 {
			for _, addr := range out.NetworkInterfaces[0].PrivateIpAddresses {
				if addr.PrivateIpAddress == nil {
					continue
				}
				if assigned, err := netip.ParseAddr(*addr.PrivateIpAddress); err == nil && assigned == ip {
					return nil
				}
			}
		}
	}

	_, err = c.api.AssignPrivateIpAddresses(ctx, &ec2.AssignPrivateIpAddressesInput{
		NetworkInterfaceId: aws.String(eniID),
		PrivateIpAddresses: []string{ip.String()},
		AllowReassignment:  aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("assigning %s to %s: %w", ip, eniID, err)
	}
	return nil
}

// UpdateRouteTable implements spec §4.A.4: associate a destination CIDR
// with a target ENI in a route table, using the replace→create→retry-replace
// upsert sequence since neither ReplaceRoute nor CreateRoute is a safe
// upsert on its own.
//
// When precheck is true and a route already matches destination and
// targetENI, this is a no-op.
func (c *Client) UpdateRouteTable(ctx context.Context, rtbID string, destination netip.Prefix, targetENI string, precheck bool) error {
	if precheck {
		out, err := c.api.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
			RouteTableIds: []string{rtbID},
		})
		if err != nil {
			return fmt.Errorf("describing route table %s: %w", rtbID, err)
		}
		for _, rtb := range out.RouteTables {
			for _, route := range rtb.Routes {
				if route.DestinationCidrBlock == nil || route.NetworkInterfaceId == nil {
					continue
				}
				routeDst, err := netip.ParsePrefix(*route.DestinationCidrBlock)
				if err != nil {
					continue
				}
				if routeDst == destination && *route.NetworkInterfaceId == targetENI {
					return nil
				}
			}
		}
	}

	_, err := c.api.ReplaceRoute(ctx, &ec2.ReplaceRouteInput{
		RouteTableId:         aws.String(rtbID),
		DestinationCidrBlock: aws.String(destination.String()),
		NetworkInterfaceId:   aws.String(targetENI),
	})
	if err == nil {
		return nil
	}
	if !isErrorCode(err, "InvalidParameterValue") && !isErrorCode(err, "InvalidRoute.NotFound") {
		return fmt.Errorf("replacing route %s in %s: %w", destination, rtbID, err)
	}

	_, err = c.api.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(rtbID),
		DestinationCidrBlock: aws.String(destination.String()),
		NetworkInterfaceId:   aws.String(targetENI),
	})
	if err == nil {
		return nil
	}
	if !isErrorCode(err, "RouteAlreadyExists") {
		return fmt.Errorf("creating route %s in %s: %w", destination, rtbID, err)
	}

	// Another worker created the route concurrently; retry the replace
	// exactly once and return its outcome unconditionally.
	_, err = c.api.ReplaceRoute(ctx, &ec2.ReplaceRouteInput{
		RouteTableId:         aws.String(rtbID),
		DestinationCidrBlock: aws.String(destination.String()),
		NetworkInterfaceId:   aws.String(targetENI),
	})
	if err != nil {
		return fmt.Errorf("retrying replace route %s in %s after concurrent create: %w", destination, rtbID, err)
	}
	return nil
}
