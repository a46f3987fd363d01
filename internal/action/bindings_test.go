package action

import (
	"context"
	"net/netip"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/ios-xr/xrd-ha-agent/internal/cloud"
)

type fakeEC2 struct {
	assignCalls int
	replaceErr  error
}

func (f *fakeEC2) DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{}, nil
}

func (f *fakeEC2) DescribeNetworkInterfaces(context.Context, *ec2.DescribeNetworkInterfacesInput, ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error) {
	return &ec2.DescribeNetworkInterfacesOutput{NetworkInterfaces: []types.NetworkInterface{{}}}, nil
}

func (f *fakeEC2) DescribeRouteTables(context.Context, *ec2.DescribeRouteTablesInput, ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	return &ec2.DescribeRouteTablesOutput{}, nil
}

func (f *fakeEC2) AssignPrivateIpAddresses(context.Context, *ec2.AssignPrivateIpAddressesInput, ...func(*ec2.Options)) (*ec2.AssignPrivateIpAddressesOutput, error) {
	f.assignCalls++
	return &ec2.AssignPrivateIpAddressesOutput{}, nil
}

func (f *fakeEC2) ReplaceRoute(context.Context, *ec2.ReplaceRouteInput, ...func(*ec2.Options)) (*ec2.ReplaceRouteOutput, error) {
	return &ec2.ReplaceRouteOutput{}, f.replaceErr
}

func (f *fakeEC2) CreateRoute(context.Context, *ec2.CreateRouteInput, ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	return &ec2.CreateRouteOutput{}, nil
}

func TestAssignVIP_Apply(t *testing.T) {
	api := &fakeEC2{}
	c := cloud.NewForTest(api, "i-abc", "us-east-1", map[int32]types.InstanceNetworkInterface{
		0: {NetworkInterfaceId: aws.String("eni-1")},
	})
	b := &AssignVIP{Client: c, DeviceIndex: 0, VIP: netip.MustParseAddr("10.0.2.100")}

	if err := b.Apply(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.assignCalls != 1 {
		t.Fatalf("expected one assign call, got %d", api.assignCalls)
	}
	if got, want := b.String(), "assign_vip(device_index=0, vip=10.0.2.100)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestUpdateRouteTable_Apply(t *testing.T) {
	api := &fakeEC2{}
	c := cloud.NewForTest(api, "i-abc", "us-east-1", nil)
	b := &UpdateRouteTable{
		Client:       c,
		RouteTableID: "rtb-1",
		Destination:  netip.MustParsePrefix("172.31.0.0/24"),
		TargetENI:    "eni-target",
	}

	if err := b.Apply(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "update_route_table(rtb=rtb-1, destination=172.31.0.0/24, target_eni=eni-target)"
	if got := b.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
