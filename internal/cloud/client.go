// Package cloud provides the idempotent, precheck-aware EC2 mutations and
// pre-validation lookups the agent's actions are built on.
//
// Construction talks to the link-local instance metadata service (IMDSv2)
// to discover the local instance ID and region, then builds an EC2 client
// scoped to short connect/read timeouts and a conservative retry policy.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Connect/read timeouts for EC2 API calls, and the IMDSv2 total timeout.
// These mirror AWS_CONNECTION_TIMEOUT / AWS_METADATA_SERVICE_TIMEOUT in the
// original implementation.
const (
	ec2ConnectReadTimeout = time.Second
	metadataTimeout       = 2 * time.Second
)

// Sentinel errors for initialisation and lookup failures. Wrapped with
// additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrMetadataUnavailable indicates the IMDSv2 metadata service could not
	// be reached. This is most commonly caused by the instance metadata hop
	// limit being set too low for requests originating from a pod network.
	ErrMetadataUnavailable = errors.New("EC2 instance metadata service unavailable")
	ErrUnknownDeviceIndex  = errors.New("no local ENI attached at device index")
	ErrUnknownENI          = errors.New("network interface not found")
	ErrUnknownRouteTable   = errors.New("route table not found")
)

// ec2API is the subset of *ec2.Client this package depends on, narrowed for
// testability with a fake.
type ec2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeNetworkInterfaces(ctx context.Context, in *ec2.DescribeNetworkInterfacesInput, opts ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error)
	DescribeRouteTables(ctx context.Context, in *ec2.DescribeRouteTablesInput, opts ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	AssignPrivateIpAddresses(ctx context.Context, in *ec2.AssignPrivateIpAddressesInput, opts ...func(*ec2.Options)) (*ec2.AssignPrivateIpAddressesOutput, error)
	ReplaceRoute(ctx context.Context, in *ec2.ReplaceRouteInput, opts ...func(*ec2.Options)) (*ec2.ReplaceRouteOutput, error)
	CreateRoute(ctx context.Context, in *ec2.CreateRouteInput, opts ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error)
}

// Client is a thin capability layer over the EC2 API, scoped to the local
// instance's attached ENIs.
type Client struct {
	api        ec2API
	instanceID string
	region     string

	// enisByIndex caches the local instance's attached ENIs keyed by device
	// index. Assumed static for the agent's lifetime.
	enisByIndex map[int32]types.InstanceNetworkInterface
}

// Option customises Client construction.
type Option func(*options)

type options struct {
	endpointURL string
}

// WithEndpointURL points the EC2 client at a private VPC endpoint instead of
// the public regional endpoint.
func WithEndpointURL(url string) Option {
	return func(o *options) { o.endpointURL = url }
}

// New performs the full construction flow described in spec §4.A.1: fetch
// instance identity from IMDSv2, build a region-scoped EC2 client with
// conservative timeouts/retries, and cache the local instance's ENIs.
func New(ctx context.Context, optFns ...Option) (*Client, error) {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	metaCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	imdsClient := imds.New(imds.Options{})

	instanceID, err := getMetadataString(metaCtx, imdsClient, "instance-id")
	if err != nil {
		return nil, fmt.Errorf("%w: this may be due to the instance metadata hop limit "+
			"being too low (1) for pods to connect; run `aws ec2 modify-instance-metadata-options "+
			"--instance-id <instance_id> --http-put-response-hop-limit 2 --http-endpoint enabled` to fix: %v",
			ErrMetadataUnavailable, err)
	}

	regionOut, err := imdsClient.GetRegion(metaCtx, &imds.GetRegionInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	region := regionOut.Region

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(connectionAttempts()),
		awsconfig.WithRetryMode(aws.RetryMode(connectionRetryMode())),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(ec2ConnectReadTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	endpoint := o.endpointURL
	ec2Client := ec2.NewFromConfig(awsCfg, func(eo *ec2.Options) {
		if endpoint != "" {
			eo.BaseEndpoint = aws.String(endpoint)
		}
	})

	c := &Client{
		api:        ec2Client,
		instanceID: instanceID,
		region:     region,
	}

	if err := c.loadLocalENIs(ctx); err != nil {
		return nil, fmt.Errorf("loading local instance ENIs: %w", err)
	}

	return c, nil
}

// newFromAPI builds a Client around an already-constructed ec2API, for
// testing.
func newFromAPI(api ec2API, instanceID, region string) *Client {
	return &Client{api: api, instanceID: instanceID, region: region}
}

func (c *Client) loadLocalENIs(ctx context.Context) error {
	out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return fmt.Errorf("ec2:DescribeInstances: %w", err)
	}

	c.enisByIndex = make(map[int32]types.InstanceNetworkInterface)
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if inst.InstanceId == nil || *inst.InstanceId != c.instanceID {
				continue
			}
			for _, eni := range inst.NetworkInterfaces {
				if eni.Attachment == nil || eni.Attachment.DeviceIndex == nil {
					continue
				}
				c.enisByIndex[*eni.Attachment.DeviceIndex] = eni
			}
		}
	}
	return nil
}

// LookupENIByIndex returns the local ENI attached at the given device index.
func (c *Client) LookupENIByIndex(deviceIndex int32) (types.InstanceNetworkInterface, error) {
	eni, ok := c.enisByIndex[deviceIndex]
	if !ok {
		return types.InstanceNetworkInterface{}, fmt.Errorf("%w: device index %d on instance %s",
			ErrUnknownDeviceIndex, deviceIndex, c.instanceID)
	}
	return eni, nil
}

// LookupENI validates that a network interface ID exists.
func (c *Client) LookupENI(ctx context.Context, eniID string) error {
	_, err := c.api.DescribeNetworkInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
		NetworkInterfaceIds: []string{eniID},
	})
	if err != nil {
		if isErrorCode(err, "InvalidNetworkInterfaceID.NotFound") {
			return fmt.Errorf("%w: %s", ErrUnknownENI, eniID)
		}
		return err
	}
	return nil
}

// LookupRouteTable validates that a route table ID exists.
func (c *Client) LookupRouteTable(ctx context.Context, rtbID string) error {
	_, err := c.api.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		RouteTableIds: []string{rtbID},
	})
	if err != nil {
		if isErrorCode(err, "InvalidRouteTableID.NotFound") {
			return fmt.Errorf("%w: %s", ErrUnknownRouteTable, rtbID)
		}
		return err
	}
	return nil
}

func getMetadataString(ctx context.Context, c *imds.Client, path string) (string, error) {
	out, err := c.GetMetadata(ctx, &imds.GetMetadataInput{Path: path})
	if err != nil {
		return "", err
	}
	defer out.Content.Close()
	data, err := io.ReadAll(out.Content)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func connectionAttempts() int {
	if v := os.Getenv("AWS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

func connectionRetryMode() string {
	if v := os.Getenv("AWS_RETRY_MODE"); v != "" {
		return v
	}
	return "standard"
}

