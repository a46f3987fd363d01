package cloud

import "github.com/aws/aws-sdk-go-v2/service/ec2/types"

// NewForTest builds a Client around a caller-supplied EC2 API implementation
// and a pre-populated ENI cache, for use by other packages' tests that need a
// *Client without going through IMDSv2 or a real AWS config. Not for
// production use.
func NewForTest(api ec2API, instanceID, region string, enis map[int32]types.InstanceNetworkInterface) *Client {
	c := newFromAPI(api, instanceID, region)
	if enis != nil {
		c.enisByIndex = enis
	} else {
		c.enisByIndex = make(map[int32]types.InstanceNetworkInterface)
	}
	return c
}
