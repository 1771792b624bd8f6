package fakes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/platform/gce"
)

func newFake() *FakeClient {
	return NewFakeClient(gce.Location{Project: "p", Region: "r", Zone: "r-a"})
}

func TestFakeClient_ListByPattern(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFake()

	for _, n := range []string{"alpha-ingress-0", "alpha-ingress-1", "alpha-ingress-1-tcp", "beta-ingress-0"} {
		require.NoError(t, f.InsertAddress(ctx, &compute.Address{Name: n}))
	}

	addrs, err := f.ListAddresses(ctx, `alpha-ingress-\d+`)
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, "alpha-ingress-0", addrs[0].Name)
	assert.Equal(t, "alpha-ingress-1", addrs[1].Name)
	assert.NotEmpty(t, addrs[0].Address)
}

func TestFakeClient_InsertTwiceConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFake()

	require.NoError(t, f.InsertFirewall(ctx, &compute.Firewall{Name: "fw"}))
	err := f.InsertFirewall(ctx, &compute.Firewall{Name: "fw"})
	assert.True(t, gce.IsAlreadyExists(err))
}

func TestFakeClient_FailureInjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFake()

	f.Fail("InsertAddress", "a", Unavailable(), 2)

	assert.Error(t, f.InsertAddress(ctx, &compute.Address{Name: "a"}))
	assert.Error(t, f.InsertAddress(ctx, &compute.Address{Name: "a"}))
	assert.NoError(t, f.InsertAddress(ctx, &compute.Address{Name: "a"}))
	assert.Len(t, f.Calls(), 3)

	f.ResetCalls()
	assert.Empty(t, f.Calls())
}

func TestFakeClient_PeeringStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFake()
	f.AddNetwork("alpha", "10.0.0.0/20", "10.100.0.0/16")
	f.AddNetwork("beta", "10.1.0.0/20", "10.101.0.0/16")

	require.NoError(t, f.AddPeering(ctx, "alpha", &compute.NetworkPeering{Name: "alpha-to-beta", Network: gce.NetworkURL("p", "beta")}))
	n, err := f.GetNetwork(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "INACTIVE", n.Peerings[0].State)

	require.NoError(t, f.AddPeering(ctx, "beta", &compute.NetworkPeering{Name: "beta-to-alpha", Network: gce.NetworkURL("p", "alpha")}))
	n, err = f.GetNetwork(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", n.Peerings[0].State)

	f.RemoveNetwork("beta")
	n, err = f.GetNetwork(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "INACTIVE", n.Peerings[0].State)
}

func TestFakeClient_DeleteInstanceDropsMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFake()

	require.NoError(t, f.InsertInstanceGroup(ctx, &compute.InstanceGroup{Name: "g"}))
	require.NoError(t, f.InsertInstance(ctx, &compute.Instance{
		Name: "i",
		Disks: []*compute.AttachedDisk{{
			Boot:             true,
			AutoDelete:       true,
			InitializeParams: &compute.AttachedDiskInitializeParams{DiskSizeGb: 50, DiskType: "zones/r-a/diskTypes/pd-ssd"},
		}},
	}))
	require.NoError(t, f.AddInstanceGroupMembers(ctx, "g", []string{"i"}))

	disk, err := f.GetDisk(ctx, "i")
	require.NoError(t, err)
	require.NotNil(t, disk)
	assert.Equal(t, int64(50), disk.SizeGb)

	require.NoError(t, f.DeleteInstance(ctx, "i"))
	members, err := f.ListInstanceGroupMembers(ctx, "g")
	require.NoError(t, err)
	assert.Empty(t, members)
	disk, err = f.GetDisk(ctx, "i")
	require.NoError(t, err)
	assert.Nil(t, disk)
}
