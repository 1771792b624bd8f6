package peering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/gce/fakes"
	"github.com/imamik/k8sgce/internal/reconcile"
	testutil "github.com/imamik/k8sgce/internal/testing"
)

func newFixture(t *testing.T) *testutil.Fixture {
	t.Helper()
	fx := testutil.NewFixture(t, "alpha")
	fx.Cloud.AddNetwork("alpha", "10.0.0.0/20", "10.4.0.0/14")
	fx.Cloud.AddNetwork("beta", "10.16.0.0/20", "10.20.0.0/14")
	return fx
}

func spec(t *testing.T, ports string, remotes ...string) Spec {
	t.Helper()
	peers, err := desired.ParsePeers("alpha", remotes)
	require.NoError(t, err)
	ps, err := desired.ParsePortList("peering.ports", ports)
	require.NoError(t, err)
	return Spec{Peers: peers, Ports: ps}
}

func peeringState(fx *testutil.Fixture, network, name string) string {
	for _, p := range fx.Cloud.Networks[network].Peerings {
		if p.Name == name {
			return p.State
		}
	}
	return StateAbsent
}

func TestReconcile_CreatesBothSidesThenFirewall(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)

	res, err := Reconcile(ctx, fx.Scope, spec(t, "", "beta"))
	require.NoError(t, err)
	assert.Len(t, res.Applied, 3)

	assert.Equal(t, []string{
		"AddPeering alpha/alpha-to-beta",
		"AddPeering beta/beta-to-alpha",
		"InsertFirewall beta-allow-alpha",
	}, fx.MutatingCalls())
	assert.Equal(t, StateActive, peeringState(fx, "alpha", "alpha-to-beta"))
	assert.Equal(t, StateActive, peeringState(fx, "beta", "beta-to-alpha"))

	fw := fx.Cloud.Firewalls["beta-allow-alpha"]
	require.NotNil(t, fw)
	assert.Equal(t, gce.NetworkURL("proj", "beta"), fw.Network)
	assert.Equal(t, []string{"10.0.0.0/20", "10.4.0.0/14"}, fw.SourceRanges)
	assert.Equal(t, []string{"beta-node"}, fw.TargetTags)
	assert.Equal(t, "all", reconcile.AllowedCanonical(fw.Allowed))
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)
	sp := spec(t, "443/tcp,53", "beta")

	_, err := Reconcile(ctx, fx.Scope, sp)
	require.NoError(t, err)
	fx.Cloud.ResetCalls()

	res, err := Reconcile(ctx, fx.Scope, sp)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Empty(t, fx.MutatingCalls())
}

func TestReconcile_Asymmetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*testing.T, *testutil.Fixture)
		want  []string
	}{
		{
			name: "only reverse exists",
			setup: func(t *testing.T, fx *testutil.Fixture) {
				require.NoError(t, fx.Cloud.AddPeering(testutil.TestContext(t), "beta",
					&compute.NetworkPeering{Name: "beta-to-alpha", Network: gce.NetworkURL("proj", "alpha")}))
			},
			want: []string{"AddPeering alpha/alpha-to-beta", "InsertFirewall beta-allow-alpha"},
		},
		{
			name: "only local exists",
			setup: func(t *testing.T, fx *testutil.Fixture) {
				require.NoError(t, fx.Cloud.AddPeering(testutil.TestContext(t), "alpha",
					&compute.NetworkPeering{Name: "alpha-to-beta", Network: gce.NetworkURL("proj", "beta")}))
			},
			want: []string{"AddPeering beta/beta-to-alpha", "InsertFirewall beta-allow-alpha"},
		},
		{
			name: "local points at the wrong network",
			setup: func(t *testing.T, fx *testutil.Fixture) {
				fx.Cloud.AddNetwork("gamma", "10.32.0.0/20", "10.36.0.0/14")
				require.NoError(t, fx.Cloud.AddPeering(testutil.TestContext(t), "alpha",
					&compute.NetworkPeering{Name: "alpha-to-beta", Network: gce.NetworkURL("proj", "gamma")}))
			},
			want: []string{
				"RemovePeering alpha/alpha-to-beta",
				"AddPeering alpha/alpha-to-beta",
				"AddPeering beta/beta-to-alpha",
				"InsertFirewall beta-allow-alpha",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := testutil.TestContext(t)
			fx := newFixture(t)
			tt.setup(t, fx)
			fx.Cloud.ResetCalls()

			_, err := Reconcile(ctx, fx.Scope, spec(t, "", "beta"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, fx.MutatingCalls())
			assert.Equal(t, StateActive, peeringState(fx, "alpha", "alpha-to-beta"))
			assert.Equal(t, StateActive, peeringState(fx, "beta", "beta-to-alpha"))
		})
	}
}

func TestReconcile_InactivePeeringIsRecreated(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)
	sp := spec(t, "", "beta")

	_, err := Reconcile(ctx, fx.Scope, sp)
	require.NoError(t, err)
	fx.Cloud.Networks["alpha"].Peerings[0].State = StateInactive
	fx.Cloud.ResetCalls()

	_, err = Reconcile(ctx, fx.Scope, sp)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"RemovePeering alpha/alpha-to-beta",
		"AddPeering alpha/alpha-to-beta",
	}, fx.MutatingCalls())
	assert.Equal(t, StateActive, peeringState(fx, "alpha", "alpha-to-beta"))
}

func TestReconcile_ChangedPortsPatchRemoteFirewall(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)

	_, err := Reconcile(ctx, fx.Scope, spec(t, "", "beta"))
	require.NoError(t, err)
	fx.Cloud.ResetCalls()

	_, err = Reconcile(ctx, fx.Scope, spec(t, "53,8080/tcp", "beta"))
	require.NoError(t, err)
	assert.Equal(t, []string{"PatchFirewall beta-allow-alpha"}, fx.MutatingCalls())
	assert.Equal(t, "tcp:53,8080;udp:53", reconcile.AllowedCanonical(fx.Cloud.Firewalls["beta-allow-alpha"].Allowed))
}

func TestDiff_Deferrals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(*testutil.Fixture)
		reason string
	}{
		{
			name:   "remote network absent",
			setup:  func(fx *testutil.Fixture) { fx.Cloud.RemoveNetwork("beta") },
			reason: "remote network beta not found",
		},
		{
			name:   "overlapping ranges",
			setup:  func(fx *testutil.Fixture) { fx.Cloud.AddNetwork("beta", "10.0.8.0/24", "10.40.0.0/14") },
			reason: "local range 10.0.0.0/20 overlaps remote range 10.0.8.0/24",
		},
		{
			name:   "local network absent",
			setup:  func(fx *testutil.Fixture) { fx.Cloud.RemoveNetwork("alpha") },
			reason: "local network alpha not found",
		},
		{
			name: "remote network unreadable",
			setup: func(fx *testutil.Fixture) {
				fx.Cloud.Fail("GetNetwork", "beta", fakes.Unavailable(), -1)
			},
			reason: "remote network unreadable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := testutil.TestContext(t)
			fx := newFixture(t)
			tt.setup(fx)

			res, err := Reconcile(ctx, fx.Scope, spec(t, "", "beta"))
			require.NoError(t, err)
			require.Len(t, res.Deferred, 1)
			assert.Equal(t, "alpha-to-beta", res.Deferred[0].Name)
			assert.Equal(t, tt.reason, res.Deferred[0].Reason)
			assert.Empty(t, fx.MutatingCalls())
		})
	}
}

func TestReconcile_UndeclaredPeerKeptWhileNetworkExists(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)

	_, err := Reconcile(ctx, fx.Scope, spec(t, "", "beta"))
	require.NoError(t, err)
	fx.Cloud.ResetCalls()

	res, err := Reconcile(ctx, fx.Scope, spec(t, ""))
	require.NoError(t, err)
	assert.Empty(t, fx.MutatingCalls())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "kept while its network exists")

	fx.Cloud.RemoveNetwork("beta")
	_, err = Reconcile(ctx, fx.Scope, spec(t, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DeleteFirewall beta-allow-alpha",
		"RemovePeering alpha/alpha-to-beta",
	}, fx.MutatingCalls())
	assert.Empty(t, fx.Cloud.Networks["alpha"].Peerings)
}

func TestReconcile_ForeignPeeringsIgnored(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)
	require.NoError(t, fx.Cloud.AddPeering(ctx, "alpha",
		&compute.NetworkPeering{Name: "vpn-hub", Network: gce.NetworkURL("proj", "hub")}))
	fx.Cloud.ResetCalls()

	res, err := Reconcile(ctx, fx.Scope, spec(t, ""))
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Empty(t, fx.MutatingCalls())
}

func TestDestroy_ReverseOrder(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fx := newFixture(t)
	sp := spec(t, "", "beta")

	_, err := Reconcile(ctx, fx.Scope, sp)
	require.NoError(t, err)
	fx.Cloud.ResetCalls()

	_, err = Destroy(ctx, fx.Scope, sp)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DeleteFirewall beta-allow-alpha",
		"RemovePeering beta/beta-to-alpha",
		"RemovePeering alpha/alpha-to-beta",
	}, fx.MutatingCalls())
	assert.Empty(t, fx.Cloud.Networks["beta"].Peerings)
}
