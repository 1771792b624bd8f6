package desired

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIngress(t *testing.T) {
	t.Parallel()

	groups, err := ParseIngress("80,443/tcp;53/udp;")
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, 0, groups[0].Index)
	assert.Equal(t, "tcp:80,443;udp:80", groups[0].Canonical())
	assert.Equal(t, 1, groups[1].Index)
	assert.Equal(t, "tcp:;udp:53", groups[1].Canonical())

	// Trailing empty segment is an empty group that still reserves an address.
	assert.Equal(t, 2, groups[2].Index)
	assert.True(t, groups[2].Empty())
}

func TestParseIngress_Empty(t *testing.T) {
	t.Parallel()

	groups, err := ParseIngress("  ")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestParseIngress_FailsWholeSpec(t *testing.T) {
	t.Parallel()

	groups, err := ParseIngress("80/tcp;99999")
	require.Error(t, err)
	assert.Nil(t, groups)
	assert.Contains(t, err.Error(), "ingress group 1")
}

func TestIngressGroup_Firewall(t *testing.T) {
	t.Parallel()

	g := IngressGroup{Index: 4, PortSet: PortSet{TCP: []int{80}, UDP: []int{53}}}
	fw := g.Firewall()
	assert.Equal(t, 4, fw.Index)
	assert.Equal(t, g.Canonical(), fw.Canonical())
}

func TestParseIngress_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := ParseIngress("443/tcp,80;53/udp")
	require.NoError(t, err)
	b, err := ParseIngress("80, 443/tcp ;53/udp")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
