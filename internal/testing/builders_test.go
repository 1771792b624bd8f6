package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigBuilder_Immutable(t *testing.T) {
	t.Parallel()

	base := NewConfigBuilder()
	withPool := base.WithPool("workers", map[string]string{"COUNT": "2", "MACHINE_TYPE": "e2-small"})

	assert.Equal(t, []string{"cp"}, base.Build().NodePools.Names)
	assert.Equal(t, []string{"cp", "workers"}, withPool.Build().NodePools.Names)
	assert.NotContains(t, base.Build().NodePools.Attributes, "WORKERS_COUNT")
	assert.Equal(t, "2", withPool.Build().NodePools.Attributes["WORKERS_COUNT"])
}

func TestMustState(t *testing.T) {
	t.Parallel()

	st := MustState(t, NewConfigBuilder().WithIngress("80").WithPeers("", "beta").Build())
	assert.Equal(t, "alpha", st.Cluster)
	assert.Len(t, st.Ingress, 1)
	assert.Len(t, st.Peers, 1)
}
