package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLabelBuilder(t *testing.T) {
	t.Parallel()
	got := NewLabelBuilder("prod").Build()

	assert.Equal(t, map[string]string{
		KeyCluster:   "prod",
		KeyManagedBy: ManagedByK8sgce,
	}, got)
}

func TestLabelBuilder_Chain(t *testing.T) {
	t.Parallel()
	got := NewLabelBuilder("prod").
		WithRole(RoleWorker).
		WithPool("workers").
		WithDomain("nodepool").
		Merge(map[string]string{"team": "infra"}).
		Build()

	assert.Equal(t, "worker", got[KeyRole])
	assert.Equal(t, "workers", got[KeyPool])
	assert.Equal(t, "nodepool", got[KeyDomain])
	assert.Equal(t, "infra", got["team"])
}

func TestLabelBuilder_BuildReturnsCopy(t *testing.T) {
	t.Parallel()
	lb := NewLabelBuilder("prod")
	first := lb.Build()
	first[KeyCluster] = "mutated"

	assert.Equal(t, "prod", lb.Build()[KeyCluster])
}
