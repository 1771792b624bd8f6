package desired

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortList_Canonicalization(t *testing.T) {
	t.Parallel()

	set, err := ParsePortList("test", "80,443/tcp,53/udp,80")
	require.NoError(t, err)

	assert.Equal(t, []int{80, 443}, set.TCP)
	assert.Equal(t, []int{53, 80}, set.UDP)
	assert.Equal(t, "tcp:80,443;udp:53,80", set.Canonical())
}

func TestParsePortList_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		canonical string
	}{
		{"empty", "", "tcp:;udp:"},
		{"bare port expands", "22", "tcp:22;udp:22"},
		{"uppercase protocol", "443/TCP", "tcp:443;udp:"},
		{"whitespace", " 80 , 53/udp ", "tcp:80;udp:53,80"},
		{"duplicates collapse", "80/tcp,80/tcp,80", "tcp:80;udp:80"},
		{"sorted ascending", "8080/tcp,22/tcp,443/tcp", "tcp:22,443,8080;udp:"},
		{"empty tokens ignored", "80/tcp,,", "tcp:80;udp:"},
		{"bounds", "1/tcp,65535/udp", "tcp:1;udp:65535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set, err := ParsePortList("test", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, set.Canonical())
		})
	}
}

func TestParsePortList_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"non-numeric", "http"},
		{"zero", "0"},
		{"too large", "65536/tcp"},
		{"negative", "-1/udp"},
		{"unknown protocol", "80/sctp"},
		{"one bad token among good", "80,443/tcp,x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParsePortList("test", tt.input)
			require.Error(t, err)

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
			assert.Equal(t, "test", pe.Field)
		})
	}
}

func TestParsePortList_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := ParsePortList("ports", "x,0,80/sctp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), `"0"`)
	assert.Contains(t, err.Error(), `"80/sctp"`)
}

func TestPortSet_Rules(t *testing.T) {
	t.Parallel()

	set := NewPortSet([]PortRule{
		{Port: 53, Protocol: UDP},
		{Port: 443, Protocol: TCP},
		{Port: 80, Protocol: TCP},
	})

	assert.Equal(t, []PortRule{
		{Port: 80, Protocol: TCP},
		{Port: 443, Protocol: TCP},
		{Port: 53, Protocol: UDP},
	}, set.Rules())
	assert.False(t, set.Empty())
	assert.True(t, PortSet{}.Empty())
}

func TestJoinPorts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", JoinPorts(nil))
	assert.Equal(t, "80", JoinPorts([]int{80}))
	assert.Equal(t, "80,443", JoinPorts([]int{80, 443}))
}
