package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/orchestration"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/gce/fakes"
	"github.com/imamik/k8sgce/internal/platform/k8s"
	testutil "github.com/imamik/k8sgce/internal/testing"
)

// saveAndRestoreFactories saves the original factory functions and restores them after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()

	origCloud := newCloudClient
	origMembership := newMembership
	origLoadConfig := loadConfigFile
	origFindConfig := findConfigFile
	origTimeouts := loadTimeouts
	origStdout := stdout
	origStderr := stderr

	t.Cleanup(func() {
		newCloudClient = origCloud
		newMembership = origMembership
		loadConfigFile = origLoadConfig
		findConfigFile = origFindConfig
		loadTimeouts = origTimeouts
		stdout = origStdout
		stderr = origStderr
	})
}

type harness struct {
	cloud  *fakes.FakeClient
	out    *bytes.Buffer
	logs   *bytes.Buffer
	loaded string
}

// setupHarness wires the handlers to an in-memory cloud and cfg.
func setupHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	saveAndRestoreFactories(t)

	h := &harness{
		cloud: fakes.NewFakeClient(testutil.TestLocation),
		out:   &bytes.Buffer{},
		logs:  &bytes.Buffer{},
	}
	h.cloud.AddNetwork("alpha", "10.0.0.0/20", "10.4.0.0/14")
	h.cloud.AddBackendService("alpha-ingress")

	newCloudClient = func(_ context.Context, loc gce.Location, _ string) (gce.ResourceAPI, error) {
		if loc != testutil.TestLocation {
			return nil, errors.New("unexpected location")
		}
		return h.cloud, nil
	}
	loadConfigFile = func(path string) (*config.Config, error) {
		h.loaded = path
		return cfg, nil
	}
	findConfigFile = func() (string, error) {
		return "/work/k8sgce.yaml", nil
	}
	loadTimeouts = func() *config.Timeouts {
		ft := testutil.FastTimeouts()
		return &ft
	}
	stdout = h.out
	stderr = h.logs

	return h
}

func testConfig() *config.Config {
	return testutil.NewConfigBuilder().WithIngress("80,443/tcp").Build()
}

func TestLoadConfig_EmptyPath_NoDefaultFile(t *testing.T) {
	saveAndRestoreFactories(t)

	findConfigFile = func() (string, error) {
		return "", errors.New("k8sgce.yaml not found in /work")
	}

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
}

func TestLoadConfig_EmptyPath_UsesDefaultFile(t *testing.T) {
	h := setupHarness(t, testConfig())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "alpha", cfg.ClusterName)
	assert.Equal(t, "/work/k8sgce.yaml", h.loaded)
}

func TestLoadConfig_LoadError(t *testing.T) {
	saveAndRestoreFactories(t)

	loadConfigFile = func(_ string) (*config.Config, error) {
		return nil, errors.New("boom")
	}

	_, err := loadConfig("custom.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from custom.yaml")
}

func TestApply_ConvergesAndRendersReport(t *testing.T) {
	h := setupHarness(t, testConfig())

	err := Apply(context.Background(), Options{ConfigPath: "k8sgce.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "k8sgce.yaml", h.loaded)
	assert.NotEmpty(t, h.cloud.Calls())
	assert.Contains(t, h.cloud.Instances, "alpha-cp-0")
	assert.Contains(t, h.cloud.Addresses, "alpha-ingress-0")

	out := h.out.String()
	assert.Contains(t, out, "Apply")
	assert.Contains(t, out, "+ create service-account alpha-")
	assert.Contains(t, out, "applied\n")
	assert.Contains(t, h.logs.String(), "cluster=alpha")
}

func TestPlan_RendersYAMLWithoutMutating(t *testing.T) {
	h := setupHarness(t, testConfig())

	err := Plan(context.Background(), Options{Output: "yaml"})
	require.NoError(t, err)
	assert.Empty(t, h.cloud.Calls())

	var report orchestration.Report
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &report))
	assert.Equal(t, orchestration.ModePlan, report.Mode)
	assert.Positive(t, report.Pending())
}

func TestApply_DomainSelection(t *testing.T) {
	h := setupHarness(t, testConfig())

	err := Apply(context.Background(), Options{Domains: []string{"identity"}})
	require.NoError(t, err)

	for _, c := range h.cloud.Calls() {
		assert.Equal(t, "CreateServiceAccount", c.Method)
	}
	assert.Empty(t, h.cloud.Instances)
}

func TestRun_RejectsBadFlagsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"unknown domain", Options{Domains: []string{"dns"}}, "unknown domain"},
		{"unknown output", Options{Output: "xml"}, "unknown output format"},
		{"unknown log level", Options{LogLevel: "trace"}, "unknown log level"},
		{"unknown log format", Options{LogFormat: "logfmt"}, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHarness(t, testConfig())
			connected := false
			newCloudClient = func(_ context.Context, _ gce.Location, _ string) (gce.ResourceAPI, error) {
				connected = true
				return nil, errors.New("should not be called")
			}

			err := Apply(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, connected)
		})
	}
}

func TestApply_InvalidIngressMakesNoCalls(t *testing.T) {
	cfg := testutil.NewConfigBuilder().WithIngress("80/sctp").Build()
	cfg.Kubeconfig = "/work/kubeconfig"
	h := setupHarness(t, cfg)

	connected := false
	newCloudClient = func(_ context.Context, _ gce.Location, _ string) (gce.ResourceAPI, error) {
		connected = true
		return h.cloud, nil
	}
	newMembership = func(_ string) (k8s.Membership, error) {
		connected = true
		return k8s.NewClientFromInterface(fake.NewClientset()), nil
	}

	err := Apply(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.False(t, connected)
	assert.Empty(t, h.cloud.Calls())
	assert.Empty(t, h.out.String())
}

func TestApply_FailureStillRendersPartialReport(t *testing.T) {
	h := setupHarness(t, testConfig())
	h.cloud.Fail("InsertInstance", "alpha-cp-0", fakes.Unavailable(), -1)

	err := Apply(context.Background(), Options{})
	require.Error(t, err)

	out := h.out.String()
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "ingress: halted after control-plane failed")
	assert.Empty(t, h.cloud.Addresses)
}

func TestApply_UsesMembershipWhenKubeconfigSet(t *testing.T) {
	cfg := testConfig()
	cfg.Kubeconfig = "/work/kubeconfig"
	setupHarness(t, cfg)

	var gotPath string
	newMembership = func(path string) (k8s.Membership, error) {
		gotPath = path
		return k8s.NewClientFromInterface(fake.NewClientset()), nil
	}

	err := Plan(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "/work/kubeconfig", gotPath)
}

func TestApply_MembershipError(t *testing.T) {
	cfg := testConfig()
	cfg.Kubeconfig = "/work/kubeconfig"
	setupHarness(t, cfg)

	newMembership = func(_ string) (k8s.Membership, error) {
		return nil, errors.New("no such file")
	}

	err := Apply(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create cluster client")
}

func TestApply_WritesMetricsFile(t *testing.T) {
	setupHarness(t, testConfig())
	path := filepath.Join(t.TempDir(), "k8sgce.prom")

	err := Apply(context.Background(), Options{MetricsFile: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "k8sgce_reconcile_actions_total")
	assert.Contains(t, string(data), "k8sgce_reconcile_domain_duration_seconds")
}

func TestDestroy_RemovesClusterResources(t *testing.T) {
	h := setupHarness(t, testConfig())

	require.NoError(t, Apply(context.Background(), Options{}))
	require.NotEmpty(t, h.cloud.Instances)
	h.out.Reset()

	err := Destroy(context.Background(), Options{Output: "json"})
	require.NoError(t, err)

	assert.Empty(t, h.cloud.Instances)
	assert.Empty(t, h.cloud.Addresses)
	assert.Contains(t, h.out.String(), `"mode": "destroy"`)
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	log, err := newLogger(&buf, "info", "text")
	require.NoError(t, err)
	log.V(1).Info("hidden")
	log.Info("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	log, err = newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	log.V(1).Info("verbose")
	assert.Contains(t, buf.String(), `"msg":"verbose"`)
}
