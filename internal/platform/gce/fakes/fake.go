// Package fakes provides an in-memory gce.ResourceAPI for tests.
package fakes

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"sync"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	iam "google.golang.org/api/iam/v1"

	"github.com/imamik/k8sgce/internal/platform/gce"
)

// Call is one recorded mutating call.
type Call struct {
	Method string
	Name   string
}

func (c Call) String() string {
	return c.Method + " " + c.Name
}

type injected struct {
	err   error
	times int // remaining; <0 means forever
}

// FakeClient is an in-memory ResourceAPI. Mutations are recorded in call
// order; failures can be injected per method and resource name.
type FakeClient struct {
	mu sync.Mutex

	loc gce.Location

	Addresses       map[string]*compute.Address
	ForwardingRules map[string]*compute.ForwardingRule
	Firewalls       map[string]*compute.Firewall
	Networks        map[string]*compute.Network
	Subnetworks     map[string]*compute.Subnetwork
	Instances       map[string]*compute.Instance
	Disks           map[string]*compute.Disk
	InstanceGroups  map[string]*compute.InstanceGroup
	Members         map[string][]string
	ServiceAccounts map[string]*iam.ServiceAccount
	BackendServices map[string]*compute.BackendService

	// InstanceStatus is the status assigned to inserted instances.
	InstanceStatus string

	calls    []Call
	failures map[Call]*injected
	nextIP   int
}

var _ gce.ResourceAPI = (*FakeClient)(nil)

// NewFakeClient returns an empty fake bound to loc.
func NewFakeClient(loc gce.Location) *FakeClient {
	return &FakeClient{
		loc:             loc,
		Addresses:       make(map[string]*compute.Address),
		ForwardingRules: make(map[string]*compute.ForwardingRule),
		Firewalls:       make(map[string]*compute.Firewall),
		Networks:        make(map[string]*compute.Network),
		Subnetworks:     make(map[string]*compute.Subnetwork),
		Instances:       make(map[string]*compute.Instance),
		Disks:           make(map[string]*compute.Disk),
		InstanceGroups:  make(map[string]*compute.InstanceGroup),
		Members:         make(map[string][]string),
		ServiceAccounts: make(map[string]*iam.ServiceAccount),
		BackendServices: make(map[string]*compute.BackendService),
		InstanceStatus:  "RUNNING",
		failures:        make(map[Call]*injected),
	}
}

// Location implements gce.ResourceAPI.
func (f *FakeClient) Location() gce.Location {
	return f.loc
}

// Fail makes the next times calls of method on name return err. A negative
// times fails forever. List reads match on their pattern; ListServiceAccounts
// matches on the empty name.
func (f *FakeClient) Fail(method, name string, err error, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[Call{Method: method, Name: name}] = &injected{err: err, times: times}
}

// Calls returns the recorded mutating calls.
func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// ResetCalls clears the recorded calls.
func (f *FakeClient) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// AddNetwork seeds a cluster network with its subnetwork, primary range and
// pod secondary range.
func (f *FakeClient) AddNetwork(name, nodeRange, podRange string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Networks[name] = &compute.Network{Name: name, SelfLink: gce.NetworkURL(f.loc.Project, name)}
	f.Subnetworks[name] = &compute.Subnetwork{
		Name:        name,
		Network:     gce.NetworkURL(f.loc.Project, name),
		IpCidrRange: nodeRange,
		SecondaryIpRanges: []*compute.SubnetworkSecondaryRange{
			{RangeName: "pods", IpCidrRange: podRange},
		},
	}
}

// AddBackendService registers a regional backend service owned outside the
// cluster.
func (f *FakeClient) AddBackendService(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BackendServices[name] = &compute.BackendService{
		Name:                name,
		LoadBalancingScheme: "EXTERNAL",
		Region:              f.loc.Region,
	}
}

// RemoveNetwork deletes a network and its subnetwork. Peerings of other
// networks pointing at it become INACTIVE.
func (f *FakeClient) RemoveNetwork(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Networks, name)
	delete(f.Subnetworks, name)
	f.refreshPeeringStates()
}

// record registers a mutating call and returns an injected failure, if any.
func (f *FakeClient) record(method, name string) error {
	c := Call{Method: method, Name: name}
	f.calls = append(f.calls, c)
	inj, ok := f.failures[c]
	if !ok || inj.times == 0 {
		return nil
	}
	if inj.times > 0 {
		inj.times--
	}
	return inj.err
}

func (f *FakeClient) readFailure(method, name string) error {
	inj, ok := f.failures[Call{Method: method, Name: name}]
	if !ok || inj.times == 0 {
		return nil
	}
	if inj.times > 0 {
		inj.times--
	}
	return inj.err
}

func alreadyExists(kind, name string) error {
	return &googleapi.Error{
		Code:    http.StatusConflict,
		Message: fmt.Sprintf("%s %s already exists", kind, name),
		Errors:  []googleapi.ErrorItem{{Reason: "alreadyExists"}},
	}
}

// NotFound returns the error the API reports for a missing resource.
func NotFound(kind, name string) error {
	return &googleapi.Error{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s %s not found", kind, name),
		Errors:  []googleapi.ErrorItem{{Reason: "notFound"}},
	}
}

// Unavailable returns a transient server error.
func Unavailable() error {
	return &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend unavailable"}
}

func matcher(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

func list[T any](m map[string]*T, pattern string) ([]*T, error) {
	re, err := matcher(pattern)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m))
	for n := range m {
		if re.MatchString(n) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	out := make([]*T, 0, len(names))
	for _, n := range names {
		v := *m[n]
		out = append(out, &v)
	}
	return out, nil
}

func get[T any](m map[string]*T, name string) *T {
	v, ok := m[name]
	if !ok {
		return nil
	}
	c := *v
	return &c
}
