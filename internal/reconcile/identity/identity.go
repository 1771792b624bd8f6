// Package identity ensures the cluster's GCP service account.
//
// A custom account id must already exist. Without one an existing account
// named {cluster}-{6 hex} is reused, or a new one is created. Accounts are
// deleted only at teardown, and only when their id matches the generated
// pattern or deletion is forced. Apply never deletes an account.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	iam "google.golang.org/api/iam/v1"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// KindServiceAccount is the resource kind of the identity domain.
const KindServiceAccount = "service-account"

// PendingSuffix stands in for the random suffix of an account that a plan
// would create.
const PendingSuffix = "<generated>"

var (
	// ErrCustomAccountMissing is returned when the configured account does not exist.
	ErrCustomAccountMissing = errors.New("custom service account does not exist")

	// ErrAccountsUnknown is returned when the project's accounts could not
	// be listed and an existing generated account may be missed.
	ErrAccountsUnknown = errors.New("service accounts could not be listed")
)

// Spec is the desired identity.
type Spec struct {
	// Custom is a custom account id; empty selects a generated account.
	Custom string
}

// SpecFromState extracts the identity spec from st.
func SpecFromState(st *desired.State) Spec {
	return Spec{Custom: st.ServiceAccount}
}

// Identity is the resolved cluster service account.
type Identity struct {
	AccountID string `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Generated bool   `json:"generated,omitempty"`
}

// Observed is the remote identity state.
type Observed struct {
	Custom *iam.ServiceAccount

	// CustomErr is the error reading the custom account, if any.
	CustomErr error

	// Generated holds the account ids matching {cluster}-{6 hex}, sorted.
	Generated []string

	// ListErr is the error listing accounts; Generated is then
	// incomplete.
	ListErr error

	// InUse counts the cluster instances running as each generated
	// account. Nil when instances could not be listed.
	InUse map[string]int
}

// CanDelete reports whether the account id may be deleted for cluster.
func CanDelete(cluster, accountID string, force bool) bool {
	return force || naming.IsGeneratedServiceAccount(cluster, accountID)
}

// Probe lists the project's service accounts, reads the custom one and
// records which generated accounts the cluster's instances run as.
func Probe(ctx context.Context, s reconcile.Scope, spec Spec) *Observed {
	obs := &Observed{}
	warn := func(kind string, err error) {
		reconcile.LogProbeWarning(s.Observer, reconcile.DomainIdentity, kind, err)
	}

	accounts, err := s.Cloud.ListServiceAccounts(ctx)
	if err != nil {
		warn(KindServiceAccount, err)
		obs.ListErr = err
	}
	for _, sa := range accounts {
		if id := gce.ServiceAccountID(sa.Email); naming.IsGeneratedServiceAccount(s.Cluster, id) {
			obs.Generated = append(obs.Generated, id)
		}
	}
	slices.Sort(obs.Generated)

	if spec.Custom != "" {
		sa, err := s.Cloud.GetServiceAccount(ctx, spec.Custom)
		if err != nil {
			warn(KindServiceAccount, err)
			obs.CustomErr = err
		}
		obs.Custom = sa
	}

	if len(obs.Generated) > 1 {
		instances, err := s.Cloud.ListInstances(ctx, naming.ClusterInstancePattern(s.Cluster))
		if err != nil {
			warn("instance", err)
			return obs
		}
		obs.InUse = make(map[string]int)
		for _, inst := range instances {
			for _, sa := range inst.ServiceAccounts {
				if id := gce.ServiceAccountID(sa.Email); slices.Contains(obs.Generated, id) {
					obs.InUse[id]++
				}
			}
		}
	}
	return obs
}

// keeper picks the generated account to reuse: the one most instances run
// as, the first in sort order on a tie.
func (o *Observed) keeper() string {
	keep := o.Generated[0]
	for _, id := range o.Generated[1:] {
		if o.InUse[id] > o.InUse[keep] {
			keep = id
		}
	}
	return keep
}

// Diff resolves the identity and plans the changes it needs. A new account
// is named {cluster}-<generated>; the suffix is drawn when applied.
func Diff(s reconcile.Scope, spec Spec, obs *Observed) (*reconcile.Plan, Identity, error) {
	return diff(s, spec, obs, func() (string, error) { return PendingSuffix, nil })
}

// diff resolves the identity. A custom account that is missing or
// unreadable is a failure, as is an incomplete account list when a
// generated account would otherwise be created: nothing is planned.
// Accounts are never deleted here; extra generated accounts are denied.
func diff(s reconcile.Scope, spec Spec, obs *Observed, newSuffix func() (string, error)) (*reconcile.Plan, Identity, error) {
	p := reconcile.NewPlan(reconcile.DomainIdentity)
	project := s.Location().Project

	if spec.Custom != "" {
		switch {
		case obs.CustomErr != nil:
			return p, Identity{}, &reconcile.Failure{
				Domain: reconcile.DomainIdentity, Kind: KindServiceAccount, Name: spec.Custom,
				Op: "resolve", LastState: "UNKNOWN", Err: obs.CustomErr,
			}
		case obs.Custom == nil:
			return p, Identity{}, &reconcile.Failure{
				Domain: reconcile.DomainIdentity, Kind: KindServiceAccount, Name: spec.Custom,
				Op: "resolve", LastState: "ABSENT", Err: ErrCustomAccountMissing,
			}
		}
		if obs.ListErr != nil {
			p.Warn("generated service accounts not listed: %v", obs.ListErr)
		}
		for _, id := range obs.Generated {
			if id != spec.Custom {
				p.Deny(KindServiceAccount, id, "custom account "+spec.Custom+" in use; generated account kept")
			}
		}
		return p, Identity{AccountID: spec.Custom, Email: gce.ServiceAccountEmail(project, spec.Custom)}, nil
	}

	if obs.ListErr != nil {
		return p, Identity{}, &reconcile.Failure{
			Domain: reconcile.DomainIdentity, Kind: KindServiceAccount, Name: naming.ServiceAccount(s.Cluster, PendingSuffix),
			Op: "list", LastState: "UNKNOWN", Err: fmt.Errorf("%w: %w", ErrAccountsUnknown, obs.ListErr),
		}
	}

	if len(obs.Generated) > 0 {
		keep := obs.keeper()
		for _, id := range obs.Generated {
			if id == keep {
				continue
			}
			p.Deny(KindServiceAccount, id, fmt.Sprintf("duplicate generated account, %s in use", keep))
			if obs.InUse[id] > 0 {
				p.Warn("%d instance(s) run as duplicate account %s", obs.InUse[id], id)
			}
		}
		return p, Identity{AccountID: keep, Email: gce.ServiceAccountEmail(project, keep), Generated: true}, nil
	}

	suffix, err := newSuffix()
	if err != nil {
		return p, Identity{}, fmt.Errorf("failed to generate service account id: %w", err)
	}
	id := naming.ServiceAccount(s.Cluster, suffix)
	cloud := s.Cloud
	p.Add(reconcile.Action{
		Op: reconcile.OpCreate, Kind: KindServiceAccount, Name: id, State: "ABSENT",
		Detail: "generated cluster identity",
		Apply: func(ctx context.Context) error {
			_, err := cloud.CreateServiceAccount(ctx, id, "k8sgce "+s.Cluster)
			return err
		},
		Wait: func(ctx context.Context) error {
			// IAM is eventually consistent; the account must be readable
			// before instances reference it.
			return reconcile.Poll(ctx, s, "service account "+id, func(ctx context.Context) (bool, error) {
				sa, err := cloud.GetServiceAccount(ctx, id)
				if err != nil {
					return false, nil
				}
				return sa != nil, nil
			})
		},
	})
	return p, Identity{AccountID: id, Email: gce.ServiceAccountEmail(project, id), Generated: true}, nil
}

// Plan probes and resolves the identity without mutating. An account it
// would create carries PendingSuffix, so repeated plans agree.
func Plan(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Plan, Identity, error) {
	return Diff(s, spec, Probe(ctx, s, spec))
}

// Reconcile ensures the cluster identity and returns it.
func Reconcile(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Result, Identity, error) {
	start := time.Now()
	reconcile.LogDomainStart(s.Observer, reconcile.DomainIdentity)

	p, id, err := diff(s, spec, Probe(ctx, s, spec), randomSuffix)
	if err != nil {
		reconcile.LogDomainFailed(s.Observer, reconcile.DomainIdentity, err)
		return nil, Identity{}, err
	}
	res, err := reconcile.Execute(ctx, s, p)
	if err != nil {
		reconcile.LogDomainFailed(s.Observer, reconcile.DomainIdentity, err)
		return res, Identity{}, err
	}
	reconcile.LogDomainComplete(s.Observer.WithValues("account", id.AccountID), reconcile.DomainIdentity, len(res.Applied), time.Since(start))
	return res, id, nil
}

// DestroyPlan computes the removal of the cluster's accounts. A custom
// account is only removed when s.ForceIdentity is set.
func DestroyPlan(ctx context.Context, s reconcile.Scope, spec Spec) *reconcile.Plan {
	obs := Probe(ctx, s, spec)
	p := reconcile.NewPlan(reconcile.DomainIdentity)
	if obs.ListErr != nil {
		p.Warn("generated service accounts not listed, none removed: %v", obs.ListErr)
	}
	if obs.CustomErr != nil {
		p.Warn("custom service account %s not read: %v", spec.Custom, obs.CustomErr)
	}

	if obs.Custom != nil {
		if CanDelete(s.Cluster, spec.Custom, s.ForceIdentity) {
			p.Add(deleteAccount(s, spec.Custom, "cluster teardown, forced"))
		} else {
			p.Deny(KindServiceAccount, spec.Custom, "custom service account kept; pass --force-identity to delete it")
		}
	}
	for _, id := range obs.Generated {
		if id != spec.Custom {
			p.Add(deleteAccount(s, id, "cluster teardown"))
		}
	}
	return p
}

// Destroy removes the cluster's accounts.
func Destroy(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Result, error) {
	return reconcile.Execute(ctx, s, DestroyPlan(ctx, s, spec))
}

func deleteAccount(s reconcile.Scope, id, reason string) reconcile.Action {
	cloud := s.Cloud
	return reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindServiceAccount, Name: id, Detail: reason,
		Apply: func(ctx context.Context) error {
			if !CanDelete(s.Cluster, id, s.ForceIdentity) {
				return fmt.Errorf("refusing to delete service account %s", id)
			}
			return cloud.DeleteServiceAccount(ctx, id)
		},
	}
}

func randomSuffix() (string, error) {
	buf := make([]byte, naming.ServiceAccountSuffixLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
