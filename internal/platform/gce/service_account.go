package gce

import (
	"context"
	"fmt"

	iam "google.golang.org/api/iam/v1"
)

func (c *RealClient) projectResource() string {
	return "projects/" + c.loc.Project
}

func (c *RealClient) accountResource(accountID string) string {
	return fmt.Sprintf("projects/%s/serviceAccounts/%s", c.loc.Project, ServiceAccountEmail(c.loc.Project, accountID))
}

// ListServiceAccounts implements ServiceAccountManager.
func (c *RealClient) ListServiceAccounts(ctx context.Context) ([]*iam.ServiceAccount, error) {
	var out []*iam.ServiceAccount
	err := c.iam.Projects.ServiceAccounts.List(c.projectResource()).
		Pages(ctx, func(page *iam.ListServiceAccountsResponse) error {
			out = append(out, page.Accounts...)
			return nil
		})
	return out, err
}

// GetServiceAccount implements ServiceAccountManager.
func (c *RealClient) GetServiceAccount(ctx context.Context, accountID string) (*iam.ServiceAccount, error) {
	return getOrNil(c.iam.Projects.ServiceAccounts.Get(c.accountResource(accountID)).Context(ctx).Do())
}

// CreateServiceAccount implements ServiceAccountManager.
func (c *RealClient) CreateServiceAccount(ctx context.Context, accountID, displayName string) (*iam.ServiceAccount, error) {
	req := &iam.CreateServiceAccountRequest{
		AccountId:      accountID,
		ServiceAccount: &iam.ServiceAccount{DisplayName: displayName},
	}
	return c.iam.Projects.ServiceAccounts.Create(c.projectResource(), req).Context(ctx).Do()
}

// DeleteServiceAccount implements ServiceAccountManager.
func (c *RealClient) DeleteServiceAccount(ctx context.Context, accountID string) error {
	_, err := c.iam.Projects.ServiceAccounts.Delete(c.accountResource(accountID)).Context(ctx).Do()
	return ignoreNotFound(err)
}
