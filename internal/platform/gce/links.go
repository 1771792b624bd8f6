package gce

import (
	"fmt"
	"strings"
)

// NetworkURL returns the partial URL of a network.
func NetworkURL(project, network string) string {
	return fmt.Sprintf("projects/%s/global/networks/%s", project, network)
}

// SubnetworkURL returns the partial URL of a subnetwork.
func SubnetworkURL(project, region, subnetwork string) string {
	return fmt.Sprintf("projects/%s/regions/%s/subnetworks/%s", project, region, subnetwork)
}

// InstanceURL returns the partial URL of an instance.
func InstanceURL(project, zone, instance string) string {
	return fmt.Sprintf("projects/%s/zones/%s/instances/%s", project, zone, instance)
}

// MachineTypeURL returns the zonal machine type reference used on insert.
func MachineTypeURL(zone, machineType string) string {
	return fmt.Sprintf("zones/%s/machineTypes/%s", zone, machineType)
}

// DiskTypeURL returns the zonal disk type reference used on insert.
func DiskTypeURL(zone, diskType string) string {
	return fmt.Sprintf("zones/%s/diskTypes/%s", zone, diskType)
}

// AddressURL returns the partial URL of a regional address.
func AddressURL(project, region, address string) string {
	return fmt.Sprintf("projects/%s/regions/%s/addresses/%s", project, region, address)
}

// BackendServiceURL returns the partial URL of a regional backend service.
// Full URLs are passed through.
func BackendServiceURL(project, region, service string) string {
	if strings.HasPrefix(service, "https://") {
		return service
	}
	return fmt.Sprintf("projects/%s/regions/%s/backendServices/%s", project, region, service)
}

// ServiceAccountEmail returns the email of a service account id.
func ServiceAccountEmail(project, accountID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, project)
}

// ServiceAccountID returns the account id part of an email.
func ServiceAccountID(email string) string {
	id, _, _ := strings.Cut(email, "@")
	return id
}

// ResourceName returns the last path segment of a resource URL.
func ResourceName(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
