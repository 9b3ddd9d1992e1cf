package azure

import "fmt"

// Azure Cognitive Services regions that host the speech websocket endpoint.
var regions = map[string]struct{}{
	"southafricanorth":   {},
	"eastasia":           {},
	"southeastasia":      {},
	"australiaeast":      {},
	"centralindia":       {},
	"japaneast":          {},
	"japanwest":          {},
	"koreacentral":       {},
	"canadacentral":      {},
	"northeurope":        {},
	"westeurope":         {},
	"francecentral":      {},
	"germanywestcentral": {},
	"norwayeast":         {},
	"switzerlandnorth":   {},
	"switzerlandwest":    {},
	"uksouth":            {},
	"uaenorth":           {},
	"brazilsouth":        {},
	"centralus":          {},
	"eastus":             {},
	"eastus2":            {},
	"northcentralus":     {},
	"southcentralus":     {},
	"westcentralus":      {},
	"westus":             {},
	"westus2":            {},
	"westus3":            {},
}

// ValidRegion reports whether region names a known speech-service region.
func ValidRegion(region string) bool {
	_, ok := regions[region]
	return ok
}

// ParseRegion validates a region name.
func ParseRegion(region string) (string, error) {
	if !ValidRegion(region) {
		return "", fmt.Errorf("unknown azure region %q", region)
	}
	return region, nil
}
