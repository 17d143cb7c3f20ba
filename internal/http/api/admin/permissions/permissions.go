// Package permissions defines the admin permission catalogue keyed by route.
package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// Definition describes one permission-guarded admin route.
type Definition struct {
	Key    string
	Method string
	Path   string
	Label  string
	Module string
}

// definitions lists every guarded route. Keep in sync with the admin router.
var definitions = []Definition{
	newDefinition("GET", "/v0/admin/dashboard/kpi", "View dashboard", "Dashboard"),
	newDefinition("GET", "/v0/admin/transactions", "List transactions", "Dashboard"),

	newDefinition("GET", "/v0/admin/withdrawals", "List withdrawals", "Withdrawals"),
	newDefinition("POST", "/v0/admin/withdrawals/:id/approve", "Approve withdrawal", "Withdrawals"),
	newDefinition("POST", "/v0/admin/withdrawals/:id/reject", "Reject withdrawal", "Withdrawals"),
	newDefinition("POST", "/v0/admin/withdrawals/:id/process", "Process withdrawal", "Withdrawals"),

	newDefinition("GET", "/v0/admin/payouts", "List payouts", "Payouts"),
	newDefinition("POST", "/v0/admin/payouts/:id/approve", "Approve payout", "Payouts"),
	newDefinition("POST", "/v0/admin/payouts/:id/reject", "Reject payout", "Payouts"),
	newDefinition("POST", "/v0/admin/payouts/:id/process", "Process payout", "Payouts"),

	newDefinition("GET", "/v0/admin/profit/distributable", "View distributable profit", "Profit"),
	newDefinition("POST", "/v0/admin/profit/distribute", "Distribute profit", "Profit"),
	newDefinition("POST", "/v0/admin/profit/auto-payout", "Run monthly auto payout", "Profit"),

	newDefinition("GET", "/v0/admin/investors", "List investors", "Investors"),
	newDefinition("GET", "/v0/admin/investors/:id", "View investor", "Investors"),
	newDefinition("GET", "/v0/admin/investors/duplicates", "Detect duplicate investors", "Investors"),
	newDefinition("POST", "/v0/admin/investors/duplicates/merge", "Merge duplicate investors", "Investors"),

	newDefinition("GET", "/v0/admin/investor-requests", "List investor requests", "Investor Requests"),
	newDefinition("POST", "/v0/admin/investor-requests/:id/approve", "Approve investor request", "Investor Requests"),
	newDefinition("POST", "/v0/admin/investor-requests/:id/reject", "Reject investor request", "Investor Requests"),

	newDefinition("GET", "/v0/admin/allocations", "List allocations", "Allocations"),
	newDefinition("POST", "/v0/admin/allocations", "Create allocation", "Allocations"),
	newDefinition("PUT", "/v0/admin/allocations/:id/value", "Revalue allocation", "Allocations"),

	newDefinition("GET", "/v0/admin/plans", "List plans", "Plans"),
	newDefinition("POST", "/v0/admin/plans", "Create plan", "Plans"),
	newDefinition("GET", "/v0/admin/plans/:id", "View plan", "Plans"),
	newDefinition("PUT", "/v0/admin/plans/:id", "Update plan", "Plans"),

	newDefinition("GET", "/v0/admin/settings", "View settings", "Settings"),
	newDefinition("PUT", "/v0/admin/settings", "Update settings", "Settings"),

	newDefinition("GET", "/v0/admin/admins", "List admins", "Admins"),
	newDefinition("POST", "/v0/admin/admins", "Create admin", "Admins"),
	newDefinition("GET", "/v0/admin/admins/:id", "View admin", "Admins"),
	newDefinition("PUT", "/v0/admin/admins/:id", "Update admin", "Admins"),
	newDefinition("POST", "/v0/admin/admins/:id/disable", "Disable admin", "Admins"),
	newDefinition("POST", "/v0/admin/admins/:id/enable", "Enable admin", "Admins"),
	newDefinition("PUT", "/v0/admin/admins/:id/password", "Reset admin password", "Admins"),

	newDefinition("GET", "/v0/admin/permissions", "List permissions", "Admins"),
}

func newDefinition(method, path, label, module string) Definition {
	return Definition{Key: Key(method, path), Method: method, Path: path, Label: label, Module: module}
}

// Key builds the permission key for a route.
func Key(method, path string) string {
	return strings.ToUpper(strings.TrimSpace(method)) + " " + strings.TrimSpace(path)
}

// Definitions returns a copy of the catalogue.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// DefinitionMap indexes the catalogue by key.
func DefinitionMap() map[string]Definition {
	out := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		out[def.Key] = def
	}
	return out
}

// ParsePermissions decodes the stored JSON list; malformed data yields no permissions.
func ParsePermissions(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if errUnmarshal := json.Unmarshal(raw, &out); errUnmarshal != nil {
		return []string{}
	}
	return NormalizePermissions(out)
}

// NormalizePermissions trims, dedupes and sorts keys.
func NormalizePermissions(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// ValidatePermissions rejects keys missing from the catalogue.
func ValidatePermissions(keys []string) error {
	known := DefinitionMap()
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unknown permission %q", key)
		}
	}
	return nil
}

// MarshalPermissions encodes keys for storage.
func MarshalPermissions(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}

// HasPermission reports whether granted contains key.
func HasPermission(granted []string, key string) bool {
	for _, g := range granted {
		if g == key {
			return true
		}
	}
	return false
}
