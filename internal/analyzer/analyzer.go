// Package analyzer contains the cross-account posture checks: password
// reuse and password age. Both functions are deterministic, side-effect
// free, and perform no I/O. They operate on plaintext passwords that the
// caller decrypted just beforehand and is responsible for wiping; nothing
// here retains or emits the values.
package analyzer

import (
	"sort"
	"time"
)

// Account is one decrypted-in-memory account row.
type Account struct {
	Service     string
	Password    string
	LastChanged time.Time
}

// DefaultAgingThresholdDays is the age beyond which a password is flagged.
const DefaultAgingThresholdDays = 90

// AgingReport flags one account whose password is older than the threshold.
type AgingReport struct {
	Service string `json:"service"`
	DaysOld int    `json:"days_old"`
}

// Reuse maps every service whose password is shared byte-for-byte with at
// least one other account to the sorted list of those other services.
// Services with unique passwords do not appear in the map.
func Reuse(accounts []Account) map[string][]string {
	byPassword := make(map[string][]string)
	for _, a := range accounts {
		byPassword[a.Password] = append(byPassword[a.Password], a.Service)
	}

	result := make(map[string][]string)
	for _, services := range byPassword {
		if len(services) < 2 {
			continue
		}
		for _, svc := range services {
			others := make([]string, 0, len(services)-1)
			for _, other := range services {
				if other != svc {
					others = append(others, other)
				}
			}
			sort.Strings(others)
			result[svc] = others
		}
	}
	return result
}

// Aging returns the accounts whose password is strictly older than
// thresholdDays at the instant now, oldest first. A non-positive threshold
// falls back to DefaultAgingThresholdDays.
func Aging(accounts []Account, thresholdDays int, now time.Time) []AgingReport {
	if thresholdDays <= 0 {
		thresholdDays = DefaultAgingThresholdDays
	}
	threshold := time.Duration(thresholdDays) * 24 * time.Hour

	var reports []AgingReport
	for _, a := range accounts {
		age := now.Sub(a.LastChanged)
		if age > threshold {
			reports = append(reports, AgingReport{
				Service: a.Service,
				DaysOld: int(age.Hours() / 24),
			})
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].DaysOld > reports[j].DaysOld })
	return reports
}
