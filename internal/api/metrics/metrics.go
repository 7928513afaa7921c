// Package metrics defines all custom Prometheus metrics for the accounts
// API. It is the single source of truth for metric names, labels, and help
// strings; metrics register themselves with the default registry via
// promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// AccountsCreatedTotal counts successfully created accounts.
// Label:
//   - role: the forced target role of the new account (e.g. "PARTNER")
var AccountsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of accounts created, by role.",
	},
	[]string{"role"},
)

// AccountsDeletedTotal counts successful soft-deletions.
var AccountsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_total",
		Help:      "Total number of accounts soft-deleted.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", or "pending_validation"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PartnerValidationsTotal counts validation gate flips.
// Label:
//   - action: "validate" or "invalidate"
var PartnerValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "partner_validations_total",
		Help:      "Total number of partner validation state changes.",
	},
	[]string{"action"},
)
