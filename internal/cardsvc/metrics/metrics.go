package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KeysGenerated counts card keys committed to the store
	KeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardkey_generated_total",
		Help: "Total number of card keys inserted",
	})

	// GenerateCollisions counts generated codes rejected by the unique constraint
	GenerateCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardkey_generate_collisions_total",
		Help: "Total number of generated codes that collided with an existing code",
	})

	// GenerateRuns tracks generation runs by result
	GenerateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardkey_generate_runs_total",
		Help: "Total number of generation runs by result",
	}, []string{"result"})

	// Redemptions tracks redemption attempts by outcome
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardkey_redemptions_total",
		Help: "Total number of redemption attempts by outcome",
	}, []string{"outcome"})

	// AdminLogins tracks admin login attempts by result
	AdminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardkey_admin_logins_total",
		Help: "Total number of admin login attempts by result",
	}, []string{"result"})
)
