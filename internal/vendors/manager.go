// Package vendors wires the rate-limited, circuit-broken HTTP client
// (internal/net/client) to the vendors configured under
// config.AppConfig.Vendors and holds two fetchers built on it: a
// market-data vendor (current prices) and a macro-data vendor. Each wraps
// its provider's raw response shape into the domain types the rest of the
// system consumes. There is no SEC EDGAR filings client in this package.
package vendors

import (
	"net/http"
	"time"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
	"github.com/broseidonlordofthebrocean/hedge/internal/net/budget"
	"github.com/broseidonlordofthebrocean/hedge/internal/net/circuit"
	netclient "github.com/broseidonlordofthebrocean/hedge/internal/net/client"
	"github.com/broseidonlordofthebrocean/hedge/internal/net/ratelimit"
)

// Manager owns the shared rate-limit/circuit/budget state across all
// configured vendors and hands out a resilient *http.Client per vendor.
type Manager struct {
	clients *netclient.Manager
	cfg     map[string]config.ProviderConfig
}

// NewManager builds a Manager from the vendor configs in cfg.Vendors,
// registering each with its own rate limit, circuit breaker, and request
// budget per the ambient provider-resilience stack (wrap.go). The budget
// tracker takes MonthlyBudgetUSD as its request limit and resets it daily
// at 00:00 UTC.
func NewManager(cfg *config.AppConfig, cache netclient.Cache) *Manager {
	rateLimitMgr := ratelimit.NewManager()
	circuitMgr := circuit.NewManager()
	budgetMgr := budget.NewManager()

	for name, p := range cfg.Vendors {
		rps := p.RequestsPerSec
		if rps <= 0 {
			rps = 2
		}
		burst := p.Burst
		if burst <= 0 {
			burst = 5
		}
		rateLimitMgr.AddProvider(name, rps, burst)
		circuitMgr.AddProvider(name, circuit.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
			RequestTimeout:   p.GetRequestTimeout(),
		})
		budgetMgr.AddProvider(name, p.MonthlyBudgetUSD, 0, 0.8)
	}

	clients := netclient.NewManager(rateLimitMgr, circuitMgr, budgetMgr, cache, &config.GlobalConfig{
		LogLevel: cfg.Global.LogLevel,
		Timezone: cfg.Global.Timezone,
	})
	for name, p := range cfg.Vendors {
		p := p
		clients.AddProvider(name, &p)
	}

	return &Manager{clients: clients, cfg: cfg.Vendors}
}

// Client returns the resilient HTTP client for a configured vendor name,
// or ok=false if it wasn't listed under config.AppConfig.Vendors.
func (m *Manager) Client(name string) (*http.Client, bool) {
	return m.clients.GetClient(name)
}

// Health reports which configured vendors are healthy, unhealthy (circuit
// open or budget exhausted), or in a budget warning state, for GET /health.
func (m *Manager) Health() netclient.HealthSummary {
	return m.clients.GetHealthySummary()
}
