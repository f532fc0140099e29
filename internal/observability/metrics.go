package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// CacheHits tracks cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"operation"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// SignupSessions tracks verification session lifecycle outcomes
	SignupSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_signup_sessions_total",
			Help: "Number of verification sessions by outcome",
		},
		[]string{"outcome"},
	)

	// KYCTransitions tracks identity state machine transitions
	KYCTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_kyc_transitions_total",
			Help: "Number of KYC level transitions",
		},
		[]string{"transition", "status"},
	)

	// SponsorPromotions tracks referral level promotions applied by the
	// leveling engine
	SponsorPromotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_sponsor_promotions_total",
			Help: "Number of sponsor level promotions",
		},
		[]string{"level"},
	)

	// OutboundMail tracks mail relay dispatch outcomes
	OutboundMail = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_outbound_mail_total",
			Help: "Number of outbound mail dispatches",
		},
		[]string{"template", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboarding_active_connections",
			Help: "Number of active connections",
		},
	)
)
