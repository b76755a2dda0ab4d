package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OTPSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "voting_otp_sent_total", Help: "OTP codes dispatched"},
		[]string{"method"},
	)
	OTPVerifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_otp_verified_total", Help: "Successful OTP verifications"},
	)
	OTPExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_otp_exhausted_total", Help: "Codes invalidated after max attempts"},
	)
	PurchasesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_purchases_created_total", Help: "Purchases created"},
	)
	PurchasesCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_purchases_completed_total", Help: "Purchases completed with votes applied"},
	)
	DuplicateCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_duplicate_completions_total", Help: "Completion signals absorbed as no-ops"},
	)
	ReconcileRequiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_reconcile_required_total", Help: "Line items that could not be applied to an artist"},
	)
	RankRecomputesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "voting_rank_recomputes_total", Help: "Leaderboard rank recomputations"},
	)
)

func Register() {
	prometheus.MustRegister(
		OTPSentTotal,
		OTPVerifiedTotal,
		OTPExhaustedTotal,
		PurchasesCreatedTotal,
		PurchasesCompletedTotal,
		DuplicateCompletionsTotal,
		ReconcileRequiredTotal,
		RankRecomputesTotal,
	)
}
