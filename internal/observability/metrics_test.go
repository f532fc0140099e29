package observability

import (
	"testing"
)

func TestMetricsExist(t *testing.T) {
	if RequestDuration == nil {
		t.Error("RequestDuration metric should not be nil")
	}
	if CacheHits == nil {
		t.Error("CacheHits metric should not be nil")
	}
	if DatabaseOperations == nil {
		t.Error("DatabaseOperations metric should not be nil")
	}
	if SignupSessions == nil {
		t.Error("SignupSessions metric should not be nil")
	}
	if KYCTransitions == nil {
		t.Error("KYCTransitions metric should not be nil")
	}
	if SponsorPromotions == nil {
		t.Error("SponsorPromotions metric should not be nil")
	}
	if OutboundMail == nil {
		t.Error("OutboundMail metric should not be nil")
	}
	if ActiveConnections == nil {
		t.Error("ActiveConnections metric should not be nil")
	}
}

func TestRequestDuration(t *testing.T) {
	// Should not panic
	RequestDuration.WithLabelValues("/v1/auth/signup", "POST", "201").Observe(0.05)
}

func TestCacheHits(t *testing.T) {
	// Should not panic
	CacheHits.WithLabelValues("current_user").Inc()
	CacheHits.WithLabelValues("mailer_token").Inc()
}

func TestSignupSessions(t *testing.T) {
	// Should not panic
	SignupSessions.WithLabelValues("created").Inc()
	SignupSessions.WithLabelValues("resent").Inc()
	SignupSessions.WithLabelValues("consumed").Inc()
	SignupSessions.WithLabelValues("expired").Inc()
	SignupSessions.WithLabelValues("invalid_otp").Inc()
}

func TestKYCTransitions(t *testing.T) {
	// Should not panic
	KYCTransitions.WithLabelValues("level1", "ok").Inc()
	KYCTransitions.WithLabelValues("license", "denied").Inc()
	KYCTransitions.WithLabelValues("vehicle", "upload_failed").Inc()
}

func TestSponsorPromotions(t *testing.T) {
	// Should not panic
	SponsorPromotions.WithLabelValues("1").Inc()
	SponsorPromotions.WithLabelValues("4").Inc()
}

func TestOutboundMail(t *testing.T) {
	// Should not panic
	OutboundMail.WithLabelValues("verification_code", "sent").Inc()
	OutboundMail.WithLabelValues("verification_code", "throttled").Inc()
}

func TestActiveConnections(t *testing.T) {
	// Should not panic
	ActiveConnections.Inc()
	ActiveConnections.Dec()
	ActiveConnections.Set(0)
}
