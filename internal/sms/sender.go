package sms

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
)

// Sender delivers an OTP message to a mobile number.
type Sender interface {
	Send(ctx context.Context, countryCode, mobile, code, purpose string) error
}

// LogSender is a development stand-in for a real SMS gateway. It fabricates a
// provider message id and logs the delivery with the phone masked; the code
// itself is never logged.
type LogSender struct{}

// NewLogSender creates a stub sender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the delivery and always succeeds.
func (s *LogSender) Send(ctx context.Context, countryCode, mobile, code, purpose string) error {
	messageID := uuid.NewString()
	log.Printf("sms: queued otp message id=%s to=%s%s purpose=%s", messageID, countryCode, maskMobile(mobile), purpose)
	return nil
}

// maskMobile masks a mobile number for logging (e.g. 55******67).
func maskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return "****"
	}
	return mobile[:2] + strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-2:]
}
