package auth

import (
	"context"
	"log"
	"strings"
)

// OtpSender delivers a code to the owner of a phone number out of band (SMS).
type OtpSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender stands in for an SMS gateway. It records that a code was
// dispatched without ever writing the code itself.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, phone, _ string) error {
	log.Printf("auth: otp dispatched to %s", MaskPhone(phone))
	return nil
}

// MaskPhone masks a phone number for logging (e.g. +2*********00)
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
