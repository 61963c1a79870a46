package notify

import (
	"context"
	"fmt"
	"strings"
)

// smsMaxLen is the single-segment SMS character limit.
const smsMaxLen = 160

// carrierGateways maps US carrier names to their email-to-SMS gateway hosts.
var carrierGateways = map[string]string{
	"verizon":    "vtext.com",
	"tmobile":    "tmomail.net",
	"sprint":     "messaging.sprintpcs.com",
	"at&t":       "txt.att.net",
	"boost":      "smsmyboostmobile.com",
	"cricket":    "sms.cricketwireless.net",
	"uscellular": "email.uscc.net",
}

// smsChannel delivers a truncated message through a carrier email-to-SMS
// gateway, reusing the email channel's SMTP settings.
type smsChannel struct {
	email       *emailChannel
	phoneNumber string
	carrier     string
}

// NewSMSChannel creates an SMS notification channel over the carrier's
// email gateway.
func NewSMSChannel(host string, port int, sender, password, phoneNumber, carrier string) (Channel, error) {
	gateway, ok := carrierGateways[strings.ToLower(carrier)]
	if !ok {
		return nil, fmt.Errorf("unknown SMS carrier %q", carrier)
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phoneNumber)
	if len(digits) != 10 {
		return nil, fmt.Errorf("phone number %q is not 10 digits", phoneNumber)
	}

	return &smsChannel{
		email: &emailChannel{
			host:      host,
			port:      port,
			sender:    sender,
			password:  password,
			recipient: digits + "@" + gateway,
		},
		phoneNumber: digits,
		carrier:     carrier,
	}, nil
}

func (c *smsChannel) Name() string {
	return "sms"
}

func (c *smsChannel) Send(ctx context.Context, msg Message) error {
	text := msg.Short
	if text == "" {
		text = msg.Body
	}
	return c.email.Send(ctx, Message{Subject: msg.Subject, Body: truncate(text, smsMaxLen)})
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
