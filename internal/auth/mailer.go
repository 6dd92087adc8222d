// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// NewMailer returns an SMTP mailer when a relay host is configured and a
// log-only mailer otherwise.
func NewMailer(cfg *config.SMTPConfig) Mailer {
	if cfg == nil || cfg.Host == "" {
		logging.Warn().Msg("SMTP host not configured, password reset mails are only logged")
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// LogMailer logs reset mails instead of sending them.
type LogMailer struct{}

// SendPasswordReset logs the recipient. The link is logged at debug level.
func (LogMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	logging.Ctx(ctx).Info().Str("to", to).Msg("Password reset mail (not sent, no SMTP relay)")
	logging.Ctx(ctx).Debug().Str("reset_url", resetURL).Msg("Password reset link")
	return nil
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends reset mails through an SMTP relay. Calls go through a
// circuit breaker so a dead relay fails fast instead of holding requests
// for the full timeout.
type SMTPMailer struct {
	cfg  *config.SMTPConfig
	cb   *gobreaker.CircuitBreaker[struct{}]
	send sendFunc
}

const smtpBreakerName = "smtp-relay"

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	metrics.CircuitBreakerState.WithLabelValues(smtpBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        smtpBreakerName,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &SMTPMailer{cfg: cfg, cb: cb, send: smtp.SendMail}
}

// SendPasswordReset mails the reset link to to.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	msg := buildResetMessage(m.cfg.From, to, resetURL)

	_, err := m.cb.Execute(func() (struct{}, error) {
		return struct{}{}, m.deliver(ctx, to, msg)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(smtpBreakerName, "success").Inc()
		metrics.PasswordResetMails.WithLabelValues("sent").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(smtpBreakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(smtpBreakerName, "failure").Inc()
	}
	metrics.PasswordResetMails.WithLabelValues("failed").Inc()
	return fmt.Errorf("send reset mail: %w", err)
}

// deliver runs the blocking SMTP exchange bounded by the configured timeout
// and ctx.
func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp %s: %w", addr, ctx.Err())
	}
}

func buildResetMessage(from, to, resetURL string) []byte {
	var b bytes.Buffer
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Reset your SkillSwap password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	body := strings.Join([]string{
		"You asked to reset your password.",
		"",
		"Open this link within one hour:",
		resetURL,
		"",
		"If this was not you, ignore this mail.",
	}, "\r\n")
	b.WriteString(body + "\r\n")
	return b.Bytes()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
