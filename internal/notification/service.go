// Package notification turns registry events into notices for the
// people involved: hearing summons when a case moves forward and
// payment links for document fees.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brgy-santafe/registry/internal/adapters/cityhall"
	"github.com/brgy-santafe/registry/internal/shared/config"
	"github.com/brgy-santafe/registry/internal/shared/events"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Notice is one outbound message.
type Notice struct {
	To      []string
	Subject string
	Body    string
}

// Provider delivers notices. Implementations cover email, SMS, or the
// log in development.
type Provider interface {
	Send(ctx context.Context, n Notice) error
}

// LogProvider writes notices to the log instead of delivering them.
type LogProvider struct {
	Logger *slog.Logger
}

func (p LogProvider) Send(_ context.Context, n Notice) error {
	p.Logger.Info("notice", "to", strings.Join(n.To, ","), "subject", n.Subject)
	return nil
}

// Service subscribes to registry events and dispatches notices.
type Service struct {
	provider  Provider
	directory cityhall.Directory
	barangay  config.BarangayConfig
	logger    *slog.Logger
}

func New(provider Provider, directory cityhall.Directory, barangay config.BarangayConfig, logger *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		directory: directory,
		barangay:  barangay,
		logger:    logger,
	}
}

// Start registers the event subscriptions. Delivery failures are
// logged, never propagated back to the publisher.
func (s *Service) Start(ctx context.Context, bus events.EventBus) error {
	if err := bus.Subscribe(ctx, "case.transferred", "notification", s.onCaseTransferred); err != nil {
		return fmt.Errorf("subscribe to case transfers: %w", err)
	}
	if err := bus.Subscribe(ctx, "docrequest.payment_link", "notification", s.onPaymentLink); err != nil {
		return fmt.Errorf("subscribe to payment links: %w", err)
	}
	return nil
}

type transferredRecord struct {
	CaseNumber   string             `json:"caseNumber"`
	Complainants []types.PersonName `json:"complainants"`
	Complainees  []types.PersonName `json:"complainees"`
	Fields       map[string]string  `json:"fields"`
}

type transferredData struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Record transferredRecord `json:"record"`
}

// onCaseTransferred prepares the patawag (summons) for the incoming
// hearing stage and sends it to every party with a known email.
func (s *Service) onCaseTransferred(ctx context.Context, event events.Event) error {
	var data transferredData
	if err := decodeData(event.Data, &data); err != nil {
		s.logger.Warn("malformed case.transferred event", "error", err)
		return nil
	}

	var recipients []string
	for _, p := range append(data.Record.Complainants, data.Record.Complainees...) {
		email, err := s.directory.FindResidentEmail(ctx, p)
		if err != nil {
			s.logger.Debug("no email on file", "name", p.Full())
			continue
		}
		recipients = append(recipients, email)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Patawag - Usapin Blg. %s", data.Record.CaseNumber)
	body := fmt.Sprintf(
		"Mula sa %s, %s.\n\nAng usaping Blg. %s ay inilipat sa yugtong %s. "+
			"Kayo ay aanyayahan sa susunod na pagdinig sa sandaling maitakda ang petsa.",
		s.barangay.Name, s.barangay.City, data.Record.CaseNumber, data.To)

	if err := s.provider.Send(ctx, Notice{To: recipients, Subject: subject, Body: body}); err != nil {
		s.logger.Error("failed to send summons notice", "case", data.Record.CaseNumber, "error", err)
	}
	return nil
}

type paymentLinkData struct {
	Requester   types.PersonName `json:"requester"`
	Email       string           `json:"email"`
	PaymentLink string           `json:"paymentLink"`
}

func (s *Service) onPaymentLink(ctx context.Context, event events.Event) error {
	var data paymentLinkData
	if err := decodeData(event.Data, &data); err != nil {
		s.logger.Warn("malformed payment link event", "error", err)
		return nil
	}
	if data.Email == "" {
		return nil
	}

	notice := Notice{
		To:      []string{data.Email},
		Subject: "Document Request Payment",
		Body: fmt.Sprintf("Magandang araw, %s!\n\nMaaring bayaran ang inyong hiniling na dokumento dito: %s\n\n%s, %s",
			data.Requester.Full(), data.PaymentLink, s.barangay.Name, s.barangay.City),
	}
	if err := s.provider.Send(ctx, notice); err != nil {
		s.logger.Error("failed to send payment notice", "to", data.Email, "error", err)
	}
	return nil
}

// decodeData converts event payloads through JSON so handlers see the
// same shape whether the event came over the wire or in process.
func decodeData(data any, target any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
