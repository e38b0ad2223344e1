package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// emailSender is satisfied by *sendgrid.Client.
type emailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// smsSender is satisfied by twilio's *ApiService.
type smsSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// NewClaimNotifier wires email (SendGrid) and, when an operator phone is
// configured, SMS (Twilio) notifications.
func NewClaimNotifier(cfg *config.Config) ClaimNotifier {
	notifiers := []ClaimNotifier{
		newEmailClaimNotifier(sendgrid.NewSendClient(cfg.SendgridAPIKey), cfg),
	}
	if cfg.LDFlag_ClaimOperatorAlertPhone != "" && cfg.LDFlag_TwilioFromPhone != "" {
		tw := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
		notifiers = append(notifiers, newSMSClaimNotifier(tw.Api, cfg.LDFlag_TwilioFromPhone, cfg.LDFlag_ClaimOperatorAlertPhone))
	}
	return multiNotifier(notifiers)
}

// ---------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------

type multiNotifier []ClaimNotifier

// Send calls every notifier even if an earlier one fails.
func (m multiNotifier) Send(ctx context.Context, event ClaimEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------
// Email
// ---------------------------------------------------------------------

type emailClaimNotifier struct {
	client        emailSender
	orgName       string
	fromEmail     string
	operatorEmail string
	sandbox       bool
}

func newEmailClaimNotifier(client emailSender, cfg *config.Config) *emailClaimNotifier {
	return &emailClaimNotifier{
		client:        client,
		orgName:       cfg.OrganizationName,
		fromEmail:     cfg.LDFlag_SendgridFromEmail,
		operatorEmail: cfg.LDFlag_ClaimOperatorAlertEmail,
		sandbox:       cfg.LDFlag_SendgridSandboxMode,
	}
}

func (n *emailClaimNotifier) Send(ctx context.Context, event ClaimEvent) error {
	var errs []error

	name := html.EscapeString(event.BusinessName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received your claim for <strong>%s</strong>. Our team will review it and email you once it is approved.</p>",
		html.EscapeString(event.FirstName), name,
	)
	if err := n.send(ctx, event.Email, n.orgName+" - We received your claim",
		fmt.Sprintf("We received your claim for %s. We will email you once it is reviewed.", event.BusinessName),
		fmt.Sprintf(claimReceivedEmailHTML, "Claim received", body, n.orgName, time.Now().Year()),
	); err != nil {
		errs = append(errs, err)
	}

	if n.operatorEmail != "" {
		edited := "no"
		if event.WasEdited {
			edited = "yes"
		}
		details := fmt.Sprintf(
			"<ul><li><strong>Business:</strong> %s</li><li><strong>Business ID:</strong> %s</li><li><strong>Tenant:</strong> %s</li><li><strong>Claimant:</strong> %s %s (%s)</li><li><strong>Edited details:</strong> %s</li><li><strong>Claim ID:</strong> %s</li></ul>",
			name, event.BusinessID, html.EscapeString(event.Tenant),
			html.EscapeString(event.FirstName), html.EscapeString(event.LastName), html.EscapeString(event.Email),
			edited, event.ClaimID,
		)
		if err := n.send(ctx, n.operatorEmail, fmt.Sprintf("[%s] New claim for %s", event.Tenant, event.BusinessName),
			fmt.Sprintf("New claim %s for %s (%s) by %s", event.ClaimID, event.BusinessName, event.BusinessID, event.Email),
			fmt.Sprintf(operatorAlertEmailHTML, "New business claim awaiting review", details, n.orgName, time.Now().Year()),
		); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		notificationFailures.WithLabelValues("email").Inc()
		return fmt.Errorf("%w: %w", utils.ErrNotificationFailed, errors.Join(errs...))
	}
	return nil
}

func (n *emailClaimNotifier) send(ctx context.Context, toAddr, subject, plain, htmlContent string) error {
	from := mail.NewEmail(n.orgName, n.fromEmail)
	to := mail.NewEmail("", toAddr)
	message := mail.NewSingleEmail(from, subject, to, plain, htmlContent)

	if n.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toAddr, err)
	}
	if resp != nil && resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send to %s: status %d", toAddr, resp.StatusCode)
	}
	return nil
}

// ---------------------------------------------------------------------
// SMS
// ---------------------------------------------------------------------

type smsClaimNotifier struct {
	client smsSender
	from   string
	to     string
}

func newSMSClaimNotifier(client smsSender, from, to string) *smsClaimNotifier {
	return &smsClaimNotifier{client: client, from: from, to: to}
}

func (n *smsClaimNotifier) Send(ctx context.Context, event ClaimEvent) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(fmt.Sprintf("New claim for %s (%s) by %s", event.BusinessName, event.Tenant, event.Email))

	if err := n.create(ctx, params); err != nil {
		notificationFailures.WithLabelValues("sms").Inc()
		utils.Logger.WithFields(logrus.Fields{
			"business_id": event.BusinessID.String(),
		}).WithError(err).Warn("Operator SMS alert failed")
		return fmt.Errorf("%w: twilio: %w", utils.ErrNotificationFailed, err)
	}
	return nil
}

// create bounds the Twilio call by ctx. The twilio client takes no
// context, so an abandoned call finishes in the background.
func (n *smsClaimNotifier) create(ctx context.Context, params *twilioApi.CreateMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := n.client.CreateMessage(params)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
