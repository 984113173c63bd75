package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/stayloop/rooms-service/internal/models"
	"github.com/stayloop/rooms-service/internal/utils"
)

// GuestNotifier sends booking confirmations to the guest. Implementations
// are best-effort; a delivery failure never fails the booking.
type GuestNotifier interface {
	SendBookingConfirmation(ctx context.Context, hotel *models.Hotel, res *models.Reservation)
}

// NopGuestNotifier is used in tests and when no messaging credentials are
// configured.
type NopGuestNotifier struct{}

func (NopGuestNotifier) SendBookingConfirmation(context.Context, *models.Hotel, *models.Reservation) {
}

// GuestNotificationService delivers confirmations over SMS (Twilio) and
// email (SendGrid). Either channel is skipped when the guest left the
// corresponding contact field blank.
type GuestNotificationService struct {
	twilioClient   *twilio.RestClient
	sendgridAPIKey string

	fromPhone   string
	fromEmail   string
	sandboxMode bool
}

func NewGuestNotificationService(
	twilioAccountSID, twilioAuthToken, fromPhone string,
	sendgridAPIKey, fromEmail string,
	sandboxMode bool,
) *GuestNotificationService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: twilioAccountSID,
		Password: twilioAuthToken,
	})
	return &GuestNotificationService{
		twilioClient:   client,
		sendgridAPIKey: sendgridAPIKey,
		fromPhone:      fromPhone,
		fromEmail:      fromEmail,
		sandboxMode:    sandboxMode,
	}
}

func (s *GuestNotificationService) SendBookingConfirmation(ctx context.Context, hotel *models.Hotel, res *models.Reservation) {
	loc := hotel.Location()
	checkIn := res.CheckIn.In(loc).Format("Mon, 02 Jan 2006")
	checkOut := res.CheckOut.In(loc).Format("Mon, 02 Jan 2006")

	if res.Phone != "" {
		body := fmt.Sprintf(
			"%s: your booking for %s room %s is confirmed. Check-in %s, check-out %s.",
			hotel.Name, res.RoomType, res.RoomNo, checkIn, checkOut,
		)
		if err := s.sendSMS(res.Phone, body); err != nil {
			utils.Logger.WithError(err).WithField("reservation_id", res.ID).
				Error("Failed to send confirmation SMS")
		}
	}

	if res.Email != "" {
		subject := fmt.Sprintf("Booking confirmed at %s", hotel.Name)
		plain := fmt.Sprintf(
			"Dear %s,\n\nYour booking is confirmed.\n\nRoom: %s (%s), room no. %s\nCheck-in: %s\nCheck-out: %s\nNights: %d\nTotal: %.2f\n\nWe look forward to hosting you.\n%s",
			res.GuestName, res.RoomType, res.RatePlan, res.RoomNo,
			checkIn, checkOut, res.Nights, res.TotalAmount, hotel.Name,
		)
		if err := s.sendEmail(res.GuestName, res.Email, subject, plain); err != nil {
			utils.Logger.WithError(err).WithField("reservation_id", res.ID).
				Error("Failed to send confirmation email")
		}
	}
}

func (s *GuestNotificationService) sendSMS(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromPhone)
	params.SetBody(body)

	_, err := s.twilioClient.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

func (s *GuestNotificationService) sendEmail(toName, toAddr, subject, plain string) error {
	from := mail.NewEmail("Reservations", s.fromEmail)
	to := mail.NewEmail(toName, toAddr)
	message := mail.NewSingleEmail(from, subject, to, plain, "")
	if s.sandboxMode {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		message.SetMailSettings(settings)
	}

	client := sendgrid.NewSendClient(s.sendgridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, resp.StatusCode)
	}
	return nil
}
