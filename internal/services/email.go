package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/gemchat-org/gemchat-backend/internal/logger"
)

type EmailService interface {
  SendWelcomeEmail(ctx context.Context, toEmail string, username string) error
}

type emailService struct {
  log                         *logger.Logger
  client                      *sendgrid.Client
  fromSupportEmail            string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("Service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  fromSupport := os.Getenv("SENDGRID_SUPPORT_EMAIL")
  if fromSupport == "" {
    serviceLog.Warn("SENDGRID_SUPPORT_EMAIL not set; using fallback no-reply@gemchat.app")
    fromSupport = "no-reply@gemchat.app"
  }
  client := sendgrid.NewSendClient(apiKey)

  return &emailService{
    log:                    serviceLog,
    client:                 client,
    fromSupportEmail:       fromSupport,
  }, nil
}

func (es *emailService) SendWelcomeEmail(ctx context.Context, toEmail string, username string) error {
  from := mail.NewEmail("Gemchat", es.fromSupportEmail)
  to := mail.NewEmail(username, toEmail)
  subject := "Welcome to Gemchat"
  plainText := fmt.Sprintf("Hi %s, your account is ready. Start a chat whenever you like.", username)
  htmlContent := fmt.Sprintf("<p>Hi %s, your account is ready. Start a chat whenever you like.</p>", username)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
