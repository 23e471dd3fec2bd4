package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends notification emails via Amazon SES. Notifications are
// best-effort: engine operations never fail because an email could not be
// sent.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. When fromEmail is empty the
// service is created disabled and skips all sends.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendCoParentAdded notifies a parent that they were added to a family
func (s *EmailService) SendCoParentAdded(ctx context.Context, toEmail, toName, familyName string) error {
	subject := fmt.Sprintf("You've been added to the %s family", familyName)
	htmlBody := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Welcome to %s</h2>
	<p>Hi %s,</p>
	<p>You've been added as a co-parent of the <strong>%s</strong> family on ChorePoints.
	You can now manage tasks, rewards and claims for the family's children.</p>
	<p><a href="%s">Open ChorePoints</a></p>
</body>
</html>`, familyName, toName, familyName, s.appBaseURL)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nYou've been added as a co-parent of the %s family on ChorePoints.\n\nOpen %s to get started.\n",
		toName, familyName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendClaimReminder nudges a parent about an unfulfilled reward claim
func (s *EmailService) SendClaimReminder(ctx context.Context, toEmail, toName, childName, rewardTitle string) error {
	subject := fmt.Sprintf("%s is waiting for: %s", childName, rewardTitle)
	htmlBody := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<p>Hi %s,</p>
	<p><strong>%s</strong> sent a reminder about the reward <strong>%s</strong> they claimed.
	The points are already spent; only the real-world part is missing.</p>
	<p><a href="%s">Review claims</a></p>
</body>
</html>`, toName, childName, rewardTitle, s.appBaseURL)
	textBody := fmt.Sprintf(
		"Hi %s,\n\n%s sent a reminder about the claimed reward %q.\n\nReview claims at %s\n",
		toName, childName, rewardTitle, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %s to %s", subject, toEmail)
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
