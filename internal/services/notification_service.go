// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/config"
	"github.com/wastetrack/wastetrack-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	template := s.getEmailTemplate("welcome")

	data := map[string]interface{}{
		"Name":         user.Name,
		"DashboardURL": fmt.Sprintf("%s/dashboard", s.config.Frontend.BaseURL),
	}

	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, template.Subject, body)
}

// SendRevisionRequestOpenedEmails tells the subscribed admins of every
// approving company that a revision now waits on them.
func (s *NotificationService) SendRevisionRequestOpenedEmails(request *RequestWithApprovals) error {
	template := s.getEmailTemplate("revision_opened")

	var firstErr error
	for _, approval := range request.PendingApprovals {
		for _, user := range approval.Subscribers {
			data := map[string]interface{}{
				"Name":        user.Name,
				"CompanyName": approval.Company.Name,
				"FormID":      request.Request.FormID,
				"Comment":     request.Request.Comment,
				"ReviewURL":   fmt.Sprintf("%s/forms/%s/revisions", s.config.Frontend.BaseURL, request.Request.FormID),
			}
			body, err := s.renderTemplate(template.Body, data)
			if err != nil {
				return fmt.Errorf("failed to render email template: %w", err)
			}
			if err := s.sendEmail(user.Email, template.Subject, body); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SendPendingRevisionReminders sends the daily digest for revision requests
// still pending after a day. One email per subscribed admin per request; a
// single refused address never blocks the remainder of the batch.
func (s *NotificationService) SendPendingRevisionReminders(requests []RequestWithApprovals) (int, error) {
	template := s.getEmailTemplate("revision_reminder")

	sent := 0
	failures := 0
	for _, request := range requests {
		for _, approval := range request.PendingApprovals {
			for _, user := range approval.Subscribers {
				data := map[string]interface{}{
					"Name":        user.Name,
					"CompanyName": approval.Company.Name,
					"FormID":      request.Request.FormID,
					"Comment":     request.Request.Comment,
					"ReviewURL":   fmt.Sprintf("%s/forms/%s/revisions", s.config.Frontend.BaseURL, request.Request.FormID),
				}
				body, err := s.renderTemplate(template.Body, data)
				if err != nil {
					return sent, fmt.Errorf("failed to render email template: %w", err)
				}
				if err := s.sendEmail(user.Email, template.Subject, body); err != nil {
					failures++
					logrus.WithError(err).WithFields(logrus.Fields{
						"email":      user.Email,
						"request_id": request.Request.ID,
					}).Error("Failed to send revision reminder")
					continue
				}
				sent++
			}
		}
	}

	if failures > 0 {
		return sent, fmt.Errorf("%d reminder emails failed to send", failures)
	}
	return sent, nil
}

// SendRevisionResolvedEmail tells the author how their request ended.
func (s *NotificationService) SendRevisionResolvedEmail(author *models.User, request *models.RevisionRequest) error {
	template := s.getEmailTemplate("revision_resolved")

	outcome := "accepted"
	if request.Status == models.RevisionRequestStatusRefused {
		outcome = "refused"
	}

	data := map[string]interface{}{
		"Name":    author.Name,
		"FormID":  request.FormID,
		"Outcome": outcome,
		"FormURL": fmt.Sprintf("%s/forms/%s", s.config.Frontend.BaseURL, request.FormID),
	}

	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(author.Email, template.Subject, body)
}

// SendMembershipAddedEmail confirms a new company membership to the user.
func (s *NotificationService) SendMembershipAddedEmail(user *models.User, company *models.Company) error {
	if !user.NotifyMembershipRequests {
		return nil
	}

	template := s.getEmailTemplate("membership_added")

	data := map[string]interface{}{
		"Name":        user.Name,
		"CompanyName": company.Name,
		"Siret":       company.Siret,
	}

	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, template.Subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, skipping send")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Bienvenue sur WasteTrack",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Bienvenue {{.Name}} !</h2>
	<p>Votre compte WasteTrack est actif. Vous pouvez suivre vos bordereaux depuis votre tableau de bord :</p>
	<a href="{{.DashboardURL}}">Accéder au tableau de bord</a>
	<p>L'équipe WasteTrack</p>
</body>
</html>`,
		},
		"revision_opened": {
			Subject: "Demande de révision à valider",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Bonjour {{.Name}},</h2>
	<p>Une révision du bordereau {{.FormID}} attend la validation de {{.CompanyName}}.</p>
	<p>Motif : {{.Comment}}</p>
	<a href="{{.ReviewURL}}">Examiner la demande</a>
	<p>L'équipe WasteTrack</p>
</body>
</html>`,
		},
		"revision_reminder": {
			Subject: "Demande de révision toujours en attente",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Bonjour {{.Name}},</h2>
	<p>La révision du bordereau {{.FormID}} attend toujours la validation de {{.CompanyName}} depuis hier.</p>
	<p>Motif : {{.Comment}}</p>
	<a href="{{.ReviewURL}}">Examiner la demande</a>
	<p>L'équipe WasteTrack</p>
</body>
</html>`,
		},
		"revision_resolved": {
			Subject: "Demande de révision résolue",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Bonjour {{.Name}},</h2>
	<p>Votre demande de révision du bordereau {{.FormID}} a été {{.Outcome}}.</p>
	<a href="{{.FormURL}}">Voir le bordereau</a>
	<p>L'équipe WasteTrack</p>
</body>
</html>`,
		},
		"membership_added": {
			Subject: "Vous avez rejoint un établissement",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Bonjour {{.Name}},</h2>
	<p>Vous êtes maintenant membre de {{.CompanyName}} (SIRET {{.Siret}}) sur WasteTrack.</p>
	<p>L'équipe WasteTrack</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}
	return EmailTemplate{Subject: "WasteTrack", Body: "<p>{{.Name}}</p>"}
}
