package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"time"

	gomail "gopkg.in/mail.v2"

	"reel-deck/stats"
	"reel-deck/storage"
)

// EmailNotifier sends the weekly watchlist digest email.
type EmailNotifier struct {
	smtpHost       string
	smtpPort       int
	senderEmail    string
	senderPass     string
	recipientEmail string
	htmlTemplate   *template.Template
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	tmpl, err := template.New("digest").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reel Deck - Weekly Digest</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #e50914; }
        h2 { color: #0071c5; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .film { background-color: #fff3e0; }
        .series { background-color: #e3f2fd; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
        .count { font-weight: bold; color: #e50914; }
    </style>
</head>
<body>
    <h1>Reel Deck - Weekly Digest</h1>
    <p>Here is what happened in your watchlists for the week ending {{.Date}}.</p>

    {{if .Additions}}
    <h2>New Watchlist Additions ({{len .Additions}})</h2>
    <table>
        <tr>
            <th>Title</th>
            <th>Kind</th>
            <th>Watchlist</th>
            <th>Added By</th>
        </tr>
        {{range .Additions}}
        <tr class="{{.Item.Kind}}">
            <td>{{.Item.Title}}</td>
            <td>{{.Item.Kind}}</td>
            <td>{{.ListName}}</td>
            <td>{{.Item.AddedBy}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p>No new watchlist additions this week.</p>
    {{end}}

    <h2>Viewing This Week</h2>
    <p>Watched <span class="count">{{.Summary.ThisWeek.Count}}</span> title(s)
       totalling <span class="count">{{.Summary.ThisWeek.Minutes}}</span> minutes.</p>

    {{if .Picks}}
    <h2>Popular Right Now</h2>
    <table>
        <tr>
            <th>Title</th>
            <th>Score</th>
        </tr>
        {{range .Picks}}
        <tr>
            <td>{{.Title}}</td>
            <td>{{printf "%.1f" .VoteAverage}}/10</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <div class="footer">
        <p>This is an automated email from Reel Deck. Please do not reply.</p>
    </div>
</body>
</html>
`)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %v", err)
	}

	return &EmailNotifier{
		smtpHost:       config.SMTPHost,
		smtpPort:       config.SMTPPort,
		senderEmail:    config.SenderEmail,
		senderPass:     config.SenderPassword,
		recipientEmail: config.RecipientEmail,
		htmlTemplate:   tmpl,
	}, nil
}

// GetEmailConfigFromEnv loads email configuration from environment variables
func GetEmailConfigFromEnv() EmailConfig {
	// Parse SMTP port with default value of 587 if not specified or invalid
	smtpPort := 587
	if portStr := os.Getenv("EMAIL_SMTP_PORT"); portStr != "" {
		if n, err := fmt.Sscanf(portStr, "%d", &smtpPort); err != nil || n != 1 {
			log.Printf("Invalid SMTP port '%s', using default 587", portStr)
			smtpPort = 587
		}
	}

	return EmailConfig{
		SMTPHost:       os.Getenv("EMAIL_SMTP_HOST"),
		SMTPPort:       smtpPort,
		SenderEmail:    os.Getenv("EMAIL_SENDER"),
		SenderPassword: os.Getenv("EMAIL_PASSWORD"),
		RecipientEmail: os.Getenv("EMAIL_RECIPIENT"),
	}
}

// DigestPick is a trending title highlighted at the bottom of the digest.
type DigestPick struct {
	Title       string
	VoteAverage float64
}

// SendWeeklyDigest emails the week's watchlist additions, viewing totals and
// a handful of trending picks.
func (n *EmailNotifier) SendWeeklyDigest(additions []storage.WatchlistAddition, summary stats.Summary, picks []DigestPick) error {
	if n.recipientEmail == "" {
		log.Println("No recipient email configured, skipping digest")
		return nil
	}

	data := struct {
		Date      string
		Additions []storage.WatchlistAddition
		Summary   stats.Summary
		Picks     []DigestPick
	}{
		Date:      time.Now().Format("January 2, 2006"),
		Additions: additions,
		Summary:   summary,
		Picks:     picks,
	}

	var emailBody bytes.Buffer
	if err := n.htmlTemplate.Execute(&emailBody, data); err != nil {
		return fmt.Errorf("failed to render email template: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Reel Deck: %d new watchlist addition(s) this week", len(additions)))

	plainText := fmt.Sprintf(
		"Reel Deck Weekly Digest\n\n"+
			"Week ending %s.\n"+
			"New watchlist additions: %d\n"+
			"Watched this week: %d title(s), %d minutes\n\n"+
			"This is an automated email from Reel Deck. Please do not reply.",
		data.Date, len(additions), summary.ThisWeek.Count, summary.ThisWeek.Minutes)

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", emailBody.String())

	d := gomail.NewDialer(n.smtpHost, n.smtpPort, n.senderEmail, n.senderPass)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.Printf("Digest email sent to %s with %d addition(s)", n.recipientEmail, len(additions))
	return nil
}
