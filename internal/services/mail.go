package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"

	"go.uber.org/zap"
)

// MailService sends notification email over plain SMTP. Fully env-gated; with
// any SMTP variable missing the service is disabled and sends are silent
// no-ops, so local development needs no mail server.
type MailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	enabled  bool
	logger   *zap.Logger
}

func NewMailService(logger *zap.Logger) *MailService {
	s := &MailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		username: os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("SMTP_FROM"),
		logger:   logger,
	}
	s.enabled = s.host != "" && s.port != "" && s.username != "" && s.password != "" && s.from != ""
	if !s.enabled {
		logger.Warn("mail service disabled, missing SMTP environment variables")
	}
	return s
}

var replyTemplate = template.Must(template.New("reply").Parse(`
<p>Hi {{.Recipient}},</p>
<p><strong>{{.ActiveUser}}</strong> replied to your comment on <strong>{{.IdeaTitle}}</strong>:</p>
<blockquote>{{.ReplyContent}}</blockquote>
<p>Your comment:</p>
<blockquote>{{.OriginalContent}}</blockquote>
`))

// SendReplyNotification tells a comment author someone replied to them.
func (s *MailService) SendReplyNotification(email, recipient, activeUser, ideaTitle, replyContent, originalContent string) {
	var buf bytes.Buffer
	err := replyTemplate.Execute(&buf, map[string]string{
		"Recipient":       recipient,
		"ActiveUser":      activeUser,
		"IdeaTitle":       ideaTitle,
		"ReplyContent":    replyContent,
		"OriginalContent": originalContent,
	})
	if err != nil {
		s.logger.Error("could not render reply notification", zap.Error(err))
		return
	}
	subject := fmt.Sprintf("%s replied to your comment on %q", activeUser, ideaTitle)
	s.sendAsync([]string{email}, subject, buf.String())
}

func (s *MailService) sendAsync(to []string, subject, body string) {
	if !s.enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		addr := fmt.Sprintf("%s:%s", s.host, s.port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: IdeaHub <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.from, subject, mime, body))

		if err := smtp.SendMail(addr, auth, s.from, to, msg); err != nil {
			s.logger.Error("failed to send email", zap.Strings("to", to), zap.Error(err))
			return
		}
		s.logger.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
}
