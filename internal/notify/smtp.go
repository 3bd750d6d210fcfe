package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

const completionSubject = "Task Completion Notification for Approval"

// SMTPSender delivers completion notices over plain SMTP. Messages
// without a recipient go to the configured fallback address.
type SMTPSender struct {
	addr     string
	from     string
	fallback string
}

func NewSMTPSender(addr, from, fallback string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from, fallback: fallback}
}

func (s *SMTPSender) Send(msg Message) error {
	to := msg.Recipient
	if to == "" {
		to = s.fallback
	}
	if to == "" {
		return fmt.Errorf("no recipient for task %s", msg.TaskID)
	}

	body := fmt.Sprintf(
		"This is to inform you that the task %q has been completed. It is now ready for your review and approval.",
		msg.TaskName,
	)
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", completionSubject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender is the no-SMTP stand-in used when mail is not configured.
type LogSender struct {
	Log func(msg Message)
}

func (l *LogSender) Send(msg Message) error {
	if l.Log != nil {
		l.Log(msg)
	}
	return nil
}
