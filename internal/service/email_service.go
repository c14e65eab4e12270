package service

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/i18n"
	"github.com/mdsrtech/internal/queue"
)

const smtpDialTimeout = 10 * time.Second

// Mailer 发送纯文本邮件
type Mailer interface {
	SendTextEmail(toEmail, subject, body string) error
}

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否启用并完成配置
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled && s.cfg.Host != "" && s.cfg.Port != 0 && s.cfg.From != ""
}

// SendTextEmail 发送纯文本邮件；收件人被拒返回 ErrEmailRecipientRejected
func (s *EmailService) SendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	client, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp connect failed: %w", err)
	}
	defer client.Close()

	if s.cfg.Username != "" || s.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}
	msg := buildEmailMessage(buildFromAddress(s.cfg.From, s.cfg.FromName), toEmail, subject, body)
	return classifySMTPError(deliver(client, s.cfg.From, toEmail, msg))
}

// dial 按配置建立连接：UseSSL 为隐式 TLS，UseTLS 为 STARTTLS
func (s *EmailService) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	tlsCfg := &tls.Config{ServerName: s.cfg.Host}

	var conn net.Conn
	var err error
	if s.cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if s.cfg.UseTLS && !s.cfg.UseSSL {
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

func deliver(client *smtp.Client, from, to string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildNotificationContent 渲染通知邮件标题与正文
func buildNotificationContent(payload queue.NotificationPayload) (string, string, error) {
	locale := i18n.NormalizeLocale(payload.Locale)
	name := strings.TrimSpace(payload.RecipientName)
	if name == "" {
		name = payload.Recipient
	}
	switch payload.Kind {
	case constants.NotifyKindOrderConfirmation:
		if payload.Order == nil {
			return "", "", fmt.Errorf("order snapshot missing for %s", payload.Kind)
		}
		order := payload.Order
		subject := i18n.Sprintf(locale, "email.order_confirmation.subject", order.OrderNo)
		body := i18n.Sprintf(locale, "email.order_confirmation.body",
			name,
			order.OrderNo,
			renderOrderLines(order.Items),
			FormatCents(order.SubtotalCents),
			FormatCents(order.ShippingCents),
			FormatCents(order.TaxCents),
			FormatCents(order.TotalCents),
			order.Currency,
		)
		return subject, body, nil
	case constants.NotifyKindOrderCancelled:
		if payload.Order == nil {
			return "", "", fmt.Errorf("order snapshot missing for %s", payload.Kind)
		}
		subject := i18n.Sprintf(locale, "email.order_cancelled.subject", payload.Order.OrderNo)
		body := i18n.Sprintf(locale, "email.order_cancelled.body", name, payload.Order.OrderNo, renderOrderLines(payload.Order.Items))
		return subject, body, nil
	case constants.NotifyKindPasswordReset:
		subject := i18n.T(locale, "email.password_reset.subject")
		body := i18n.Sprintf(locale, "email.password_reset.body", name, payload.Link)
		return subject, body, nil
	case constants.NotifyKindPasswordChanged:
		subject := i18n.T(locale, "email.password_changed.subject")
		body := i18n.Sprintf(locale, "email.password_changed.body", name)
		return subject, body, nil
	default:
		return "", "", fmt.Errorf("unknown notification kind: %s", payload.Kind)
	}
}

func renderOrderLines(items []queue.OrderLineSnapshot) string {
	var buf bytes.Buffer
	for _, item := range items {
		buf.WriteString(fmt.Sprintf("- %s x%d  %s\n", item.Title, item.Quantity, FormatCents(item.LineTotalCents)))
	}
	return buf.String()
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// classifySMTPError 550/551/553 视为收件人永久拒收，不再重试
func classifySMTPError(err error) error {
	if err == nil {
		return nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 550, 551, 553:
			return fmt.Errorf("%w: %s", ErrEmailRecipientRejected, protoErr.Msg)
		}
	}
	return err
}
