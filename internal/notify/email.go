package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/pkg/models"
)

// EmailNotifier отправляет сигнал письмом через SMTP с STARTTLS.
// Без пользователя, пароля или получателя канал ничего не делает.
type EmailNotifier struct {
	cfg       config.EmailConfig
	tlsConfig *tls.Config
}

// NewEmailNotifier создает почтовый канал
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.SMTPHost},
	}
}

func (e *EmailNotifier) Name() string { return "email" }

// Enabled сообщает, будет ли письмо реально отправлено
func (e *EmailNotifier) Enabled() bool {
	return e.cfg.Enabled()
}

// Send отправляет письмо о сигнале
func (e *EmailNotifier) Send(ctx context.Context, signal *models.Signal) error {
	if !e.Enabled() {
		return nil
	}

	addr := net.JoinHostPort(e.cfg.SMTPHost, strconv.Itoa(e.cfg.SMTPPort))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("ошибка подключения к SMTP %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	c, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ошибка SMTP-приветствия: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errors.New("SMTP-сервер не поддерживает STARTTLS")
	}
	if err := c.StartTLS(e.tlsConfig); err != nil {
		return fmt.Errorf("ошибка STARTTLS: %w", err)
	}
	if err := c.Auth(smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("ошибка авторизации SMTP: %w", err)
	}
	if err := c.Mail(e.cfg.User); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	if err := c.Rcpt(e.cfg.To); err != nil {
		return fmt.Errorf("ошибка RCPT TO: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("ошибка DATA: %w", err)
	}
	if _, err := w.Write(composeMessage(e.cfg.User, e.cfg.To, signal)); err != nil {
		w.Close()
		return fmt.Errorf("ошибка записи письма: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}

	return c.Quit()
}

// Subject тема письма: "<type> <symbol> (<timeframe>)"
func Subject(signal *models.Signal) string {
	return fmt.Sprintf("%s %s (%s)", signal.Type, signal.Symbol, signal.Timeframe)
}

// composeMessage собирает текстовое письмо с заголовками
func composeMessage(from, to string, signal *models.Signal) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: AlphaScanner Signal: " + Subject(signal) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("AlphaScanner Signal Alert\r\n")
	b.WriteString("-------------------------\r\n")
	fmt.Fprintf(&b, "Type: %s\r\n", signal.Type)
	fmt.Fprintf(&b, "Symbol: %s\r\n", signal.Symbol)
	fmt.Fprintf(&b, "Timeframe: %s\r\n", signal.Timeframe)
	fmt.Fprintf(&b, "Price: %s\r\n", price(signal.Price))
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Reason: %s\r\n", signal.Reason)
	b.WriteString("\r\n")
	b.WriteString("Setup:\r\n")
	fmt.Fprintf(&b, "- Stop Loss: %s\r\n", price(signal.SetupZones.StopLoss))
	fmt.Fprintf(&b, "- Take Profit: %s\r\n", price(signal.SetupZones.TakeProfit))

	return []byte(b.String())
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
