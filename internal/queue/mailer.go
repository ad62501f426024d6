package queue

import (
    "bytes"
    "context"
    "crypto/tls"
    "embed"
    "fmt"
    "html/template"
    "net"
    "net/smtp"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var subjects = map[EmailKind]string{
    KindActivation:            "Activate your Online Cinema account",
    KindActivationComplete:    "Your Online Cinema account is active",
    KindPasswordReset:         "Reset your Online Cinema password",
    KindPasswordResetComplete: "Your Online Cinema password was changed",
}

// Message is a rendered email.
type Message struct {
    To      string
    Subject string
    HTML    string
    Link    string
}

// Mailer delivers rendered emails.
type Mailer interface {
    Send(ctx context.Context, m Message) error
}

// Compose renders the template for ev.Kind.
func Compose(ev NotificationEvent) (Message, error) {
    subject, ok := subjects[ev.Kind]
    if !ok {
        return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
    }
    var buf bytes.Buffer
    err := templates.ExecuteTemplate(&buf, string(ev.Kind)+".html", map[string]string{
        "Email": ev.Recipient,
        "Link":  ev.Link,
    })
    if err != nil {
        return Message{}, fmt.Errorf("render %s: %w", ev.Kind, err)
    }
    return Message{To: ev.Recipient, Subject: subject, HTML: buf.String(), Link: ev.Link}, nil
}

// SMTPMailer sends mail through an SMTP relay, upgrading to STARTTLS when
// the server offers it.
type SMTPMailer struct {
    Host     string
    Port     string
    User     string
    Password string
    From     string
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
    addr := net.JoinHostPort(s.Host, s.Port)

    dialer := net.Dialer{Timeout: 8 * time.Second}
    conn, err := dialer.DialContext(ctx, "tcp", addr)
    if err != nil {
        return err
    }
    deadline := time.Now().Add(15 * time.Second)
    if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
        deadline = d
    }
    _ = conn.SetDeadline(deadline)

    c, err := smtp.NewClient(conn, s.Host)
    if err != nil {
        _ = conn.Close()
        return err
    }
    defer func() { _ = c.Quit() }()

    if ok, _ := c.Extension("STARTTLS"); ok {
        if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
            return err
        }
    }
    if s.User != "" {
        if err := c.Auth(smtp.PlainAuth("", s.User, s.Password, s.Host)); err != nil {
            return err
        }
    }
    if err := c.Mail(s.From); err != nil {
        return err
    }
    if err := c.Rcpt(m.To); err != nil {
        return err
    }
    w, err := c.Data()
    if err != nil {
        return err
    }
    if _, err := w.Write(s.buildMessage(m)); err != nil {
        _ = w.Close()
        return err
    }
    return w.Close()
}

func (s *SMTPMailer) buildMessage(m Message) []byte {
    return []byte(strings.Join([]string{
        "From: " + s.From,
        "To: " + m.To,
        "Subject: " + m.Subject,
        "MIME-Version: 1.0",
        `Content-Type: text/html; charset="UTF-8"`,
        "",
        m.HTML,
    }, "\r\n"))
}

// FileMailer appends one line per email to a local file. It stands in for
// SMTP in development so links can be copied from logs/mail.log.
type FileMailer struct {
    Path string
    now  func() time.Time
    mu   sync.Mutex
}

func NewFileMailer(path string) *FileMailer {
    return &FileMailer{Path: path, now: func() time.Time { return time.Now().UTC() }}
}

func (f *FileMailer) Send(_ context.Context, m Message) error {
    f.mu.Lock()
    defer f.mu.Unlock()

    if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open mail log: %w", err)
    }
    defer fh.Close()

    line := fmt.Sprintf("[%s] to=%s | subject=%q | link=%s\n",
        f.now().Format(time.RFC3339), m.To, m.Subject, m.Link)
    if _, err := fh.WriteString(line); err != nil {
        return fmt.Errorf("write mail log: %w", err)
    }
    return nil
}
