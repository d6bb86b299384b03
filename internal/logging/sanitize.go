package logging

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	emailPattern    = regexp.MustCompile(`([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s-]{7,}\d`)
	passwordPattern = regexp.MustCompile(`(?i)("?password"?\s*[:=]\s*"?)[^",\s}]+`)
)

// MaskEmail keeps the first character of the local part and the domain.
//
//	MaskEmail("alice@example.com") == "a***@example.com"
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// Sanitize masks emails, phone numbers and password values in free text
// before it is written to a log.
func Sanitize(msg string) string {
	msg = passwordPattern.ReplaceAllString(msg, "${1}***")
	msg = emailPattern.ReplaceAllString(msg, "${1}***@${2}")
	msg = phonePattern.ReplaceAllString(msg, "***")
	return msg
}

// sanitizeHook masks personal data in the message and error of every entry.
// Structured fields are left alone; ids and codes never carry it.
type sanitizeHook struct{}

func (sanitizeHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (sanitizeHook) Fire(entry *logrus.Entry) error {
	entry.Message = Sanitize(entry.Message)
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok && err != nil {
		entry.Data[logrus.ErrorKey] = Sanitize(err.Error())
	}
	return nil
}
