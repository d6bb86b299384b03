package domain

import (
	"net/mail"
	"regexp"
	"strings"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

const (
	MaxEmailLength    = 255
	MinNicknameLength = 3
	MaxNicknameLength = 20
	MinPasswordLength = 6
)

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func ValidateEmail(email string) error {
	switch {
	case strings.TrimSpace(email) == "":
		return svcerrors.Validation("Email is required").WithDetails("field", "email")
	case len(email) > MaxEmailLength:
		return svcerrors.Validation("Email is too long").WithDetails("field", "email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return svcerrors.Validation("Invalid email format").WithDetails("field", "email")
	}
	return nil
}

func ValidateNickname(nickname string) error {
	switch {
	case strings.TrimSpace(nickname) == "":
		return svcerrors.Validation("Nickname is required").WithDetails("field", "nickname")
	case len(nickname) < MinNicknameLength:
		return svcerrors.Validation("Nickname must be at least 3 characters").WithDetails("field", "nickname")
	case len(nickname) > MaxNicknameLength:
		return svcerrors.Validation("Nickname must be at most 20 characters").WithDetails("field", "nickname")
	case !nicknamePattern.MatchString(nickname):
		return svcerrors.Validation("Nickname can only contain letters, numbers, and underscores").WithDetails("field", "nickname")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return svcerrors.Validation("Password must be at least 6 characters").WithDetails("field", "password")
	}
	return nil
}
