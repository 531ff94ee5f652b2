package models

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
	PasswordMinLen = 6
	// bcrypt ignores everything past 72 bytes.
	PasswordMaxLen = 72
	NameMaxLen     = 50
	BioMaxLen      = 160
	TextMaxLen     = 280
	MediaMaxItems  = 4
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

type fieldErrors []apperr.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Invalid(f)
}

func ValidateRegister(in RegisterInput) error {
	var errs fieldErrors
	validateUsername(&errs, in.Username)
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, "<> ") {
		errs.add("email", "must be a valid email address")
	}
	validatePassword(&errs, in.Password)
	validateLength(&errs, "name", in.Name, NameMaxLen)
	return errs.err()
}

func ValidateLogin(in LoginInput) error {
	var errs fieldErrors
	if strings.TrimSpace(in.Username) == "" {
		errs.add("username", "is required")
	}
	if in.Password == "" {
		errs.add("password", "is required")
	}
	return errs.err()
}

func ValidateUserPatch(p UserPatch) error {
	var errs fieldErrors
	if p.Empty() {
		errs.add("input", "at least one field must be provided")
	}
	if p.Name != nil {
		validateLength(&errs, "name", *p.Name, NameMaxLen)
	}
	if p.Bio != nil {
		validateLength(&errs, "bio", *p.Bio, BioMaxLen)
	}
	if p.ProfileImage != nil && *p.ProfileImage != "" && !isHTTPURL(*p.ProfileImage) {
		errs.add("profileImage", "must be an absolute http(s) URL")
	}
	if p.CoverImage != nil && *p.CoverImage != "" && !isHTTPURL(*p.CoverImage) {
		errs.add("coverImage", "must be an absolute http(s) URL")
	}
	return errs.err()
}

func ValidateTweet(in TweetInput) error {
	var errs fieldErrors
	validateText(&errs, "text", in.Text)
	validateMedia(&errs, in.Media)
	return errs.err()
}

func ValidateTweetPatch(p TweetPatch) error {
	var errs fieldErrors
	if p.Text == nil && p.Media == nil {
		errs.add("input", "text or media must be provided")
	}
	if p.Text != nil {
		validateText(&errs, "text", *p.Text)
	}
	if p.Media != nil {
		validateMedia(&errs, *p.Media)
	}
	return errs.err()
}

func ValidateCommentText(text string) error {
	var errs fieldErrors
	validateText(&errs, "text", text)
	return errs.err()
}

func validateUsername(errs *fieldErrors, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n < UsernameMinLen || n > UsernameMaxLen:
		errs.add("username", "must be between 3 and 30 characters")
	case !usernamePattern.MatchString(username):
		errs.add("username", "may only contain letters, digits, '_' and '.'")
	}
}

func validatePassword(errs *fieldErrors, password string) {
	switch {
	case len(password) < PasswordMinLen:
		errs.add("password", "must be at least 6 characters")
	case len(password) > PasswordMaxLen:
		errs.add("password", "must be at most 72 bytes")
	}
}

func validateLength(errs *fieldErrors, field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		errs.add(field, "is too long")
	}
}

func validateText(errs *fieldErrors, field, text string) {
	if strings.TrimSpace(text) == "" {
		errs.add(field, "must not be empty")
		return
	}
	if utf8.RuneCountInString(text) > TextMaxLen {
		errs.add(field, "must be at most 280 characters")
	}
}

func validateMedia(errs *fieldErrors, media []string) {
	if len(media) > MediaMaxItems {
		errs.add("media", "at most 4 items are allowed")
	}
	for _, m := range media {
		if !isHTTPURL(m) {
			errs.add("media", "must contain absolute http(s) URLs")
			return
		}
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
