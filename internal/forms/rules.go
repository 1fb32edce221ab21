package forms

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

var rules = map[string]validator.Func{
	"digits":   digits,
	"minwords": minWords,
	"address":  address,
	"robust":   robust,
	"rolename": roleName,
}

func param(fl validator.FieldLevel) int {
	n, _ := strconv.Atoi(fl.Param())
	return n
}

// Empty values pass every custom rule; "required" covers them.

func digits(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	if v == "" {
		return true
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(v) >= param(fl)
}

func minWords(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	if v == "" {
		return true
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return len(strings.Fields(v)) >= param(fl)
}

func address(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	if v == "" {
		return true
	}
	return strings.IndexFunc(v, unicode.IsLetter) >= 0 &&
		strings.IndexFunc(v, unicode.IsDigit) >= 0 &&
		len([]rune(v)) >= param(fl)
}

func robust(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return true
	}
	var upper, lower, digit, symbol bool
	for _, r := range v {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol && len(v) >= param(fl)
}

// roleName accepts UPPER_SNAKE names only.
func roleName(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return true
	}
	for _, r := range v {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("Minimum %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum %s characters", fe.Param())
	case "numeric":
		return "Only numbers are allowed"
	case "digits":
		return fmt.Sprintf("Only numbers are allowed (minimum %s digits)", fe.Param())
	case "minwords":
		return fmt.Sprintf("Enter at least %s words", fe.Param())
	case "address":
		return fmt.Sprintf("Enter a valid address, e.g. Street 10 #20-30 (minimum %s characters)", fe.Param())
	case "robust":
		return fmt.Sprintf("Your password must have at least %s characters and include an uppercase letter, a number and a symbol", fe.Param())
	case "rolename":
		return "The role must be UPPERCASE with underscores (e.g. SUPER_ADMIN)"
	default:
		return "Something went wrong, please try again later"
	}
}
