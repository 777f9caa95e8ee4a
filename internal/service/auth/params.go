package auth

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
)

// RegisterParams is the input of Register. Only the email gets a format
// check here, the password floor is not enforced at registration.
type RegisterParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required" label:"Full name"`
	Role     string `json:"role" validate:"required"`
}

type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`

	// Client info recorded in the login audit row
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type ResetPasswordParams struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required" label:"Reset token"`
	NewPassword string `json:"new_password" validate:"required" label:"New password"`
}

type AssignRoleParams struct {
	UserID   string `json:"user_id" validate:"required" label:"User ID"`
	RoleName string `json:"role_name" validate:"required" label:"Role name"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Error messages name fields after the 'label' tag if present,
	// otherwise after the json tag
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// checkParams validates a params struct and converts validator errors into
// the itemized ValidationError the flows return to callers
func checkParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(errs))
	for _, fieldError := range errs {
		switch fieldError.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required.", humanize(fieldError.Field())))
		case "email":
			messages = append(messages, "Invalid email format.")
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid.", humanize(fieldError.Field())))
		}
	}

	return &apperrors.ValidationError{Messages: messages}
}

// requiredField builds the presence message for ad-hoc single values
// (refresh secrets and role names arrive as bare strings, not structs)
func requiredField(value string, label string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &apperrors.ValidationError{Messages: []string{fmt.Sprintf("%s is required.", label)}}
}

func humanize(field string) string {
	name := strings.ReplaceAll(field, "_", " ")
	if name == "" {
		return name
	}

	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
