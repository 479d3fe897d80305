// Package forms validates user input before it is sent to the API. Rules
// are validator/v10 struct tags; failures come back as FieldErrors keyed by
// the JSON name of the field.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gobarber/gobarber/internal/cli/client"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a field name to the first message for that field
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe[field]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks every rule on form and returns FieldErrors listing all
// failing fields, or nil
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// SignIn is the sign-in form
type SignIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUp is the account creation form
type SignUp struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// Request converts the form into the API body
func (f SignUp) Request() client.CreateUserRequest {
	return client.CreateUserRequest{Name: f.Name, Email: f.Email, Password: f.Password}
}

// ForgotPassword is the recovery request form
type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPassword is the new-password form reached from the recovery mail
type ResetPassword struct {
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	Token                string `json:"token" validate:"required"`
}

// Request converts the form into the API body
func (f ResetPassword) Request() client.ResetPasswordRequest {
	return client.ResetPasswordRequest{
		Password:             f.Password,
		PasswordConfirmation: f.PasswordConfirmation,
		Token:                f.Token,
	}
}

// Profile is the profile edit form. The password fields are only required
// when the current password is given.
type Profile struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	OldPassword          string `json:"old_password"`
	Password             string `json:"password" validate:"required_with=OldPassword"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required_with=OldPassword,eqfield=Password"`
}

// Request converts the form into the API body, dropping the password
// fields when no password change was asked for
func (f Profile) Request() client.UpdateProfileRequest {
	req := client.UpdateProfileRequest{Name: f.Name, Email: f.Email}
	if f.OldPassword != "" {
		req.OldPassword = f.OldPassword
		req.Password = f.Password
		req.PasswordConfirmation = f.PasswordConfirmation
	}
	return req
}
