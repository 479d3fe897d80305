package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobarber/gobarber/internal/cli/client"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	if err == nil {
		return nil
	}
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %T", err)
	return fe
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		form any
		want FieldErrors
	}{
		{
			name: "sign in ok",
			form: SignIn{Email: "a@x.com", Password: "pw"},
			want: nil,
		},
		{
			name: "sign in reports every field",
			form: SignIn{},
			want: FieldErrors{"email": "is required", "password": "is required"},
		},
		{
			name: "sign in bad email",
			form: SignIn{Email: "not-an-email", Password: "pw"},
			want: FieldErrors{"email": "must be a valid email"},
		},
		{
			name: "sign up short password",
			form: SignUp{Name: "Ann", Email: "a@x.com", Password: "123"},
			want: FieldErrors{"password": "must be at least 6 characters"},
		},
		{
			name: "sign up missing name",
			form: SignUp{Email: "a@x.com", Password: "123456"},
			want: FieldErrors{"name": "is required"},
		},
		{
			name: "forgot password",
			form: ForgotPassword{Email: ""},
			want: FieldErrors{"email": "is required"},
		},
		{
			name: "reset password mismatch",
			form: ResetPassword{Password: "secret", PasswordConfirmation: "secrett", Token: "t"},
			want: FieldErrors{"password_confirmation": "does not match"},
		},
		{
			name: "reset password without token",
			form: ResetPassword{Password: "secret", PasswordConfirmation: "secret"},
			want: FieldErrors{"token": "is required"},
		},
		{
			name: "profile without password change",
			form: Profile{Name: "Ann", Email: "a@x.com"},
			want: nil,
		},
		{
			name: "profile with old password requires new ones",
			form: Profile{Name: "Ann", Email: "a@x.com", OldPassword: "old"},
			want: FieldErrors{"password": "is required", "password_confirmation": "is required"},
		},
		{
			name: "profile confirmation mismatch",
			form: Profile{Name: "Ann", Email: "a@x.com", OldPassword: "old", Password: "new123", PasswordConfirmation: "new124"},
			want: FieldErrors{"password_confirmation": "does not match"},
		},
		{
			name: "profile full change",
			form: Profile{Name: "Ann", Email: "a@x.com", OldPassword: "old", Password: "new123", PasswordConfirmation: "new123"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldErrors(t, Validate(tt.form))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldErrors_Error(t *testing.T) {
	err := FieldErrors{"password": "is required", "email": "must be a valid email"}
	assert.Equal(t, "invalid input: email: must be a valid email; password: is required", err.Error())
}

func TestProfile_Request(t *testing.T) {
	withoutChange := Profile{Name: "Ann", Email: "a@x.com", Password: "ignored", PasswordConfirmation: "ignored"}
	assert.Equal(t, client.UpdateProfileRequest{Name: "Ann", Email: "a@x.com"}, withoutChange.Request())

	withChange := Profile{Name: "Ann", Email: "a@x.com", OldPassword: "old", Password: "new123", PasswordConfirmation: "new123"}
	assert.Equal(t, client.UpdateProfileRequest{
		Name:                 "Ann",
		Email:                "a@x.com",
		OldPassword:          "old",
		Password:             "new123",
		PasswordConfirmation: "new123",
	}, withChange.Request())
}
