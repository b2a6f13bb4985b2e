package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Exactly Min Length", "Abcdef1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Weak", "abc", true},
		{"Too Short", "Sml1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Digits And Special Only", "1234567890!@", true},
		{"Unicode Characters", "ÅngstromPass12!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail("ada@"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.io"))
}

type signupRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	Gender   string `json:"gender" validate:"notblank"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	valid := signupRequest{Name: "Ada", Email: "ada@example.com", Password: "Str0ng!pass", Gender: "female"}

	tests := []struct {
		name    string
		mutate  func(r *signupRequest)
		wantMsg string
	}{
		{"valid", func(*signupRequest) {}, ""},
		{"blank name", func(r *signupRequest) { r.Name = "   " }, "name is required"},
		{"missing email", func(r *signupRequest) { r.Email = "" }, "email is required"},
		{"bad email", func(r *signupRequest) { r.Email = "ada" }, "email must be a valid email"},
		{"weak password", func(r *signupRequest) { r.Password = "abc" }, "password must be at least 8 characters long"},
		{"missing gender", func(r *signupRequest) { r.Gender = "" }, "gender is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := Struct(req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}
