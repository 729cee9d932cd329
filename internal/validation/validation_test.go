package validation_test

import (
	"testing"

	"fwstore/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,strongpassword" msg:"min=Password must be at least 6 characters long"`
	Name     string `json:"name" validate:"min=2,max=100,personname" msg:"personname=Name can only contain letters and spaces|Name must be between 2 and 100 characters"`
	Phone    string `json:"telephone" validate:"omitempty,min=10,max=20,phone"`
	Status   string `json:"status" validate:"omitempty,orderstatus"`
}

func TestStruct_Valid(t *testing.T) {
	v := validation.New()
	err := v.Struct(signup{Email: "a@b.co", Password: "Secret1", Name: "Ann Lee", Phone: "+44 (0) 7123-456"})
	assert.NoError(t, err)
}

func TestStruct_FieldMessages(t *testing.T) {
	v := validation.New()
	err := v.Struct(&signup{Email: "nope", Password: "abc", Name: "A1", Phone: "12345678ab", Status: "lost"})
	require.Error(t, err)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	got := map[string]string{}
	for _, fe := range verrs {
		got[fe.Field] = fe.Message
	}
	assert.Equal(t, "Please enter a valid email address", got["email"])
	assert.Equal(t, "Password must be at least 6 characters long", got["password"])
	assert.Equal(t, "Name can only contain letters and spaces", got["name"])
	assert.Contains(t, got, "telephone")
	assert.Equal(t, "Invalid status. Must be one of: pending, processing, shipped, delivered, cancelled", got["status"])
}

func TestStruct_FallbackMessage(t *testing.T) {
	v := validation.New()
	err := v.Struct(signup{Email: "a@b.co", Password: "Secret1", Name: "A"})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "Name must be between 2 and 100 characters", verrs[0].Message)
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Secret1":  true,
		"secret1":  false,
		"SECRET1":  false,
		"Secrets":  false,
		"Se1":      false,
		"aB3aB3aB": true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, validation.StrongPassword(pw), pw)
	}
}
