package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructValidatorLogin(t *testing.T) {
	v := StructValidator[LoginForm]()

	errs := v(LoginForm{})
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	errs = v(LoginForm{Email: "nope", Password: "123"})
	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Equal(t, "Must be at least 6 characters", errs["password"])

	assert.False(t, v(LoginForm{Email: "me@intelink.io", Password: "hunter22"}).Any())
}

func TestStructValidatorRegisterPasswordsMustMatch(t *testing.T) {
	v := StructValidator[RegisterForm]()
	errs := v(RegisterForm{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "battery-staple",
	})
	assert.Equal(t, Errors{"confirmPassword": "Passwords do not match"}, errs)

	errs = v(RegisterForm{Username: "al!ce", Email: "alice@example.com", Password: "correct-horse", ConfirmPassword: "correct-horse"})
	assert.Equal(t, "Only letters and numbers are allowed", errs["username"])
}

func TestStructValidatorCreateURL(t *testing.T) {
	v := StructValidator[CreateURLForm]()

	errs := v(CreateURLForm{OriginalURL: "not a url", AvailableDays: 400})
	assert.Contains(t, errs["originalUrl"], "valid URL")
	assert.Equal(t, "Must be at most 365", errs["availableDays"])

	assert.False(t, v(CreateURLForm{OriginalURL: "https://intelink.example/docs"}).Any())

	errs = v(CreateURLForm{OriginalURL: "https://intelink.example", Password: "abc"})
	assert.Equal(t, "Must be at least 4 characters", errs["password"])
}

func TestChainKeepsFirstMessage(t *testing.T) {
	first := func(LoginForm) Errors { return Errors{"email": "first"} }
	second := func(LoginForm) Errors { return Errors{"email": "second", "password": "p", "x": ""} }

	errs := Chain(first, second)(LoginForm{})
	assert.Equal(t, Errors{"email": "first", "password": "p"}, errs)
}

func TestHumanField(t *testing.T) {
	assert.Equal(t, "Original url", humanField("originalUrl"))
	assert.Equal(t, "Email", humanField("email"))
}
