package response

import (
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stampRe = regexp.MustCompile(`^(.*), \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

func TestSuccessEnvelope(t *testing.T) {
	r := Success("login successful", map[string]any{"token": "abc"})

	assert.Equal(t, CodeOK, r.Code)
	assert.NotNil(t, r.Data)

	m := stampRe.FindStringSubmatch(r.Message)
	require.NotNil(t, m, "message %q is missing the timestamp suffix", r.Message)
	assert.Equal(t, "login successful", m[1])
}

func TestSuccessNilDataBecomesEmptyObject(t *testing.T) {
	r := Success("done", nil)

	assert.Equal(t, struct{}{}, r.Data)
}

func TestErrorEnvelope(t *testing.T) {
	r := Error("wrong password")

	assert.Equal(t, CodeError, r.Code)
	assert.Equal(t, struct{}{}, r.Data)

	m := stampRe.FindStringSubmatch(r.Message)
	require.NotNil(t, m)
	assert.Equal(t, "wrong password", m[1])
}

func TestValidationError(t *testing.T) {
	type payload struct {
		UserName string `validate:"required"`
		Email    string `validate:"required,email"`
	}

	err := validator.New().Struct(payload{Email: "not-an-email"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	r := ValidationError(verrs)

	assert.Equal(t, CodeError, r.Code)
	assert.Contains(t, r.Message, "field UserName is a required field")
	assert.Contains(t, r.Message, "field Email is not a valid email")
}
