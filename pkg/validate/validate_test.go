package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
)

type sampleInput struct {
	Name     string `validate:"required"`
	Quantity int    `validate:"required,gt=0"`
}

func TestStructPassesValidInput(t *testing.T) {
	assert.NoError(t, Struct(sampleInput{Name: "LPG 12kg", Quantity: 2}))
}

func TestStructMapsFieldErrors(t *testing.T) {
	err := Struct(sampleInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 2)

	fields := map[string]string{}
	for _, fe := range details {
		fields[fe.Field] = fe.Rule
	}
	assert.Equal(t, "required", fields["Name"])
	assert.Equal(t, "required", fields["Quantity"])
}
