package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Wire Pin", "wire-pin"},
		{"Bone Plate", "bone-plate"},
		{"K-Wire 2.5mm", "k-wire-2-5mm"},
		{"Crème Brûlée", "creme-brulee"},
		{"  spaced  out  ", "spaced-out"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, GenerateSlug(tc.in), "input %q", tc.in)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("ENV_INT_TEST", "25")
	assert.Equal(t, 25, EnvInt("ENV_INT_TEST", 10))

	t.Setenv("ENV_INT_TEST", "not a number")
	assert.Equal(t, 10, EnvInt("ENV_INT_TEST", 10))

	t.Setenv("ENV_INT_TEST", "-3")
	assert.Equal(t, 10, EnvInt("ENV_INT_TEST", 10))

	assert.Equal(t, 7, EnvInt("ENV_INT_TEST_UNSET", 7))
}
