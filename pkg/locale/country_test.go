package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneRegions(t *testing.T) {
	assert.Equal(t, []string{"IN", "US"}, PhoneRegions())

	regions := PhoneRegions()
	regions[0] = "XX"
	assert.Equal(t, "IN", Countries[0].Code, "callers get a copy")
}
