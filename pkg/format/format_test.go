package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	assert.Equal(t, "Rs 12,500,000", Rupees(12499999.6))
	assert.Equal(t, "Rs 850", Rupees(850))
	assert.Equal(t, "Rs 0", Rupees(0.2))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, 2.346, Fixed(2.3455, 3))
	assert.Equal(t, -1.5, Fixed(-1.45, 1))
	assert.Equal(t, "2.200", FixedString(2.2, 3))
	assert.Equal(t, "0.125", FixedString(0.1245, 3))
}
