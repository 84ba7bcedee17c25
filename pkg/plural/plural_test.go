package plural

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlural(t *testing.T) {
	assert.Equal(t, "s", Int(0, "s"))
	assert.Equal(t, "", Int(1, "s"))
	assert.Equal(t, "es", Int(2, "es"))
}
