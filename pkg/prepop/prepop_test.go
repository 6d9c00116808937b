package prepop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidParam(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain address", "123 Main St", true},
		{"encoded address", "500%20Oak%20Ave", true},
		{"name with spaces", " Jane Doe ", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"merge tag upper", "<FNAME>", false},
		{"merge tag lower", "<fname>", false},
		{"merge tag mixed", "<Email_Address>", false},
		{"encoded merge tag", "%3CFNAME%3E", false},
		{"leading bracket", "<x", false},
		{"trailing bracket", "x>", false},
		{"placeholder upper", "PLACEHOLDER_VALUE", false},
		{"placeholder lower", "my placeholder text", false},
		{"malformed escape", "100%zz", false},
		{"phone", "5125550100", true},
		{"email", "jane@example.com", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidParam(tc.input))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "500 Oak Ave", Clean("500%20Oak%20Ave"))
	assert.Equal(t, "", Clean("<FNAME>"))
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "Jane", Clean("  Jane  "))
}

func TestAnyValid(t *testing.T) {
	assert.True(t, AnyValid("", "<FNAME>", "500 Oak Ave"))
	assert.False(t, AnyValid("", "<FNAME>", "<EMAIL>"))
	assert.False(t, AnyValid())
}
