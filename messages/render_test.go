package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			"substitutes variables",
			"Pay {amount} {currency} now",
			map[string]string{"amount": "918.75", "currency": "GHS"},
			"Pay 918.75 GHS now",
		},
		{
			"repeated placeholder",
			"{name} and {name}",
			map[string]string{"name": "Ama"},
			"Ama and Ama",
		},
		{
			"unknown placeholder left untouched",
			"Hello {name}, due {due_date}",
			map[string]string{"name": "Ama"},
			"Hello Ama, due {due_date}",
		},
		{
			"nil vars",
			"No vars here",
			nil,
			"No vars here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.vars))
		})
	}
}

func TestPaymentLinkTemplateRenders(t *testing.T) {
	got := Render(PaymentLink, map[string]string{
		"amount":       "918.75",
		"currency":     "GHS",
		"payment_link": "https://pay.example/abc",
	})
	assert.Contains(t, got, "Pay 918.75 GHS")
	assert.Contains(t, got, "https://pay.example/abc")
	assert.NotContains(t, got, "{")
}
