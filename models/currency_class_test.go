package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTerminal(t *testing.T) {
	tests := []struct {
		terminalID string
		expected   CurrencyClass
	}{
		{"SBM001", CurrencyZiG},
		{"ZPZ17", CurrencyZiG},
		{"C9000", CurrencyZiG},
		{"SQL42", CurrencyZiG},
		{"FCM002", CurrencyUSD},
		{"FCZP10", CurrencyUSD},
		{"FCQ7", CurrencyUSD},
		{"XYZ1", CurrencyNone},
		{"", CurrencyNone},
		{"sbm001", CurrencyNone},
	}

	for _, tt := range tests {
		t.Run(tt.terminalID, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTerminal(tt.terminalID))
		})
	}
}
