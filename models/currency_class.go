package models

import "strings"

// CurrencyClass is derived from a terminal ID prefix and never stored
type CurrencyClass string

const (
	CurrencyNone CurrencyClass = ""
	CurrencyZiG  CurrencyClass = "ZiG"
	CurrencyUSD  CurrencyClass = "USD"
)

type currencyRule struct {
	prefixes []string
	class    CurrencyClass
}

// Evaluated in order; the first rule with a matching prefix wins.
var currencyRules = []currencyRule{
	{prefixes: []string{"SBM", "ZPZ", "C", "SQL"}, class: CurrencyZiG},
	{prefixes: []string{"FCM", "FCZP", "FCQ"}, class: CurrencyUSD},
}

// ClassifyTerminal returns the currency class of a terminal ID, or CurrencyNone
// when no prefix rule matches
func ClassifyTerminal(terminalID string) CurrencyClass {
	for _, rule := range currencyRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(terminalID, prefix) {
				return rule.class
			}
		}
	}
	return CurrencyNone
}
