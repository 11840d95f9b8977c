package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// money formats v with thousands separators and two decimals.
func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
