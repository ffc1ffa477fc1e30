package router

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

var locale = language.BrazilianPortuguese

var roleLabels = map[domain.Role]string{
	domain.RoleAdmin:        "Administrador",
	domain.RoleReceptionist: "Recepcionista",
	domain.RoleWaiter:       "Garçom",
	domain.RoleKitchen:      "Cozinha",
}

// FormatCurrency renders amount in reais with exactly two decimals,
// e.g. "R$ 1.234,50".
func FormatCurrency(amount float64) string {
	p := message.NewPrinter(locale)
	return "R$ " + p.Sprintf("%v", number.Decimal(amount, number.Scale(2)))
}

// RoleLabel returns the localized name of a role. Roles without a known
// label are title-cased.
func RoleLabel(r domain.Role) string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return cases.Title(locale).String(string(r))
}

func tableLabel(n *int) string {
	return "Mesa " + strconv.Itoa(*n)
}

func itemCount(n int) string {
	return fmt.Sprintf("%d item(s)", n)
}
