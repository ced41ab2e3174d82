package receipt

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

type labels struct {
	ticket, date, seller, product, quantity, unitPrice, subtotal, total, unknownSeller string
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func isSpanish(tag language.Tag) bool {
	base, _ := tag.Base()
	return base.String() == "es"
}

func labelsFor(tag language.Tag) labels {
	if isSpanish(tag) {
		return labels{
			ticket:    "Ticket",
			date:      "Fecha",
			seller:    "Vendedor",
			product:   "Producto",
			quantity:  "Cant.",
			unitPrice: "Precio",
			subtotal:  "Subtotal",
			total:     "Total",

			unknownSeller: "Desconocido",
		}
	}
	return labels{
		ticket:    "Ticket",
		date:      "Date",
		seller:    "Seller",
		product:   "Product",
		quantity:  "Qty",
		unitPrice: "Price",
		subtotal:  "Subtotal",
		total:     "Total",

		unknownSeller: "Unknown",
	}
}

// longDate renders year, long month, day, hour and minute the way the locale
// writes them, e.g. "18 de octubre de 2026, 14:05".
func longDate(t time.Time, tag language.Tag) string {
	if isSpanish(tag) {
		return fmt.Sprintf("%d de %s de %d, %02d:%02d",
			t.Day(), spanishMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
	}
	return t.Format("January 2, 2006, 15:04")
}
