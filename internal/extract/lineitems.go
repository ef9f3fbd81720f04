package extract

import (
	"regexp"
	"strings"
)

// minLineItemLength filters out short noise lines before shape matching.
const minLineItemLength = 10

// defaultUnit is the unit recorded when the table does not carry one.
const defaultUnit = "adet"

// lineItemShape couples a tabular regexp with the positions of its captures.
type lineItemShape struct {
	re                     *regexp.Regexp
	desc, qty, price, total int
}

// The shapes are ordered from strict to loose. The first shape whose numeric
// captures all parse wins the line; later shapes are not tried.
var lineItemShapes = []lineItemShape{
	// quantity  description  unit-price  total
	{
		re:    regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s+([A-Za-z][A-Za-z\s\-\.]*?)\s+(\d+(?:[.,]\d+)?)\s+(\d+(?:[.,]\d+)?)\s*(?:TL|₺|TRY)?$`),
		qty:   1,
		desc:  2,
		price: 3,
		total: 4,
	},
	// description  quantity  unit-price  total
	{
		re:    regexp.MustCompile(`^([A-Za-z][A-Za-z\s\-\.]*?)\s+(\d+(?:[.,]\d+)?)\s+(\d+(?:[.,]\d+)?)\s+(\d+(?:[.,]\d+)?)\s*(?:TL|₺|TRY)?$`),
		desc:  1,
		qty:   2,
		price: 3,
		total: 4,
	},
	// loose row with optional currency suffix; the digit-free description
	// keeps account numbers and spaced IBANs from parsing as rows
	{
		re:    regexp.MustCompile(`^(\D+?)\s+(\d+[.,]?\d*)\s+(\d+[.,]?\d*)\s+(\d+[.,]?\d*)\s*(?:TL|₺|TRY)?$`),
		desc:  1,
		qty:   2,
		price: 3,
		total: 4,
	},
}

// extractLineItems scans the text line-by-line for tabular rows. Lines that
// are too short, or whose numeric fields do not parse, are silently skipped;
// garbled table rows are acceptable data loss, not errors.
func (e *Engine) extractLineItems(text string) []LineItem {
	var items []LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineItemLength {
			continue
		}
		for _, shape := range lineItemShapes {
			m := shape.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			quantity, qok := ParseAmount(m[shape.qty])
			unitPrice, pok := ParseAmount(m[shape.price])
			total, tok := ParseAmount(m[shape.total])
			if !qok || !pok || !tok || quantity == 0 || unitPrice == 0 || total == 0 {
				continue
			}
			items = append(items, LineItem{
				Description: strings.TrimSpace(m[shape.desc]),
				Quantity:    quantity,
				UnitPrice:   unitPrice,
				Total:       total,
				Unit:        defaultUnit,
			})
			break
		}
	}
	return items
}
