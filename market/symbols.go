// market/symbols.go
package market

import (
	"sort"
	"strings"
)

// SymbolMeta describes where a dashboard symbol is quoted and, when OANDA
// carries it, which instrument to request.
type SymbolMeta struct {
	Name       string
	Exchange   string
	Instrument string
}

var Symbols = map[string]SymbolMeta{
	"XAUUSD": {
		Name:       "XAUUSD",
		Exchange:   "OANDA",
		Instrument: "XAU_USD",
	},
	"BTCUSDT": {
		Name:     "BTCUSDT",
		Exchange: "OKX",
	},
	"USOIL": {
		Name:       "USOIL",
		Exchange:   "TVC",
		Instrument: "WTICO_USD",
	},
}

// LookupSymbol is case-insensitive.
func LookupSymbol(name string) (SymbolMeta, bool) {
	m, ok := Symbols[strings.ToUpper(strings.TrimSpace(name))]
	return m, ok
}

// SymbolNames returns the known symbols in sorted order.
func SymbolNames() []string {
	out := make([]string, 0, len(Symbols))
	for k := range Symbols {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
