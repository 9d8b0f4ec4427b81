package dedup

import (
	"strings"

	"github.com/johnathanacortesd/LimpiarV/internal/normalize"
	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

// brandSuffixes lists outlets whose canonical headline format keeps a
// trailing brand suffix. A title from one of these outlets that retains the
// suffix is the house version and outranks stripped copies.
var brandSuffixes = map[string]string{
	"eltiempo":     "| EL TIEMPO",
	"elespectador": "| El Espectador",
	"semana":       "| Semana",
	"infobae":      "| infobae",
	"larepublica":  "| La República",
}

// priorityRank orders candidates inside a duplicate group; lower sorts first
// and the first record is the winner.
type priorityRank struct {
	repaired int // untouched title beats a repaired one
	noQuote  int // directly-quoted headlines are more authoritative
	noBrand  int // house-formatted suffix for known outlets
}

func rankOf(rec *report.Record) priorityRank {
	rank := priorityRank{repaired: 1, noQuote: 1, noBrand: 1}
	if !rec.TitleRepaired {
		rank.repaired = 0
	}
	if strings.ContainsAny(rec.Title, `"«»“”`) {
		rank.noQuote = 0
	}
	if suffix, ok := brandSuffixes[normalize.Key(rec.Outlet)]; ok {
		if strings.Contains(strings.ToLower(rec.OriginalTitle), strings.ToLower(suffix)) {
			rank.noBrand = 0
		}
	}
	return rank
}

// lessPriority reports whether record a outranks record b as a duplicate
// group winner.
func lessPriority(a, b *report.Record) bool {
	ra, rb := rankOf(a), rankOf(b)
	if ra.repaired != rb.repaired {
		return ra.repaired < rb.repaired
	}
	if ra.noQuote != rb.noQuote {
		return ra.noQuote < rb.noQuote
	}
	if ra.noBrand != rb.noBrand {
		return ra.noBrand < rb.noBrand
	}
	wa, wb := a.When(), b.When()
	if !wa.Equal(wb) {
		// Later publication wins as a proxy for the most updated version.
		return wa.After(wb)
	}
	return a.RowIndex < b.RowIndex
}
