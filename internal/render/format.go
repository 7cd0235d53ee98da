package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

// NA is shown for every missing value.
const NA = "N/A"

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NA
	}
	return t.Format("02/01/2006")
}

func dates(ts []time.Time) string {
	if len(ts) == 0 {
		return NA
	}
	out := make([]string, len(ts))
	for i := range ts {
		out[i] = date(&ts[i])
	}
	return strings.Join(out, ", ")
}

func number(f *float64) string {
	if f == nil {
		return NA
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func integer(i *int) string {
	if i == nil {
		return NA
	}
	return strconv.Itoa(*i)
}

func yesNo(b *bool) string {
	if b == nil {
		return NA
	}
	if *b {
		return "Yes"
	}
	return "No"
}

func ref(r *models.Ref) string {
	if r == nil {
		return NA
	}
	return text(r.ShortID())
}

func refs(rs []models.Ref) string {
	ids := models.ShortIDs(rs)
	if len(ids) == 0 {
		return NA
	}
	return strings.Join(ids, ", ")
}

func quantityValue(q *models.QuantityValue) string {
	if q == nil {
		return NA
	}
	return number(q.Value)
}

func quantityUnit(q *models.QuantityValue) string {
	if q == nil {
		return NA
	}
	return text(q.Unit)
}

func quantity(q *models.QuantityValue) string {
	if q == nil || q.Value == nil {
		return NA
	}
	return strings.TrimSpace(number(q.Value) + " " + q.Unit)
}

func depthQuantity(q models.DepthQuantity) string {
	return strings.TrimSpace(number(q.Value)+" "+q.Unit) + " at " + strings.TrimSpace(number(q.Depth)+" "+q.DepthUnit)
}
