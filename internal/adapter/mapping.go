package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pylin/shelflife/models"
)

// cmsLocale is the single locale the management API requires field values to
// be wrapped in.
const cmsLocale = "en-US"

// CMS content type identifiers per entity kind.
const (
	contentTypeFood         = "food"
	contentTypeSubscription = "subscription"
)

func contentTypeFor(kind models.Kind) string {
	if kind == models.KindSubscription {
		return contentTypeSubscription
	}
	return contentTypeFood
}

// remoteFields maps a local entity onto the remote schema. The mapping is
// lossy on purpose: the CMS model predates several local fields.
//
//	food:         name, amount (digits of brand, min 1), todate
//	subscription: name, price (digits of price), nextdate, site
func remoteFields(kind models.Kind, e models.Entity) map[string]any {
	if kind == models.KindSubscription {
		return map[string]any{
			"name":     e.Name,
			"price":    digitsIn(e.Price, 0),
			"nextdate": e.TargetDate,
			"site":     e.URL,
		}
	}
	return map[string]any{
		"name":   e.Name,
		"amount": digitsIn(e.Brand, 1),
		"todate": e.TargetDate,
	}
}

// localizeFields wraps each field value in the locale envelope the management
// API expects: {"field": {"en-US": value}}.
func localizeFields(fields map[string]any) map[string]map[string]any {
	localized := make(map[string]map[string]any, len(fields))
	for name, value := range fields {
		localized[name] = map[string]any{cmsLocale: value}
	}
	return localized
}

// entityFromFields rebuilds a local entity from a delivery-API entry. Fields
// the remote schema never carried come back as display placeholders; derived
// fields are left zero for the caller to recompute.
func entityFromFields(kind models.Kind, remoteID string, fields map[string]any) models.Entity {
	e := models.Entity{
		Kind:     kind,
		RemoteID: remoteID,
		Name:     stringField(fields, "name"),
	}

	if kind == models.KindSubscription {
		e.Price = fmt.Sprintf("NT$ %d", intField(fields, "price"))
		e.TargetDate = dateField(fields, "nextdate")
		e.URL = stringField(fields, "site")
		if e.Name == "" {
			e.Name = "未命名訂閱"
		}
		return e
	}

	e.Brand = fmt.Sprintf("數量: %d", intField(fields, "amount"))
	e.Price = "NT$ 0"
	e.Status = models.StatusGood
	e.TargetDate = dateField(fields, "todate")
	if e.Name == "" {
		e.Name = "未命名食品"
	}
	return e
}

// digitsIn extracts all decimal digits from s and parses them as one number.
// "NT$ 530" becomes 530; a string with no digits yields fallback.
func digitsIn(s string, fallback int) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return fallback
	}
	return n
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// intField reads a numeric field. JSON numbers decode as float64; entries
// written by other tooling occasionally carry strings.
func intField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case string:
		return digitsIn(v, 0)
	default:
		return 0
	}
}

// dateField normalizes a remote date to the local YYYY-MM-DD layout. The CMS
// stores plain dates but older entries may carry full RFC 3339 timestamps.
func dateField(fields map[string]any, name string) string {
	s := stringField(fields, name)
	if len(s) > len(models.DateLayout) {
		return s[:len(models.DateLayout)]
	}
	return s
}
