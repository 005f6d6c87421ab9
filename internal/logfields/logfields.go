package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStore     = "store"
	KeyEntryKey  = "entry_key"
	KeyProductID = "product_id"
	KeySizeKey   = "size_key"
	KeyQuantity  = "quantity"
	KeyTrigger   = "trigger"
	KeyOutcome   = "outcome"
	KeyOrderID   = "order_id"
	KeyURL       = "url"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Store(name string) slog.Attr   { return slog.String(KeyStore, name) }
func EntryKey(key string) slog.Attr { return slog.String(KeyEntryKey, key) }
func ProductID(id string) slog.Attr { return slog.String(KeyProductID, id) }
func SizeKey(size string) slog.Attr { return slog.String(KeySizeKey, size) }
func Quantity(q int) slog.Attr      { return slog.Int(KeyQuantity, q) }
func Trigger(t string) slog.Attr    { return slog.String(KeyTrigger, t) }
func Outcome(o string) slog.Attr    { return slog.String(KeyOutcome, o) }
func OrderID(id string) slog.Attr   { return slog.String(KeyOrderID, id) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
