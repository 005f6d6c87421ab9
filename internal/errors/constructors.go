package errors

// Convenience constructors for the error taxonomy.

// Mutation rejections (user-facing, cart left unchanged)

func ProductNotFound(productID string) *StoreError {
	return New(CategoryCart, SeverityError, CodeProductNotFound, "product not found in catalog").
		WithContext("product_id", productID)
}

func OutOfStock(productID string) *StoreError {
	return New(CategoryCart, SeverityError, CodeOutOfStock, "product is out of stock").
		WithContext("product_id", productID)
}

// Persistence errors (recovered locally, never fatal)

func MalformedPersistedState(key string, cause error) *StoreError {
	return Wrap(cause, CategoryStorage, SeverityWarning, CodeMalformedState, "persisted state is malformed, falling back to empty").
		WithContext("entry_key", key)
}

func StorageWriteFailure(key string, cause error) *StoreError {
	return Wrap(cause, CategoryStorage, SeverityWarning, CodeStorageWriteFailure, "durable write failed, in-memory state remains authoritative").
		WithContext("entry_key", key)
}

// External collaborator errors

func CatalogUnavailable(url string, cause error) *StoreError {
	e := Wrap(cause, CategoryCatalog, SeverityWarning, CodeCatalogUnavailable, "catalog fetch failed").
		WithContext("url", url)
	e.Retryable = true
	return e
}

func CheckoutRejected(status int) *StoreError {
	return New(CategoryCheckout, SeverityError, CodeCheckoutRejected, "checkout submission rejected").
		WithContext("status", status)
}

// Configuration errors

func ConfigInvalid(field, reason string) *StoreError {
	return New(CategoryConfig, SeverityFatal, CodeConfigInvalid, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Predicates for callers that only care about the failure class.

func IsProductNotFound(err error) bool { return HasCode(err, CodeProductNotFound) }

func IsOutOfStock(err error) bool { return HasCode(err, CodeOutOfStock) }

func IsMalformedPersistedState(err error) bool { return HasCode(err, CodeMalformedState) }

func IsStorageWriteFailure(err error) bool { return HasCode(err, CodeStorageWriteFailure) }
