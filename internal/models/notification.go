package models

// NotificationData is the decoded key/value payload of one provider callback.
// No key is guaranteed to be present.
type NotificationData map[string]string

// Keys the provider sends on the redirect.
const (
	KeyReturnData  = "returnData"
	KeyTransaction = "tilopay-transaction"
	KeyCode        = "code"
	KeyDescription = "description"
	KeyReference   = "reference"
)

// CodeApproved is the only status code that completes a payment.
const CodeApproved = "1"

func (d NotificationData) Get(key string) (string, bool) {
	v, ok := d[key]
	return v, ok
}
