package tilopay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// InlineFormValues is the payload the checkout page hands to the Tilopay SDK.
type InlineFormValues struct {
	Token           string      `json:"token"`
	Currency        string      `json:"currency"`
	Language        string      `json:"language"`
	Amount          json.Number `json:"amount"`
	BillToFirstName string      `json:"billToFirstName"`
	BillToLastName  string      `json:"billToLastName"`
	BillToAddress   string      `json:"billToAddress"`
	BillToCountry   string      `json:"billToCountry"`
	BillToEmail     string      `json:"billToEmail"`
	OrderNumber     string      `json:"orderNumber"`
	Capture         int         `json:"capture"`
	Redirect        string      `json:"redirect"`
	Subscription    int         `json:"subscription"`
	HashVersion     string      `json:"hashVersion"`
	ReturnData      string      `json:"returnData"`
}

// returnPayload is echoed back by Tilopay on the redirect and read by the
// reconciler.
type returnPayload struct {
	Reference string      `json:"reference"`
	Amount    json.Number `json:"amount"`
	Currency  int64       `json:"currency"`
}

// BuildInlineFormValues assembles the form for one transaction of order.
func BuildInlineFormValues(token string, order *models.Order, tx *models.Transaction, baseURL string) (*InlineFormValues, error) {
	returnData, err := json.Marshal(returnPayload{
		Reference: tx.Reference,
		Amount:    json.Number(tx.Currency.Round(tx.Amount).String()),
		Currency:  tx.Currency.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal return data: %w", err)
	}

	partner := order.Partner
	firstName := partner.FirstName
	if firstName == "" {
		firstName = partner.Name
	}
	if firstName == "" {
		firstName = partner.FullName()
	}

	return &InlineFormValues{
		Token:           token,
		Currency:        order.Currency.Name,
		Language:        "es",
		Amount:          json.Number(order.Currency.Round(order.AmountTotal).String()),
		BillToFirstName: firstName,
		BillToLastName:  partner.LastName,
		BillToAddress:   partner.Street,
		BillToCountry:   partner.CountryCode,
		BillToEmail:     partner.Email,
		OrderNumber:     order.Name,
		Capture:         1,
		Redirect:        strings.TrimRight(baseURL, "/") + "/payment/tilopay",
		Subscription:    0,
		HashVersion:     "V2",
		ReturnData:      string(returnData),
	}, nil
}
