package models

import (
	"testing"

	"pharmart/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPayoutMethodMaskedAccount(t *testing.T) {
	tests := []struct {
		name   string
		method PayoutMethod
		want   string
	}{
		{
			"bank account shows last four",
			PayoutMethod{Type: domain.PayoutMethodBank, AccountNumber: "0011223344"},
			"****3344",
		},
		{
			"short bank account is not masked",
			PayoutMethod{Type: domain.PayoutMethodBank, AccountNumber: "1234"},
			"1234",
		},
		{
			"mpesa phone shows last four",
			PayoutMethod{Type: domain.PayoutMethodMpesa, PhoneNumber: "254712345678"},
			"****5678",
		},
		{
			"mpesa till is verbatim",
			PayoutMethod{Type: domain.PayoutMethodMpesa, TillNumber: "884422", PhoneNumber: "254712345678"},
			"884422",
		},
		{
			"mobile money phone shows last four",
			PayoutMethod{Type: domain.PayoutMethodMobileMoney, Provider: "Airtel Money", PhoneNumber: "254733000111"},
			"****0111",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.method.MaskedAccount())
		})
	}
}

func TestPayoutMethodDisplayName(t *testing.T) {
	bank := PayoutMethod{
		Type:          domain.PayoutMethodBank,
		BankName:      "Equity Bank",
		AccountName:   "Alpha Chemist Ltd",
		AccountNumber: "0011223344",
	}
	assert.Equal(t, "Equity Bank - Alpha Chemist Ltd (****3344)", bank.DisplayName())

	mpesa := PayoutMethod{Type: domain.PayoutMethodMpesa, PhoneNumber: "254712345678"}
	assert.Equal(t, "M-Pesa ****5678", mpesa.DisplayName())

	mobile := PayoutMethod{Type: domain.PayoutMethodMobileMoney, Provider: "Airtel Money", PhoneNumber: "254733000111"}
	assert.Equal(t, "Airtel Money ****0111", mobile.DisplayName())
}
