package adapter

import "context"

// PaymentGateway is the hex port for the card/UPI checkout provider.
//
// A gateway that is not Configured issues locally generated order ids and
// accepts every signature, which keeps demo and test deployments offline.
type PaymentGateway interface {
	Name() string
	Configured() bool
	// PublicKey is handed to the checkout widget; empty in local mode.
	PublicKey() string
	// CreateOrder registers an order of amountMinor (paise) and returns its id.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (orderID string, err error)
	VerifySignature(orderID, gatewayPaymentID, signature string) bool
}
