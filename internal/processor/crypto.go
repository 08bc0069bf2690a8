package processor

import (
	"fmt"

	"github.com/shadoom/entitlement-server-go/internal/model"
	"github.com/shadoom/entitlement-server-go/internal/util"
)

// CryptoNetwork is the crypto-side collaborator. It designates the
// receiving address for a purchase; the actual on-chain confirmation
// arrives later as an external event through the resolution endpoint.
type CryptoNetwork interface {
	ReceivingAddress(accountID string, currency model.CryptoCurrency) string
}

// HMACAddressDeriver derives a stable receiving address per account and
// currency, so a retried purchase designates the same address.
type HMACAddressDeriver struct {
	secret string
}

func NewHMACAddressDeriver(secret string) *HMACAddressDeriver {
	if secret == "" {
		secret = "shadoom-dev-address-seed"
	}
	return &HMACAddressDeriver{secret: secret}
}

var addressPrefixes = map[model.CryptoCurrency]string{
	model.CryptoBitcoin:  "bc1q",
	model.CryptoEthereum: "0x",
	model.CryptoUSDT:     "T",
}

func (d *HMACAddressDeriver) ReceivingAddress(accountID string, currency model.CryptoCurrency) string {
	digest := util.HmacSHA256(d.secret, fmt.Sprintf("%s:%s", accountID, currency))
	return addressPrefixes[currency] + digest[:38]
}
