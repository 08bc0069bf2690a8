package model

type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPremium PlanTier = "premium"
)

func (p PlanTier) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCrypto
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type CryptoCurrency string

const (
	CryptoBitcoin  CryptoCurrency = "bitcoin"
	CryptoEthereum CryptoCurrency = "ethereum"
	CryptoUSDT     CryptoCurrency = "usdt"
)

func (c CryptoCurrency) Valid() bool {
	return c == CryptoBitcoin || c == CryptoEthereum || c == CryptoUSDT
}

type Capability string

const (
	CapabilityGenerateIdea   Capability = "generate_idea"
	CapabilityAnalyzeProfile Capability = "analyze_profile"
	CapabilityDeleteIdea     Capability = "delete_idea"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformKwai      Platform = "kwai"
)

func (p Platform) Valid() bool {
	return p == PlatformInstagram || p == PlatformTikTok || p == PlatformKwai
}
