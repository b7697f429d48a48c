package httpapi

import "pointblank/internal/domain"

// AnalyzeRequest asks for a fresh analysis of a ticker.
type AnalyzeRequest struct {
	Ticker string `json:"ticker"`
}

// SubscribeResponse carries the payment order the checkout frontend needs.
type SubscribeResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifySubscriptionRequest carries the checkout callback fields.
type VerifySubscriptionRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// ChatRequest carries the full conversation transcript; the last message is
// the new user turn.
type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ChatResponse is the assistant's reply to a chat or image request.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// AnalyzeImageRequest carries a base64-encoded JPEG chart and a question
// about it.
type AnalyzeImageRequest struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

// errorResponse is the uniform error envelope. UpgradeRequired is set only
// on quota denials so the frontend can route to the paywall.
type errorResponse struct {
	Error           string `json:"error"`
	UpgradeRequired bool   `json:"upgradeRequired,omitempty"`
}
