package fractionmarket

import "errors"

var (
	// ErrInvalidParam represents an invalid parameter error
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrMarketAPI represents a marketplace API error
	ErrMarketAPI = errors.New("market api error")

	// ErrWalletNotConnected is returned when no signer key is configured
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrUnsupportedChain is returned for a chain the marketplace is not deployed on
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrOrderUnavailable is returned when the requested sell order no longer exists or is invalidated
	ErrOrderUnavailable = errors.New("sell order unavailable")
)

// InvalidParamError represents an invalid parameter error with context
type InvalidParamError struct {
	Message string
}

func (e *InvalidParamError) Error() string {
	return e.Message
}

func (e *InvalidParamError) Unwrap() error {
	return ErrInvalidParam
}

// MarketAPIError represents a marketplace API error with context
type MarketAPIError struct {
	Message string
}

func (e *MarketAPIError) Error() string {
	return e.Message
}

func (e *MarketAPIError) Unwrap() error {
	return ErrMarketAPI
}

// RejectReason classifies why a purchase was rejected before any pipeline started.
type RejectReason string

const (
	RejectNonPositiveUnits    RejectReason = "non_positive_units"
	RejectExceedsAvailable    RejectReason = "exceeds_available_units"
	RejectInsufficientBalance RejectReason = "insufficient_balance"
)

// PurchaseRejectedError is returned by ValidatePurchase. It never enters the
// pipeline state machine; callers surface it as live form validation.
type PurchaseRejectedError struct {
	Reason RejectReason
}

func (e *PurchaseRejectedError) Error() string {
	switch e.Reason {
	case RejectNonPositiveUnits:
		return "requested unit count must be positive"
	case RejectExceedsAvailable:
		return "requested unit count exceeds units for sale"
	case RejectInsufficientBalance:
		return "insufficient balance for requested unit count"
	default:
		return "purchase rejected"
	}
}
