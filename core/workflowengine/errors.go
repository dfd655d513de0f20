package workflowengine

import "fmt"

const (
	WorkflowAlreadyRunningError = "workflow is already running"
	WorkflowHasNoBlocksError    = "workflow must have at least one block"

	UnknownBlockTypeError   = "unknown block type"
	UnsupportedChainError   = "unsupported chain"
	UnsupportedNetworkError = "unsupported network"
)

// ErrorCode classifies block level failures so the interpreter and callers
// can react without string matching.
type ErrorCode string

const (
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeMissingCapability    ErrorCode = "MISSING_CAPABILITY"
	ErrCodeMissingWallet        ErrorCode = "MISSING_WALLET"
	ErrCodeProviderTransport    ErrorCode = "PROVIDER_TRANSPORT"
	ErrCodeUnknownBlockType     ErrorCode = "UNKNOWN_BLOCK_TYPE"
)

// StructuredError provides consistent error handling with error codes
type StructuredError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

func (e *StructuredError) Error() string {
	return e.Message
}

func (e *StructuredError) GetCode() ErrorCode {
	return e.Code
}

func (e *StructuredError) GetDetails() map[string]interface{} {
	return e.Details
}

func NewStructuredError(code ErrorCode, message string, details ...map[string]interface{}) *StructuredError {
	var detailsMap map[string]interface{}
	if len(details) > 0 {
		detailsMap = details[0]
	}

	return &StructuredError{
		Code:    code,
		Message: message,
		Details: detailsMap,
	}
}

// NewMissingRequiredFieldError flags a block config field that must be set
// before any external call is made.
func NewMissingRequiredFieldError(fieldName string) *StructuredError {
	return NewStructuredError(
		ErrCodeMissingRequiredField,
		fmt.Sprintf("%s is required", fieldName),
		map[string]interface{}{"field": fieldName},
	)
}

// NewMissingCapabilityError flags a chain or provider name the engine has no
// registered capability for.
func NewMissingCapabilityError(name string) *StructuredError {
	return NewStructuredError(
		ErrCodeMissingCapability,
		fmt.Sprintf("%s: %s", UnsupportedChainError, name),
		map[string]interface{}{"chain": name},
	)
}

// NewMissingWalletError flags a stake/swap block with no connected wallet
// handle for its chain.
func NewMissingWalletError(chain string) *StructuredError {
	return NewStructuredError(
		ErrCodeMissingWallet,
		fmt.Sprintf("no wallet connected for %s", chain),
		map[string]interface{}{"chain": chain},
	)
}

func NewUnknownBlockTypeError(blockType string) *StructuredError {
	return NewStructuredError(
		ErrCodeUnknownBlockType,
		fmt.Sprintf("%s: %s", UnknownBlockTypeError, blockType),
		map[string]interface{}{"type": blockType},
	)
}
