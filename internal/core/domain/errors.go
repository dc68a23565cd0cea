package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the domain wraps exactly one of
// these, so that callers can classify failures with errors.Is.
var (
	// ErrNotFound is the category of missing trades, users or partners.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is the category of callers that are not allowed to
	// perform an operation on a trade.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidStateTransition is the category of operations not permitted
	// by the current status of a trade.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrValidation is the category of missing or malformed arguments.
	ErrValidation = errors.New("validation error")
	// ErrIncompleteDeposit is returned when a deposit proof does not cover all
	// the items of the depositing side.
	ErrIncompleteDeposit = errors.New("incomplete deposit")
)

var (
	// ErrTradeNotFound ...
	ErrTradeNotFound = fmt.Errorf("%w: trade", ErrNotFound)
	// ErrUserNotFound ...
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	// ErrPartnerNotFound is returned when the other end of a conversation
	// can't be resolved.
	ErrPartnerNotFound = fmt.Errorf("%w: partner", ErrNotFound)

	// ErrCallerNotParty ...
	ErrCallerNotParty = fmt.Errorf("%w: caller is not a party of the trade", ErrUnauthorized)
	// ErrCallerNotInitiator ...
	ErrCallerNotInitiator = fmt.Errorf("%w: caller is not the trade initiator", ErrUnauthorized)
	// ErrCallerNotCounterparty ...
	ErrCallerNotCounterparty = fmt.Errorf("%w: caller is not the trade counterparty", ErrUnauthorized)

	// ErrTradeMustBePending ...
	ErrTradeMustBePending = fmt.Errorf("%w: trade must be pending", ErrInvalidStateTransition)
	// ErrTradeMustBeCountered ...
	ErrTradeMustBeCountered = fmt.Errorf("%w: trade must be countered", ErrInvalidStateTransition)
	// ErrTradeMustBePendingOrCountered ...
	ErrTradeMustBePendingOrCountered = fmt.Errorf("%w: trade must be pending or countered", ErrInvalidStateTransition)
	// ErrTradeMustBeAgreed ...
	ErrTradeMustBeAgreed = fmt.Errorf("%w: trade must be agreed", ErrInvalidStateTransition)
	// ErrTradeMustBeEscrowDeployed ...
	ErrTradeMustBeEscrowDeployed = fmt.Errorf("%w: trade must have escrow deployed", ErrInvalidStateTransition)
	// ErrTradeMustBeDeposited ...
	ErrTradeMustBeDeposited = fmt.Errorf("%w: trade must be deposited", ErrInvalidStateTransition)
	// ErrTradeNotCancellable is returned when trying to cancel a trade that
	// already has an escrow or reached a terminal status.
	ErrTradeNotCancellable = fmt.Errorf("%w: trade can be cancelled only before escrow deployment", ErrInvalidStateTransition)
	// ErrTradeNotStale ...
	ErrTradeNotStale = fmt.Errorf("%w: trade has not reached its time to live", ErrInvalidStateTransition)
	// ErrSideAlreadyDeposited ...
	ErrSideAlreadyDeposited = fmt.Errorf("%w: side already deposited", ErrInvalidStateTransition)
	// ErrTradeConcurrentUpdate is returned by stores that detect a conflicting
	// write at commit time.
	ErrTradeConcurrentUpdate = fmt.Errorf("%w: trade was updated concurrently", ErrInvalidStateTransition)

	// ErrSelfTrade ...
	ErrSelfTrade = fmt.Errorf("%w: initiator and counterparty must be different users", ErrValidation)
	// ErrMissingInitiatorItems ...
	ErrMissingInitiatorItems = fmt.Errorf("%w: initiator must offer at least one item", ErrValidation)
	// ErrInvalidItem ...
	ErrInvalidItem = fmt.Errorf("%w: invalid trade item", ErrValidation)
	// ErrInvalidAddress ...
	ErrInvalidAddress = fmt.Errorf("%w: invalid wallet address", ErrValidation)
	// ErrInvalidTxHash ...
	ErrInvalidTxHash = fmt.Errorf("%w: invalid transaction hash", ErrValidation)
	// ErrTxNotVerified is returned when the verifier can't confirm that a
	// transaction produced the expected effect.
	ErrTxNotVerified = fmt.Errorf("%w: transaction not verified", ErrValidation)
	// ErrInvalidMessage ...
	ErrInvalidMessage = fmt.Errorf("%w: message must be non empty and at most %d characters", ErrValidation, MaxMessageLength)
	// ErrInvalidStatus ...
	ErrInvalidStatus = fmt.Errorf("%w: unknown trade status", ErrValidation)

	// ErrUserAlreadyExists ...
	ErrUserAlreadyExists = errors.New("user already exists")
)
