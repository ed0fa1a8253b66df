package review

import (
	"fmt"

	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/entity"
)

// PaymentOutcome is the result of the submit pipeline.
// Build it with NoAction, OutcomeLoading, OutcomeSuccess or OutcomeError.
type PaymentOutcome struct {
	status    constants.OutcomeStatus
	requestID string
	bank      entity.SelectedBank
	err       error
}

func NoAction() PaymentOutcome {
	return PaymentOutcome{status: constants.OutcomeNoAction}
}

func OutcomeLoading() PaymentOutcome {
	return PaymentOutcome{status: constants.OutcomeLoading}
}

func OutcomeSuccess(requestID string, bank entity.SelectedBank) PaymentOutcome {
	return PaymentOutcome{status: constants.OutcomeSuccess, requestID: requestID, bank: bank}
}

func OutcomeError(err error) PaymentOutcome {
	return PaymentOutcome{status: constants.OutcomeError, err: err}
}

func (o PaymentOutcome) Status() constants.OutcomeStatus {
	if o.status == "" {
		return constants.OutcomeNoAction
	}
	return o.status
}

// Success returns the request ID and bank of a Success outcome.
func (o PaymentOutcome) Success() (requestID string, bank entity.SelectedBank, ok bool) {
	return o.requestID, o.bank, o.status == constants.OutcomeSuccess
}

// Err returns the cause of an Error outcome, nil otherwise.
func (o PaymentOutcome) Err() error {
	if o.status != constants.OutcomeError {
		return nil
	}
	return o.err
}

func (o PaymentOutcome) String() string {
	switch o.Status() {
	case constants.OutcomeSuccess:
		return fmt.Sprintf("Success(%s, %s)", o.requestID, o.bank.Name)
	case constants.OutcomeError:
		return fmt.Sprintf("Error(%v)", o.err)
	case constants.OutcomeLoading:
		return "Loading"
	}
	return "NoAction"
}
