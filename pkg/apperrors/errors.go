package apperrors

import "errors"

var (
	// ErrDataUnavailable indicates the document store was unreachable or
	// returned a partial set of collections. Partial data is a hard failure;
	// analytics over an incomplete snapshot would be silently wrong.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrUnknownCustomer indicates a customer-role scope whose subject id
	// does not exist in the customers collection.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrUnsupportedPlan indicates the planner produced a plan outside the
	// allowed grammar (unknown table, disallowed operation) after the
	// bounded re-plan was exhausted.
	ErrUnsupportedPlan = errors.New("unsupported query plan")

	// ErrUnknownColumn indicates a plan referenced a column that is not in
	// the schema of the table it targets.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrPlannerUnavailable indicates the model service failed to produce a
	// plan after retry. The pipeline fails closed; it never executes an
	// unvalidated plan.
	ErrPlannerUnavailable = errors.New("planner unavailable")

	// ErrComposerUnavailable indicates the model service failed to compose
	// an answer after retry.
	ErrComposerUnavailable = errors.New("composer unavailable")

	// ErrOrderNotFound indicates an order lookup found no row visible to the
	// caller's scope. Deliberately indistinguishable from "exists but owned
	// by someone else".
	ErrOrderNotFound = errors.New("order not found")

	// ErrRoleNotAllowed indicates an operation that the caller's role does
	// not offer, such as forecasts in a customer session.
	ErrRoleNotAllowed = errors.New("operation not available for this role")
)
