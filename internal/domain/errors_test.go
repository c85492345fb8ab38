package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestDeploymentErrorKinds(t *testing.T) {
	kinds := []error{ErrInvalidPlan, ErrTransaction, ErrConfirmationTimeout, ErrWiringMismatch}

	cause := errors.New("boom")
	errs := map[error]error{
		ErrInvalidPlan:         InvalidPlan("cycle between %s and %s", "A", "B"),
		ErrTransaction:         TransactionFailed("A", cause),
		ErrConfirmationTimeout: ConfirmationTimedOut("A", cause),
		ErrWiringMismatch:      WiringMismatch("A", &WiringMismatchError{Getter: "token", Dependency: "B"}),
	}

	for kind, err := range errs {
		t.Run(kind.Error(), func(t *testing.T) {
			assert.True(t, IsFatal(err))
			assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", err)))
			for _, other := range kinds {
				assert.Equal(t, other == kind, errors.Is(err, other), "matching %v", other)
			}
		})
	}

	assert.False(t, IsFatal(cause))
	assert.ErrorIs(t, TransactionFailed("A", cause), cause)
}

func TestDeploymentErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid plan: cycle", InvalidPlan("cycle").Error())
	assert.Equal(t, "A: transaction failed: boom", TransactionFailed("A", errors.New("boom")).Error())
}

func TestWiringMismatchError(t *testing.T) {
	expected := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	actual := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

	mismatch := &WiringMismatchError{Getter: "rewardToken", Dependency: "PIFRewards", Expected: expected, Actual: actual}
	assert.Equal(t,
		"rewardToken() returned "+actual.Hex()+", expected PIFRewards address "+expected.Hex(),
		mismatch.Error())

	readErr := errors.New("execution reverted")
	unreadable := &WiringMismatchError{Getter: "rewardToken", Dependency: "PIFRewards", Expected: expected, ReadErr: readErr}
	assert.Contains(t, unreadable.Error(), "could not be read")
	assert.ErrorIs(t, WiringMismatch("PayItForward", unreadable), readErr)

	var target *WiringMismatchError
	assert.True(t, errors.As(WiringMismatch("PayItForward", mismatch), &target))
	assert.Equal(t, "rewardToken", target.Getter)
}
