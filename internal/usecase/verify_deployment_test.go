package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

func TestVerifyDeployment(t *testing.T) {
	ctx := context.Background()

	t.Run("re-verifies a stored result and saves it", func(t *testing.T) {
		cfg := publicConfig("key", 1)
		stored := resultWith(t, domain.VerificationStatusFailed, "TokenA")

		store := &MockResultStore{}
		store.On("Load", mock.Anything, "sepolia", uint64(11155111)).Return(stored, nil).Once()
		store.On("Save", mock.Anything, stored).Return("deployments/sepolia-11155111.json", nil).Once()

		repo := &MockArtifactRepository{}
		repo.On("GetContract", mock.Anything, "TokenA").Return(compiled(t, "TokenA", tokenABIJSON), nil)
		verifier := &MockContractVerifier{}
		verifier.On("Verify", mock.Anything, mock.Anything).
			Return(domain.VerificationInfo{Status: domain.VerificationStatusVerified})

		uc := usecase.NewVerifyDeployment(cfg, store, usecase.NewVerifyArtifacts(cfg, repo, verifier, nil))
		res, err := uc.Execute(ctx, usecase.VerifyOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Summary.Verified)
		assert.Equal(t, "deployments/sepolia-11155111.json", res.ResultPath)
		store.AssertExpectations(t)
	})

	t.Run("missing result", func(t *testing.T) {
		cfg := publicConfig("key", 1)
		store := &MockResultStore{}
		store.On("Load", mock.Anything, "sepolia", uint64(11155111)).Return(nil, domain.ErrNotFound)

		uc := usecase.NewVerifyDeployment(cfg, store, usecase.NewVerifyArtifacts(cfg, nil, nil, nil))
		_, err := uc.Execute(ctx, usecase.VerifyOptions{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
