package signup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kinboost-api/internal/domain"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) SendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAPI) VerifyOTP(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockAPI) CreateAccount(ctx context.Context, email, password string, storeName *string) (*domain.AccountRef, error) {
	args := m.Called(ctx, email, password, storeName)
	if r := args.Get(0); r != nil {
		return r.(*domain.AccountRef), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSignIn struct{ mock.Mock }

func (m *mockSignIn) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	args := m.Called(ctx, email, password)
	if s := args.Get(0); s != nil {
		return s.(*domain.AuthSession), args.Error(1)
	}
	return nil, args.Error(1)
}

var ctx = context.Background()

func TestWizard_FullFlow(t *testing.T) {
	api, signIn := &mockAPI{}, &mockSignIn{}
	api.On("SendOTP", mock.Anything, "a@b.com").Return(nil)
	api.On("VerifyOTP", mock.Anything, "a@b.com", "123456").Return(nil)
	api.On("CreateAccount", mock.Anything, "a@b.com", "secret1", (*string)(nil)).
		Return(&domain.AccountRef{ID: "u1", Email: "a@b.com"}, nil)
	signIn.On("SignInWithPassword", mock.Anything, "a@b.com", "secret1").Return(&domain.AuthSession{}, nil)

	w := New(api, signIn)
	assert.Equal(t, StepEmail, w.Step())

	require.NoError(t, w.SubmitEmail(ctx, " a@b.com "))
	assert.Equal(t, StepVerification, w.Step())
	assert.Equal(t, "a@b.com", w.Email())

	require.NoError(t, w.SubmitCode(ctx, "123456"))
	assert.Equal(t, StepPassword, w.Step())
	assert.Nil(t, w.Account())

	require.NoError(t, w.SubmitPassword(ctx, "secret1", "secret1"))
	assert.Equal(t, StepSuccess, w.Step())
	assert.Equal(t, "u1", w.Account().ID)

	api.AssertExpectations(t)
	signIn.AssertExpectations(t)
}

func TestWizard_ClientSideChecks(t *testing.T) {
	api := &mockAPI{}
	w := New(api, &mockSignIn{})

	var verr *ValidationError
	err := w.SubmitEmail(ctx, "not-an-email")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgInvalidEmail, verr.Message)
	assert.Equal(t, MsgInvalidEmail, w.SubmitEmail(ctx, "").Error())

	w.step, w.email = StepVerification, "a@b.com"
	for _, code := range []string{"12345", "1234567", "12a456", "", "١٢٣٤٥٦"} {
		assert.Equal(t, MsgInvalidCode, w.SubmitCode(ctx, code).Error(), code)
	}

	w.step = StepPassword
	assert.Equal(t, MsgWeakPassword, w.SubmitPassword(ctx, "12345", "12345").Error())
	assert.Equal(t, MsgPasswordMismatch, w.SubmitPassword(ctx, "secret1", "secret2").Error())

	api.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWizard_StepsAreGated(t *testing.T) {
	w := New(&mockAPI{}, &mockSignIn{})
	assert.ErrorIs(t, w.SubmitCode(ctx, "123456"), ErrWrongStep)
	assert.ErrorIs(t, w.SubmitPassword(ctx, "secret1", "secret1"), ErrWrongStep)
	assert.ErrorIs(t, w.Resend(ctx), ErrWrongStep)
	assert.ErrorIs(t, w.Back(), ErrWrongStep)
}

func TestWizard_ServerErrorKeepsStep(t *testing.T) {
	api := &mockAPI{}
	api.On("SendOTP", mock.Anything, "a@b.com").Return(nil)
	api.On("VerifyOTP", mock.Anything, "a@b.com", "000000").Return(errors.New("Code invalide ou expiré"))
	api.On("VerifyOTP", mock.Anything, "a@b.com", "123456").Return(nil)

	w := New(api, &mockSignIn{})
	require.NoError(t, w.SubmitEmail(ctx, "a@b.com"))

	assert.EqualError(t, w.SubmitCode(ctx, "000000"), "Code invalide ou expiré")
	assert.Equal(t, StepVerification, w.Step())
	require.NoError(t, w.SubmitCode(ctx, "123456"))
	assert.Equal(t, StepPassword, w.Step())
}

func TestWizard_ResendAndBack(t *testing.T) {
	api := &mockAPI{}
	api.On("SendOTP", mock.Anything, "a@b.com").Return(nil).Twice()
	api.On("SendOTP", mock.Anything, "c@d.com").Return(nil).Once()

	w := New(api, &mockSignIn{})
	require.NoError(t, w.SubmitEmail(ctx, "a@b.com"))
	require.NoError(t, w.Resend(ctx))
	require.NoError(t, w.Back())
	assert.Equal(t, StepEmail, w.Step())

	require.NoError(t, w.SubmitEmail(ctx, "c@d.com"))
	assert.Equal(t, "c@d.com", w.Email())
	api.AssertExpectations(t)
}

func TestWizard_SignInRetryDoesNotRecreate(t *testing.T) {
	api, signIn := &mockAPI{}, &mockSignIn{}
	api.On("CreateAccount", mock.Anything, "a@b.com", "secret1", (*string)(nil)).
		Return(&domain.AccountRef{ID: "u1", Email: "a@b.com"}, nil).Once()
	signIn.On("SignInWithPassword", mock.Anything, "a@b.com", "secret1").Return(nil, errors.New("offline")).Once()
	signIn.On("SignInWithPassword", mock.Anything, "a@b.com", "secret1").Return(&domain.AuthSession{}, nil).Once()

	w := New(api, signIn)
	w.step, w.email = StepPassword, "a@b.com"

	assert.EqualError(t, w.SubmitPassword(ctx, "secret1", "secret1"), "offline")
	assert.Equal(t, StepPassword, w.Step())
	require.NoError(t, w.SubmitPassword(ctx, "secret1", "secret1"))
	assert.Equal(t, StepSuccess, w.Step())
	api.AssertExpectations(t)
}

func TestWizard_ResetDiscardsInFlight(t *testing.T) {
	api := &mockAPI{}
	w := New(api, &mockSignIn{})
	api.On("SendOTP", mock.Anything, "a@b.com").Run(func(mock.Arguments) { w.Reset() }).Return(nil)

	assert.ErrorIs(t, w.SubmitEmail(ctx, "a@b.com"), ErrReset)
	assert.Equal(t, StepEmail, w.Step())
	assert.Empty(t, w.Email())
}

func TestWizard_ResetDiscardsProgress(t *testing.T) {
	api := &mockAPI{}
	api.On("SendOTP", mock.Anything, "a@b.com").Return(nil)
	w := New(api, &mockSignIn{})
	require.NoError(t, w.SubmitEmail(ctx, "a@b.com"))

	w.Reset()
	assert.Equal(t, StepEmail, w.Step())
	assert.Empty(t, w.Email())
	assert.ErrorIs(t, w.SubmitCode(ctx, "123456"), ErrWrongStep)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "verification", StepVerification.String())
	assert.Equal(t, "success", StepSuccess.String())
}
