package user

import (
	"context"
	"sync"
	"testing"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const strongPassword = "Str0ngPassw0rd"

type memoryOTPs struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMemoryOTPs() *memoryOTPs {
	return &memoryOTPs{codes: map[string]string{}}
}

func (m *memoryOTPs) Save(_ context.Context, purpose, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[purpose+":"+email] = code
	return nil
}

func (m *memoryOTPs) Consume(_ context.Context, purpose, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := purpose + ":" + email
	stored, ok := m.codes[key]
	delete(m.codes, key)
	if !ok || stored != code {
		return auth.ErrOTPInvalid
	}
	return nil
}

func (m *memoryOTPs) code(purpose, email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[purpose+":"+email]
}

type outbox struct {
	sent []*email.Email
}

func (o *outbox) Send(_ context.Context, e *email.Email) error {
	o.sent = append(o.sent, e)
	return nil
}

type userFixture struct {
	db     *gorm.DB
	cfg    *config.Config
	svc    *Service
	admin  *AdminService
	otps   *memoryOTPs
	outbox *outbox
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db := testutil.NewDB(t, &User{}, &Address{}, &order.Order{}, &order.OrderItem{})
	cfg := testutil.Config()
	f := &userFixture{db: db, cfg: cfg, otps: newMemoryOTPs(), outbox: &outbox{}}
	f.svc = NewService(db, cfg, f.otps, f.outbox, logger.Discard())
	f.admin = NewAdminService(db, cfg, logger.Discard())
	return f
}

func signUpRequest(emailAddr string) *SignUpRequest {
	return &SignUpRequest{
		FirstName:       "Mona",
		LastName:        "Adel",
		Email:           emailAddr,
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	}
}

// verifiedUser signs up and verifies an account
func (f *userFixture) verifiedUser(t *testing.T, emailAddr string) *User {
	t.Helper()
	ctx := context.Background()
	u, err := f.svc.SignUp(ctx, signUpRequest(emailAddr))
	require.NoError(t, err)
	code := f.otps.code(auth.PurposeVerifyEmail, u.Email)
	require.NoError(t, f.svc.VerifyEmail(ctx, &VerifyEmailRequest{Email: u.Email, OTP: code}))
	return u
}

func TestSignUp(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.SignUp(ctx, signUpRequest(" Mona@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "mona@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, strongPassword, u.Password)

	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, email.EmailTypeEmailVerification, f.outbox.sent[0].Type)
	code := f.otps.code(auth.PurposeVerifyEmail, u.Email)
	assert.Len(t, code, 6)
	assert.Contains(t, f.outbox.sent[0].HTMLContent, code)

	_, err = f.svc.SignUp(ctx, signUpRequest("mona@example.com"))
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	weak := signUpRequest("weak@example.com")
	weak.Password, weak.ConfirmPassword = "short", "short"
	_, err = f.svc.SignUp(ctx, weak)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestVerifyEmailAndSignIn(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.SignUp(ctx, signUpRequest("mona@example.com"))
	require.NoError(t, err)

	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: strongPassword})
	assert.True(t, apperror.Is(err, apperror.KindForbidden), "unverified")

	err = f.svc.VerifyEmail(ctx, &VerifyEmailRequest{Email: u.Email, OTP: "zzzzzz"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	// A wrong guess burns the code.
	require.NoError(t, f.svc.ResendOTP(ctx, u.Email))
	code := f.otps.code(auth.PurposeVerifyEmail, u.Email)
	require.NoError(t, f.svc.VerifyEmail(ctx, &VerifyEmailRequest{Email: u.Email, OTP: code}))

	err = f.svc.VerifyEmail(ctx, &VerifyEmailRequest{Email: u.Email, OTP: code})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: "Wr0ngPassword"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: "nobody@example.com", Password: strongPassword})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	res, err := f.svc.SignIn(ctx, &SignInRequest{Email: "MONA@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotNil(t, res.User.LastLoginAt)

	claims, err := auth.NewJWTManager(f.cfg).ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestRefreshReadsCurrentRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")

	res, err := f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: strongPassword})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&User{}).Where("id = ?", u.ID).Update("role", RoleAdmin).Error)

	refreshed, err := f.svc.RefreshToken(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := auth.NewJWTManager(f.cfg).ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = f.svc.RefreshToken(ctx, res.AccessToken)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized), "access token is not a refresh token")
}

func TestBlockedUserCannotSignIn(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")
	staff := f.verifiedUser(t, "staff@example.com")

	_, err := f.admin.SetBlocked(ctx, staff.ID, staff.ID, true)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	blocked, err := f.admin.SetBlocked(ctx, staff.ID, u.ID, true)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)

	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: strongPassword})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	assert.True(t, apperror.Is(f.svc.CheckActive(ctx, u.ID), apperror.KindForbidden))

	_, err = f.admin.SetBlocked(ctx, staff.ID, u.ID, false)
	require.NoError(t, err)
	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: strongPassword})
	assert.NoError(t, err)
	assert.NoError(t, f.svc.CheckActive(ctx, u.ID))
	assert.True(t, apperror.Is(f.svc.CheckActive(ctx, 999), apperror.KindUnauthorized))
}

func TestPasswordFlows(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")

	err := f.svc.ChangePassword(ctx, u.ID, &ChangePasswordRequest{
		CurrentPassword: "N0tMyPassword", NewPassword: "An0therPass", ConfirmPassword: "An0therPass",
	})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, &ChangePasswordRequest{
		CurrentPassword: strongPassword, NewPassword: "An0therPass", ConfirmPassword: "An0therPass",
	}))

	require.NoError(t, f.svc.ForgotPassword(ctx, u.Email))
	code := f.otps.code(auth.PurposeResetPassword, u.Email)
	require.NotEmpty(t, code)

	err = f.svc.ResetPassword(ctx, &ResetPasswordRequest{Email: u.Email, OTP: code, NewPassword: "Thr1dPassword", ConfirmPassword: "Mismatch1"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, f.svc.ResetPassword(ctx, &ResetPasswordRequest{Email: u.Email, OTP: code, NewPassword: "Thr1dPassword", ConfirmPassword: "Thr1dPassword"}))
	_, err = f.svc.SignIn(ctx, &SignInRequest{Email: u.Email, Password: "Thr1dPassword"})
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, &ResetPasswordRequest{Email: u.Email, OTP: code, NewPassword: "F0urthPassword", ConfirmPassword: "F0urthPassword"})
	assert.True(t, apperror.Is(err, apperror.KindValidation), "code is single use")
}

func TestChangeEmailRequiresVerification(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")
	f.verifiedUser(t, "taken@example.com")

	err := f.svc.ChangeEmail(ctx, u.ID, "taken@example.com")
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	require.NoError(t, f.svc.ChangeEmail(ctx, u.ID, "new@example.com"))
	profile, err := f.svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)
	assert.False(t, profile.EmailVerified)
	assert.NotEmpty(t, f.otps.code(auth.PurposeVerifyEmail, "new@example.com"))
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")

	phone := "01012345678"
	updated, err := f.svc.UpdateProfile(ctx, u.ID, &UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "Mona", updated.FirstName)

	_, err = f.svc.UpdateProfile(ctx, 999, &UpdateProfileRequest{Phone: &phone})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCustomerListsDefaultAddressFirst(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	u := f.verifiedUser(t, "mona@example.com")
	addresses := NewAddressService(f.db, f.cfg)

	first, err := addresses.CreateAddress(ctx, u.ID, &CreateAddressRequest{Address: order.Address{City: "Cairo", State: "Cairo", Street: "Tahrir", BuildingNumber: "1", FlatNumber: "2", ZipCode: "11511"}})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := addresses.CreateAddress(ctx, u.ID, &CreateAddressRequest{Address: order.Address{City: "Giza", State: "Giza", Street: "Haram", BuildingNumber: "3", FlatNumber: "4", ZipCode: "12511"}})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	require.NoError(t, addresses.SetDefaultAddress(ctx, u.ID, second.ID))

	customer, err := f.svc.Customer(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mona Adel", customer.Name)
	require.Len(t, customer.Addresses, 2)
	assert.Equal(t, "Giza", customer.Addresses[0].City)

	require.NoError(t, addresses.DeleteAddress(ctx, u.ID, second.ID))
	list, err := addresses.GetUserAddresses(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault, "remaining address is promoted")

	err = addresses.DeleteAddress(ctx, u.ID+1, first.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
