// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/checkout"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OTPStore keeps one-time codes per purpose and email
type OTPStore interface {
	Save(ctx context.Context, purpose, email, code string) error
	Consume(ctx context.Context, purpose, email, code string) error
}

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	otps            OTPStore
	mailer          email.Sender
	logger          *logrus.Logger
	now             func() time.Time
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, otps OTPStore, mailer email.Sender, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg.Security.BcryptCost),
		jwtManager:      auth.NewJWTManager(cfg),
		otps:            otps,
		mailer:          mailer,
		logger:          logger,
		now:             time.Now,
	}
}

// SignUpRequest represents user registration data
type SignUpRequest struct {
	FirstName       string          `json:"first_name" binding:"required,min=3,max=50"`
	LastName        string          `json:"last_name" binding:"required,min=3,max=50"`
	Email           string          `json:"email" binding:"required,email"`
	Password        string          `json:"password" binding:"required"`
	ConfirmPassword string          `json:"confirm_password" binding:"required,eqfield=Password"`
	Phone           string          `json:"phone" binding:"omitempty,max=20"`
	Gender          string          `json:"gender" binding:"omitempty,oneof=male female"`
	BirthDate       *time.Time      `json:"birth_date"`
	Addresses       []order.Address `json:"addresses" binding:"omitempty,max=10,dive"`
}

// VerifyEmailRequest carries the code mailed at sign-up
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// EmailRequest names an account by email
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SignInRequest represents user login data
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents profile changes; nil fields are left alone
type UpdateProfileRequest struct {
	FirstName *string    `json:"first_name" binding:"omitempty,min=3,max=50"`
	LastName  *string    `json:"last_name" binding:"omitempty,min=3,max=50"`
	Phone     *string    `json:"phone" binding:"omitempty,max=20"`
	Gender    *string    `json:"gender" binding:"omitempty,oneof=male female"`
	BirthDate *time.Time `json:"birth_date"`
}

// ChangePasswordRequest represents a password change by a signed-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// ResetPasswordRequest completes a forgotten password flow
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	OTP             string `json:"otp" binding:"required,len=6"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignUp creates an unverified account and mails a verification code
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest) (*User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperror.Validation("passwords do not match")
	}
	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	user := User{
		Email:     NormalizeEmail(req.Email),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
		Role:      RoleUser,
	}
	for i, a := range req.Addresses {
		user.Addresses = append(user.Addresses, Address{Address: a, IsDefault: i == 0})
	}

	err = s.db.WithContext(dbCtx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if existing > 0 {
			return apperror.Conflict("user with this email already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("user with this email already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User signed up")

	if err := s.sendOTP(ctx, &user, auth.PurposeVerifyEmail); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail marks the account verified when the code matches
func (s *Service) VerifyEmail(ctx context.Context, req *VerifyEmailRequest) error {
	user, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperror.InvalidState("email is already verified")
	}
	if err := s.consumeOTP(ctx, auth.PurposeVerifyEmail, user.Email, req.OTP); err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	now := s.now().UTC()
	err = s.db.WithContext(dbCtx).Model(&User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"email_verified": true, "email_verified_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// ResendOTP issues a fresh verification code
func (s *Service) ResendOTP(ctx context.Context, emailAddr string) error {
	user, err := s.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperror.InvalidState("email is already verified")
	}
	return s.sendOTP(ctx, user, auth.PurposeVerifyEmail)
}

// SignIn checks credentials and issues a token pair
func (s *Service) SignIn(ctx context.Context, req *SignInRequest) (*AuthResponse, error) {
	user, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if !user.EmailVerified {
		return nil, apperror.Forbidden("please verify your email to sign in")
	}
	if user.IsBlocked {
		return nil, apperror.Forbidden("account is blocked")
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	now := s.now().UTC()
	if err := s.db.WithContext(dbCtx).Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLoginAt = &now

	return s.issueTokens(user)
}

// RefreshToken exchanges a refresh token for a new pair. The role is read
// from the database so a promotion takes effect on the next refresh.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, "invalid refresh token", err)
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, apperror.Forbidden("account is blocked")
	}
	return s.issueTokens(user)
}

// GetProfile gets user profile with addresses
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var user User
	err := s.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_default DESC, id ASC")
		}).
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates the given profile fields
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.BirthDate != nil {
		updates["birth_date"] = *req.BirthDate
	}

	if len(updates) > 0 {
		dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
		result := s.db.WithContext(dbCtx).Model(&User{}).Where("id = ?", userID).Updates(updates)
		cancel()
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperror.NotFound("user not found")
		}
	}
	return s.GetProfile(ctx, userID)
}

// ChangeEmail moves the account to a new address and requires it to be
// verified again
func (s *Service) ChangeEmail(ctx context.Context, userID uint, newEmail string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	newEmail = NormalizeEmail(newEmail)
	if newEmail == user.Email {
		return apperror.Validation("new email matches the current one")
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	err = s.db.WithContext(dbCtx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&User{}).Where("email = ?", newEmail).Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken > 0 {
			return apperror.Conflict("email is already in use")
		}
		err := tx.Model(&User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"email":             newEmail,
			"email_verified":    false,
			"email_verified_at": nil,
		}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("email is already in use")
		}
		return err
	})
	if err != nil {
		return err
	}

	user.Email = newEmail
	user.EmailVerified = false
	return s.sendOTP(ctx, user, auth.PurposeVerifyEmail)
}

// ChangePassword changes user password
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperror.Validation("passwords do not match")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.passwordManager.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}

// ForgotPassword mails a password reset code
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	return s.sendOTP(ctx, user, auth.PurposeResetPassword)
}

// ResetPassword sets a new password when the reset code matches
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperror.Validation("passwords do not match")
	}
	user, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := s.consumeOTP(ctx, auth.PurposeResetPassword, user.Email, req.OTP); err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, req.NewPassword)
}

// GetUserByEmail gets user by email
func (s *Service) GetUserByEmail(ctx context.Context, emailAddr string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(emailAddr)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

// CheckActive rejects tokens of deleted or blocked accounts
func (s *Service) CheckActive(ctx context.Context, userID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var user User
	err := s.db.WithContext(ctx).Select("id", "is_blocked").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("the user belonging to this token no longer exists")
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user.IsBlocked {
		return apperror.Forbidden("account is blocked")
	}
	return nil
}

// Customer implements checkout.CustomerDirectory
func (s *Service) Customer(ctx context.Context, userID uint) (*checkout.Customer, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	customer := &checkout.Customer{ID: user.ID, Name: user.GetDisplayName(), Email: user.Email}
	for _, a := range user.Addresses {
		customer.Addresses = append(customer.Addresses, a.Address)
	}
	return customer, nil
}

func (s *Service) issueTokens(user *User) (*AuthResponse, error) {
	pair, err := s.jwtManager.GeneratePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return "", apperror.Validation(err.Error())
	}
	return s.passwordManager.HashPassword(password)
}

func (s *Service) setPassword(ctx context.Context, userID uint, password string) error {
	hashed, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// sendOTP stores a fresh code, replacing any pending one, and mails it
func (s *Service) sendOTP(ctx context.Context, user *User, purpose string) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	err = s.otps.Save(storeCtx, purpose, user.Email, code)
	cancel()
	if err != nil {
		return apperror.Upstream("otp store", err)
	}

	kind := email.EmailTypeEmailVerification
	if purpose == auth.PurposeResetPassword {
		kind = email.EmailTypePasswordReset
	}
	msg, err := email.NewOTPEmail(user.Email, kind, email.OTPData{
		SiteName:  s.config.Company.Name,
		UserName:  user.GetDisplayName(),
		Code:      code,
		ExpiresIn: s.config.JWT.OTPExpiry.String(),
	})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Email)
	defer cancel()
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to send otp email")
		return apperror.Upstream("email", err)
	}
	return nil
}

func (s *Service) consumeOTP(ctx context.Context, purpose, emailAddr, code string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	err := s.otps.Consume(ctx, purpose, emailAddr, code)
	if errors.Is(err, auth.ErrOTPInvalid) {
		return apperror.Validation("invalid or expired code")
	}
	if err != nil {
		return apperror.Upstream("otp store", err)
	}
	return nil
}
