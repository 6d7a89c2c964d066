// internal/domain/user/service_test.go
package user

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Address{}, &PasswordResetToken{}, &store.Store{}))

	cfg := &config.Config{
		App: config.AppConfig{Name: "marketplace-test"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-of-sufficient-length!",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{
			BcryptCost:       bcrypt.MinCost,
			ResetTokenExpiry: time.Hour,
		},
	}
	return NewService(db, cfg), db
}

func registerRequest(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:           email,
		Password:        "Str0ngPass",
		ConfirmPassword: "Str0ngPass",
		FirstName:       "Ada",
		LastName:        "Lovelace",
	}
}

func TestRegister(t *testing.T) {
	svc, db := newTestService(t)

	resp, err := svc.Register(registerRequest("Ada@Example.com"))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, RoleCustomer, resp.User.Role)
	assert.Empty(t, resp.User.Password)

	// Email stored lowercase, password stored hashed
	var stored User
	require.NoError(t, db.Where("email = ?", "ada@example.com").First(&stored).Error)
	assert.NotEqual(t, "Str0ngPass", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestRegisterRejectsDuplicatesAndMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(registerRequest("ada@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	mismatch := registerRequest("other@example.com")
	mismatch.ConfirmPassword = "Different1"
	_, err = svc.Register(mismatch)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	weak := registerRequest("weak@example.com")
	weak.Password = "weak"
	weak.ConfirmPassword = "weak"
	_, err = svc.Register(weak)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestRegisterSupplierCreatesStore(t *testing.T) {
	svc, db := newTestService(t)

	resp, err := svc.RegisterSupplier(&RegisterSupplierRequest{
		RegisterRequest: *registerRequest("seller@example.com"),
		StoreName:       "Ada's Analytical Engines",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleSupplier, resp.User.Role)

	var st store.Store
	require.NoError(t, db.Where("owner_id = ?", resp.User.ID).First(&st).Error)
	assert.Equal(t, "Ada's Analytical Engines", st.Name)
	assert.True(t, st.IsActive)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)

	resp, err := svc.Login(&LoginRequest{Email: "ADA@example.com", Password: "Str0ngPass"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(&LoginRequest{Email: "ada@example.com", Password: "WrongPass1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "Str0ngPass"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(auth.Identity{UserID: registered.User.ID}))

	_, err = svc.Login(&LoginRequest{Email: "ada@example.com", Password: "Str0ngPass"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)

	resp, err := svc.RefreshToken(registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// An access token cannot stand in for a refresh token
	_, err = svc.RefreshToken(registered.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	// Deactivated users cannot refresh
	require.NoError(t, svc.Deactivate(auth.Identity{UserID: registered.User.ID}))
	_, err = svc.RefreshToken(registered.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)
	identity := auth.Identity{UserID: registered.User.ID, Role: auth.RoleCustomer}

	first := "Augusta"
	updated, err := svc.UpdateProfile(identity, &ProfilePatch{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)

	_, err = svc.UpdateProfile(identity, &ProfilePatch{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)
	identity := auth.Identity{UserID: registered.User.ID, Role: auth.RoleCustomer}

	err = svc.ChangePassword(identity, "WrongPass1", "N3wStrongPass")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	require.NoError(t, svc.ChangePassword(identity, "Str0ngPass", "N3wStrongPass"))

	_, err = svc.Login(&LoginRequest{Email: "ada@example.com", Password: "N3wStrongPass"})
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Register(registerRequest("ada@example.com"))
	require.NoError(t, err)

	// Unknown emails succeed with an empty token
	token, err := svc.ForgotPassword("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = svc.ForgotPassword("ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(token, "N3wStrongPass"))

	_, err = svc.Login(&LoginRequest{Email: "ada@example.com", Password: "N3wStrongPass"})
	assert.NoError(t, err)

	// The token is single use
	err = svc.ResetPassword(token, "An0therPass")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Expired tokens are refused
	expired, err := svc.ForgotPassword("ada@example.com")
	require.NoError(t, err)
	require.NoError(t, db.Model(&PasswordResetToken{}).
		Where("token = ?", expired).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	err = svc.ResetPassword(expired, "An0therPass")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
