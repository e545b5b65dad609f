package handler

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/config"
	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// UserHandler implements the user management endpoints: account creation
// with OTP activation, listing and filtering, profile updates, status and
// account-type changes, email change with re-verification, and deletion.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Mailer auth.Mailer
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, mailer auth.Mailer) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Mailer: mailer}
}

// ----- DTOs -----

type createUserReq struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	AccountType string `json:"accountType"`
}
type updateUserReq struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	PhoneNumber    *string `json:"phoneNumber"`
	ProfilePicture *string `json:"profilePicture"`
}
type updateStatusReq struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
type updateAccountTypeReq struct {
	UserID      string `json:"userId"`
	AccountType string `json:"accountType"`
}
type updateEmailReq struct {
	Email string `json:"email"`
}
type emailReq struct {
	Email string `json:"email"`
}
type activateReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type userResp struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	ProfilePicture   string     `json:"profilePicture,omitempty"`
	RegistrationDate time.Time  `json:"registrationDate"`
	Status           string     `json:"status"`
	AccountType      string     `json:"accountType"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		PhoneNumber:      u.PhoneNumber,
		ProfilePicture:   u.ProfilePicture,
		RegistrationDate: u.RegistrationDate,
		Status:           u.Status,
		AccountType:      u.AccountType,
		LastLogin:        u.LastLogin,
	}
}

// Create registers a new user account. The account starts inactive; an OTP
// is queued to the address on file and must be confirmed via the activate
// endpoint before sign-in works.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "firstName/lastName/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, repository.CreateUserParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		AccountType: req.AccountType,
	}, h.Cfg.BcryptCost)
	if err != nil {
		return mapError(c, err)
	}

	if err := h.issueOtp(ctx, id, req.Email, "email-verification"); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": id}})
}

// List returns a filtered, paged user listing with per-user record counts.
// Admin only.
func (h *UserHandler) List(c echo.Context) error {
	f := repository.UserFilter{
		Search:      c.QueryParam("search"),
		Status:      c.QueryParam("status"),
		AccountType: c.QueryParam("account_type"),
		SortBy:      c.QueryParam("sort_by"),
		SortOrder:   c.QueryParam("sort_order"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		return mapError(c, err)
	}
	data := make([]echo.Map, 0, len(users))
	for _, u := range users {
		data = append(data, echo.Map{
			"user":          toUserResp(u.User),
			"quotes_count":  u.QuotesCount,
			"tickets_count": u.TicketsCount,
			"visits_count":  u.VisitsCount,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data, "count": total})
}

// Get returns one user. Callers may read themselves; admins may read anyone.
func (h *UserHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if err := requireSelfOrAdmin(c, id); err != nil {
		return mapError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toUserResp(u)})
}

// Update applies a partial profile update. Self or admin.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if err := requireSelfOrAdmin(c, id); err != nil {
		return mapError(c, err)
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Users.Update(ctx, id, repository.UpdateUserParams{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdateStatus activates or deactivates an account. Deactivation queues a
// reactivation OTP so the owner can restore access. Admin only.
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId/status required"})
	}
	if req.Status != model.StatusActive && req.Status != model.StatusInactive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or inactive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return mapError(c, err)
	}

	if req.Status == model.StatusActive {
		if err := h.Users.Activate(ctx, u.ID); err != nil {
			return mapError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}

	if err := h.Users.UpdateStatus(ctx, u.ID, model.StatusInactive); err != nil {
		return mapError(c, err)
	}
	if u.Status != model.StatusInactive {
		if err := h.issueOtp(ctx, u.ID, u.Email, "account-reactivation"); err != nil {
			return mapError(c, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdateAccountType switches a user between free and premium. Admin only.
func (h *UserHandler) UpdateAccountType(c echo.Context) error {
	var req updateAccountTypeReq
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId/accountType required"})
	}
	if req.AccountType != model.AccountFree && req.AccountType != model.AccountPremium {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "accountType must be free or premium"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateAccountType(ctx, req.UserID, req.AccountType); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdateEmail changes the caller's address. The account is gated inactive
// behind a fresh OTP sent to the new address. Self only.
func (h *UserHandler) UpdateEmail(c echo.Context) error {
	id := c.Param("id")
	caller := middleware.Caller(c)
	if err := auth.CheckPermission(id, caller); err != nil {
		return mapError(c, err)
	}
	var req updateEmailReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return mapError(c, err)
	}
	if u.Email == req.Email {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "New email must be different from current email"})
	}

	code, err := generateSecureOtp(6)
	if err != nil {
		return mapError(c, err)
	}
	hash, err := auth.HashSecret(code, h.Cfg.BcryptCost)
	if err != nil {
		return mapError(c, err)
	}
	if err := h.Users.UpdateEmail(ctx, id, req.Email, hash); err != nil {
		return mapError(c, err)
	}
	h.sendOtp(ctx, req.Email, code, "email-verification")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Verification email sent successfully"})
}

// ResendOtp issues a fresh OTP for an inactive account.
func (h *UserHandler) ResendOtp(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return mapError(c, err)
	}
	if u.Status != model.StatusInactive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "User is already active"})
	}
	mailContext := "email-verification"
	if u.LastLogin != nil {
		// An account that has signed in before is being reactivated, not
		// verified for the first time.
		mailContext = "account-reactivation"
	}
	if err := h.issueOtp(ctx, u.ID, u.Email, mailContext); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP resent successfully"})
}

// ActivateWithOtp confirms the emailed code and unlocks the account.
func (h *UserHandler) ActivateWithOtp(c echo.Context) error {
	var req activateReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetVerification(ctx, req.Email)
	if err != nil {
		return mapError(c, err)
	}
	if u.VerificationTokenHash == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No verification token found"})
	}
	if !auth.VerifySecret(*u.VerificationTokenHash, req.Code) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid OTP code"})
	}
	if err := h.Users.Activate(ctx, u.ID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes a user account. Admin only.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// issueOtp generates a code, stores its bcrypt hash on the user and queues
// the mail.
func (h *UserHandler) issueOtp(ctx context.Context, userID, email, mailContext string) error {
	code, err := generateSecureOtp(6)
	if err != nil {
		return err
	}
	hash, err := auth.HashSecret(code, h.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := h.Users.SetVerificationToken(ctx, userID, &hash); err != nil {
		return err
	}
	h.sendOtp(ctx, email, code, mailContext)
	return nil
}

// sendOtp queues the mail; delivery failures never fail the request.
func (h *UserHandler) sendOtp(ctx context.Context, email, code, mailContext string) {
	if h.Mailer == nil {
		return
	}
	if err := h.Mailer.SendOtpEmail(ctx, email, code, mailContext); err != nil {
		log.Printf("otp mail enqueue failed for %s: %v", email, err)
	}
}

// requireSelfOrAdmin allows the owner of the target resource and any admin.
func requireSelfOrAdmin(c echo.Context, targetID string) error {
	caller := middleware.Caller(c)
	if caller.Kind == model.KindAdmin {
		return nil
	}
	return auth.CheckPermission(targetID, caller)
}

// generateSecureOtp returns a numeric code with no two adjacent digits equal
// and never all digits the same, matching what the activation mails promise.
func generateSecureOtp(length int) (string, error) {
	digits := make([]byte, 0, length)
	var last byte
	for len(digits) < length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		d := byte('0' + n.Int64())
		if len(digits) > 0 && d == last {
			continue
		}
		digits = append(digits, d)
		last = d
	}
	return string(digits), nil
}
