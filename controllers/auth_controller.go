package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"mealflow/configs"
	"mealflow/entity"
	"mealflow/pkg/mailer"
	"mealflow/pkg/resp"
	"mealflow/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	DB     *gorm.DB
	Cfg    *configs.Config
	Mailer mailer.Sender
}

func NewAuthController(db *gorm.DB, cfg *configs.Config, sender mailer.Sender) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Mailer: sender}
}

func userPayload(u *entity.User) gin.H {
	return gin.H{
		"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role,
		"mobile": u.Mobile, "addressLine1": u.AddressLine1, "addressLine2": u.AddressLine2,
		"city": u.City, "county": u.County, "postcode": u.Postcode, "country": u.Country,
	}
}

// POST /api/auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var exist entity.User
	if err := a.DB.Where("email = ?", email).First(&exist).Error; err == nil {
		resp.BadRequest(c, "email already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resp.ServerError(c, err)
		return
	}

	user := entity.User{
		Email:    email,
		Password: string(hashed),
		Name:     strings.TrimSpace(req.Name),
		Role:     "user",
	}
	if err := a.DB.Create(&user).Error; err != nil {
		resp.ServerError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, a.Cfg.JWTSecret, a.Cfg.JWTTTL)
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "token": token, "user": userPayload(&user)})
}

// POST /api/auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	var user entity.User
	if err := a.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		resp.Unauthorized(c, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		resp.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, a.Cfg.JWTSecret, a.Cfg.JWTTTL)
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": userPayload(&user)})
}

// GET /api/auth/me
func (a *AuthController) Me(c *gin.Context) {
	uid := utils.CurrentUserID(c)
	var user entity.User
	if err := a.DB.First(&user, uid).Error; err != nil {
		resp.NotFound(c, "user not found")
		return
	}
	resp.OK(c, userPayload(&user))
}

type UpdateMeRequest struct {
	Name         *string `json:"name"`
	Mobile       *string `json:"mobile"`
	AddressLine1 *string `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         *string `json:"city"`
	County       *string `json:"county"`
	Postcode     *string `json:"postcode"`
	Country      *string `json:"country"`
}

// PATCH /api/auth/me
func (a *AuthController) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	uid := utils.CurrentUserID(c)
	var user entity.User
	if err := a.DB.First(&user, uid).Error; err != nil {
		resp.NotFound(c, "user not found")
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Mobile != nil {
		user.Mobile = strings.TrimSpace(*req.Mobile)
	}
	if req.AddressLine1 != nil {
		user.AddressLine1 = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		user.AddressLine2 = *req.AddressLine2
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.County != nil {
		user.County = *req.County
	}
	if req.Postcode != nil {
		pc := normalizePostcode(*req.Postcode)
		if pc != "" && !isUKPostcode(pc) {
			resp.BadRequest(c, "invalid UK postcode")
			return
		}
		user.Postcode = pc
	}
	if req.Country != nil {
		ctry := strings.TrimSpace(*req.Country)
		if ctry == "" {
			ctry = "United Kingdom"
		}
		user.Country = ctry
	}

	if err := a.DB.Save(&user).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, userPayload(&user))
}

// POST /api/auth/refresh
func (a *AuthController) RefreshToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	token, err := jwt.ParseWithClaims(req.Token, &utils.Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(a.Cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		resp.Unauthorized(c, "invalid token")
		return
	}
	claims, ok := token.Claims.(*utils.Claims)
	if !ok {
		resp.Unauthorized(c, "invalid claims")
		return
	}

	fresh, err := utils.GenerateToken(claims.UserID, claims.Role, a.Cfg.JWTSecret, a.Cfg.JWTTTL)
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": fresh})
}

// POST /api/auth/logout
func (a *AuthController) Logout(c *gin.Context) {
	// stateless tokens: nothing to revoke server-side
	resp.OK(c, gin.H{"message": "logged out"})
}

// ----- OTP signup -----

type RequestOtpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /api/auth/request-otp
func (a *AuthController) RequestOtp(c *gin.Context) {
	var req RequestOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var exist entity.User
	if err := a.DB.Where("email = ?", email).First(&exist).Error; err == nil {
		resp.BadRequest(c, "email already registered")
		return
	}

	code, err := otpCode()
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resp.ServerError(c, err)
		return
	}

	// one outstanding code per email
	if err := a.DB.Where("email = ?", email).Delete(&entity.Otp{}).Error; err != nil {
		resp.ServerError(c, err)
		return
	}
	otp := entity.Otp{
		Email:     email,
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Password:  string(hashed),
		ExpiresAt: time.Now().Add(a.Cfg.OTPTTL),
	}
	if err := a.DB.Create(&otp).Error; err != nil {
		resp.ServerError(c, err)
		return
	}

	if err := a.Mailer.SendOTP(email, otp.Name, code); err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, gin.H{"message": "OTP sent to your email address"})
}

type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required,len=6"`
}

// POST /api/auth/verify-otp
func (a *AuthController) VerifyOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var otp entity.Otp
	if err := a.DB.Where("email = ?", email).Order("id DESC").First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resp.BadRequest(c, "no OTP requested")
			return
		}
		resp.ServerError(c, err)
		return
	}
	if time.Now().After(otp.ExpiresAt) {
		resp.BadRequest(c, "OTP expired")
		return
	}
	if otp.Code != req.Otp {
		resp.BadRequest(c, "invalid OTP")
		return
	}

	user := entity.User{
		Email:    email,
		Password: otp.Password, // already hashed at request time
		Name:     otp.Name,
		Role:     "user",
	}
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&entity.Otp{}).Error
	})
	if err != nil {
		resp.ServerError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, a.Cfg.JWTSecret, a.Cfg.JWTTTL)
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": userPayload(&user)})
}

func normalizePostcode(pc string) string {
	return strings.Join(strings.Fields(strings.ToUpper(pc)), " ")
}

var ukPostcodeRe = regexp.MustCompile(`^(GIR\s?0AA|[A-Z]{1,2}[0-9][A-Z0-9]?\s*[0-9][A-Z]{2})$`)

func isUKPostcode(pc string) bool {
	return ukPostcodeRe.MatchString(strings.TrimSpace(pc))
}

func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
