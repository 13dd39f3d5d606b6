package httpapi

import (
	"fmt"
	"net/http"

	"github.com/example/shophub/pkg/account"
	"github.com/example/shophub/pkg/config"
	"github.com/gin-gonic/gin"
	ginSwagger "github.com/swaggo/gin-swagger"
	swaggerFiles "github.com/swaggo/files"
	"go.uber.org/zap"
)

// AccountAPI is the public HTTP surface of the account service: users,
// sessions and bank accounts.
type AccountAPI struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	users  *account.UserService
	bank   *account.BankService
	tokens *account.TokenIssuer
}

func NewAccountAPI(cfg *config.Config, logger *zap.Logger, users *account.UserService, bank *account.BankService, tokens *account.TokenIssuer) *AccountAPI {
	return &AccountAPI{
		config: cfg,
		logger: logger,
		router: newRouter(logger),
		users:  users,
		bank:   bank,
		tokens: tokens,
	}
}

func (a *AccountAPI) SetupRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := a.router.Group("/api/v1")
	{
		v1.POST("/users", a.register)
		v1.POST("/sessions", a.login)

		me := v1.Group("/users/me", authMiddleware(a.tokens))
		{
			me.GET("", a.profile)
			me.PUT("", a.updateProfile)
			me.PUT("/password", a.changePassword)
			me.DELETE("", a.deleteUser)
		}

		v1.PUT("/users/:id/role", authMiddleware(a.tokens), adminOnly(), a.setRole)

		bank := v1.Group("/bank-accounts", authMiddleware(a.tokens))
		{
			bank.POST("", a.openAccount)
			bank.GET("/me", a.getAccount)
			bank.POST("/me/deposits", a.deposit)
			bank.POST("/me/withdrawals", a.withdraw)
		}
	}

	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (a *AccountAPI) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.HTTP.Host, a.config.HTTP.Port)
	a.logger.Info("Account API starting", zap.String("address", addr))
	return a.router.Run(addr)
}

func (a *AccountAPI) register(c *gin.Context) {
	var in account.RegisterInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.users.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (a *AccountAPI) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := a.users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *AccountAPI) profile(c *gin.Context) {
	info, err := a.users.Info(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (a *AccountAPI) updateProfile(c *gin.Context) {
	var in account.ProfileUpdate
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.users.UpdateProfile(c.Request.Context(), callerID(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *AccountAPI) changePassword(c *gin.Context) {
	var in struct {
		Password string `json:"password"`
	}
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.users.ChangePassword(c.Request.Context(), callerID(c), in.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *AccountAPI) deleteUser(c *gin.Context) {
	if err := a.users.Delete(c.Request.Context(), callerID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *AccountAPI) setRole(c *gin.Context) {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.users.SetRole(c.Request.Context(), c.Param("id"), in.Role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *AccountAPI) openAccount(c *gin.Context) {
	opened, err := a.bank.Open(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, opened)
}

// getAccount resolves the caller's account id from the store rather than the
// token, which goes stale right after the account is opened.
func (a *AccountAPI) getAccount(c *gin.Context) {
	accountID, err := a.users.GetBankAccountID(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if accountID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "you do not have a bank account"})
		return
	}

	acc, err := a.bank.Get(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (a *AccountAPI) deposit(c *gin.Context) {
	a.adjust(c, func(accountID string, amount float64) error {
		return a.bank.Deposit(c.Request.Context(), accountID, amount)
	})
}

func (a *AccountAPI) withdraw(c *gin.Context) {
	a.adjust(c, func(accountID string, amount float64) error {
		return a.bank.Withdraw(c.Request.Context(), accountID, amount)
	})
}

func (a *AccountAPI) adjust(c *gin.Context, apply func(accountID string, amount float64) error) {
	var in struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := a.users.GetBankAccountID(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if accountID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "you do not have a bank account"})
		return
	}

	if err := apply(accountID, in.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
