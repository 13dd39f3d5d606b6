package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/shophub/pkg/account"
	"github.com/example/shophub/pkg/catalog"
	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/order"
	"github.com/example/shophub/pkg/repository"
	"github.com/gin-gonic/gin"
	ginSwagger "github.com/swaggo/gin-swagger"
	swaggerFiles "github.com/swaggo/files"
	"go.uber.org/zap"
)

// CatalogAPI is the public HTTP surface of the catalog service: products,
// orders and the buy/return transaction endpoints.
type CatalogAPI struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	catalog *catalog.Service
	orders  *order.Service
	tokens  *account.TokenIssuer
}

func NewCatalogAPI(cfg *config.Config, logger *zap.Logger, catalogSvc *catalog.Service, orderSvc *order.Service, tokens *account.TokenIssuer) *CatalogAPI {
	return &CatalogAPI{
		config:  cfg,
		logger:  logger,
		router:  newRouter(logger),
		catalog: catalogSvc,
		orders:  orderSvc,
		tokens:  tokens,
	}
}

func (a *CatalogAPI) SetupRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := a.router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", a.searchProducts)
			products.GET("/:id", a.getProduct)

			authed := products.Group("", authMiddleware(a.tokens))
			{
				authed.POST("", a.createProduct)
				authed.GET("/mine", a.myProducts)
				authed.PUT("/:id", a.updateProduct)
				authed.DELETE("/:id", a.deleteProduct)
			}
		}

		orders := v1.Group("/orders", authMiddleware(a.tokens))
		{
			orders.POST("", a.createOrder)
			orders.GET("", a.listOrders)
			orders.GET("/:id", a.getOrder)
			orders.PUT("/:id/address", a.updateOrderAddress)
			orders.DELETE("/:id", a.deleteOrder)
			orders.POST("/:id/items", a.addOrderItem)
			orders.DELETE("/:id/items", a.removeOrderItem)
			orders.POST("/:id/buy", a.buyOrder)
			orders.POST("/:id/return", a.returnOrder)
		}
	}

	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (a *CatalogAPI) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.HTTP.Host, a.config.HTTP.Port)
	a.logger.Info("Catalog API starting", zap.String("address", addr))
	return a.router.Run(addr)
}

func (a *CatalogAPI) searchProducts(c *gin.Context) {
	q := repository.ProductQuery{Name: c.Query("name")}

	if raw := c.Query("start_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q.StartPrice = &v
		}
	}
	if raw := c.Query("end_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q.EndPrice = &v
		}
	}
	if raw := c.Query("asc"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			q.Ascending = &v
		}
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	page, err := a.catalog.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *CatalogAPI) getProduct(c *gin.Context) {
	product, err := a.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *CatalogAPI) createProduct(c *gin.Context) {
	var in catalog.CreateInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := a.catalog.Create(c.Request.Context(), callerID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (a *CatalogAPI) myProducts(c *gin.Context) {
	products, err := a.catalog.MyProducts(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (a *CatalogAPI) updateProduct(c *gin.Context) {
	var in catalog.UpdateInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := a.catalog.Update(c.Request.Context(), callerID(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (a *CatalogAPI) deleteProduct(c *gin.Context) {
	if err := a.catalog.Delete(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *CatalogAPI) createOrder(c *gin.Context) {
	var in order.CreateInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := a.orders.Create(c.Request.Context(), callerID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *CatalogAPI) listOrders(c *gin.Context) {
	orders, err := a.orders.List(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (a *CatalogAPI) getOrder(c *gin.Context) {
	found, err := a.orders.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (a *CatalogAPI) updateOrderAddress(c *gin.Context) {
	var in struct {
		Address string `json:"address"`
	}
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.orders.UpdateAddress(c.Request.Context(), callerID(c), c.Param("id"), in.Address); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *CatalogAPI) deleteOrder(c *gin.Context) {
	if err := a.orders.Delete(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *CatalogAPI) addOrderItem(c *gin.Context) {
	var req order.ItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := a.orders.AddProduct(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *CatalogAPI) removeOrderItem(c *gin.Context) {
	var req order.ItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := a.orders.RemoveProduct(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *CatalogAPI) buyOrder(c *gin.Context) {
	if err := a.orders.Buy(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *CatalogAPI) returnOrder(c *gin.Context) {
	if err := a.orders.Return(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
