package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/service"
	"github.com/Josephquito/back-streaming/pkg/response"
)

const dateLayout = "2006-01-02"

// Handler bundles every service the HTTP surface dispatches to.
type Handler struct {
	log         *logrus.Logger
	auth        *service.AuthService
	accounts    *service.AccountService
	profiles    *service.ProfileService
	replacement *service.ReplacementService
	inventory   *service.InventoryService
	sales       *service.SalesService
	reference   *service.ReferenceService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		log:         log,
		auth:        service.NewAuthService(db, cfg, log),
		accounts:    service.NewAccountService(db, rdb, cfg, log),
		profiles:    service.NewProfileService(db, rdb, cfg, log),
		replacement: service.NewReplacementService(db, rdb, cfg, log),
		inventory:   service.NewInventoryService(db, rdb, cfg, log),
		sales:       service.NewSalesService(db, log),
		reference:   service.NewReferenceService(db, log),
	}
}

// ============================================================
// Autenticación
// ============================================================

// Register registra un negocio con su usuario administrador.
// POST /api/v1/auth/registro
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login entrega un token JWT.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user": user})
}

// RegisterEmployee crea un vendedor dentro del negocio del administrador.
// POST /api/v1/auth/empleados
func (h *Handler) RegisterEmployee(c *gin.Context) {
	var req service.RegisterEmployeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	user, err := h.auth.RegisterEmployee(c.Request.Context(), req, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, user)
}

// ============================================================
// Cuentas
// ============================================================

type createAccountRequest struct {
	Login        string          `json:"login" binding:"required"`
	Secret       string          `json:"secret" binding:"required"`
	Provider     string          `json:"provider"`
	PurchaseDate string          `json:"purchase_date" binding:"required"`
	AssignedTime string          `json:"assigned_time" binding:"required"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	SlotCount    int             `json:"slot_count" binding:"required,gt=0"`
	PlatformID   int64           `json:"platform_id" binding:"required"`
	Disabled     bool            `json:"disabled"`
}

// CreateAccount registra una cuenta comprada y su entrada de inventario.
// POST /api/v1/cuentas
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	purchaseDate, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		response.ParamError(c, "purchase_date inválida, se espera AAAA-MM-DD")
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), service.CreateAccountInput{
		Login:        req.Login,
		Secret:       req.Secret,
		Provider:     req.Provider,
		PurchaseDate: purchaseDate,
		AssignedTime: req.AssignedTime,
		TotalCost:    req.TotalCost,
		SlotCount:    req.SlotCount,
		PlatformID:   req.PlatformID,
		Disabled:     req.Disabled,
	}, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, account)
}

type updateAccountRequest struct {
	Login        *string          `json:"login"`
	Secret       *string          `json:"secret"`
	Provider     *string          `json:"provider"`
	PurchaseDate *string          `json:"purchase_date"`
	AssignedTime *string          `json:"assigned_time"`
	TotalCost    *decimal.Decimal `json:"total_cost"`
	SlotCount    *int             `json:"slot_count"`
	Disabled     *bool            `json:"disabled"`
}

// UpdateAccount edita una cuenta y mantiene inventario y perfiles al día.
// PATCH /api/v1/cuentas/:id
func (h *Handler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	in := service.UpdateAccountInput{
		Login:        req.Login,
		Secret:       req.Secret,
		Provider:     req.Provider,
		AssignedTime: req.AssignedTime,
		TotalCost:    req.TotalCost,
		SlotCount:    req.SlotCount,
		Disabled:     req.Disabled,
	}
	if req.PurchaseDate != nil {
		purchaseDate, err := time.Parse(dateLayout, *req.PurchaseDate)
		if err != nil {
			response.ParamError(c, "purchase_date inválida, se espera AAAA-MM-DD")
			return
		}
		in.PurchaseDate = &purchaseDate
	}

	account, err := h.accounts.Update(c.Request.Context(), id, in, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, account)
}

// DeleteAccount elimina una cuenta sin perfiles vendidos.
// DELETE /api/v1/cuentas/:id
func (h *Handler) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.Remove(c.Request.Context(), id, identityFrom(c)); err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, gin.H{"message": "cuenta eliminada"})
}

// GetAccount devuelve una cuenta con su ocupación de perfiles.
// GET /api/v1/cuentas/:id
func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.Get(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, account)
}

// ListAccounts lista las cuentas del negocio.
// GET /api/v1/cuentas
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, accounts)
}

// ListDonorCandidates lista cuentas elegibles como donadoras.
// GET /api/v1/cuentas/disponibles?plataforma_id=xxx
func (h *Handler) ListDonorCandidates(c *gin.Context) {
	platformID, err := strconv.ParseInt(c.Query("plataforma_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "plataforma_id inválido")
		return
	}
	accounts, err := h.accounts.FindAvailableForReplacement(c.Request.Context(), platformID, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, accounts)
}

type replaceAccountRequest struct {
	Mode     string                           `json:"mode" binding:"required"`
	Rotation *service.CredentialRotationInput `json:"rotation"`
	Fresh    *freshPurchaseRequest            `json:"fresh"`
	Donor    *service.DonorSwapInput          `json:"donor"`
}

type freshPurchaseRequest struct {
	Login        string          `json:"login" binding:"required"`
	Secret       string          `json:"secret" binding:"required"`
	Provider     string          `json:"provider"`
	PurchaseDate string          `json:"purchase_date" binding:"required"`
	AssignedTime string          `json:"assigned_time" binding:"required"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// ReplaceAccount ejecuta uno de los tres protocolos de reemplazo.
// POST /api/v1/cuentas/:id/reemplazo
func (h *Handler) ReplaceAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replaceAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	in := service.ReplaceInput{Mode: req.Mode, Rotation: req.Rotation, Donor: req.Donor}
	if req.Fresh != nil {
		purchaseDate, err := time.Parse(dateLayout, req.Fresh.PurchaseDate)
		if err != nil {
			response.ParamError(c, "purchase_date inválida, se espera AAAA-MM-DD")
			return
		}
		in.Fresh = &service.FreshPurchaseInput{
			Login:        req.Fresh.Login,
			Secret:       req.Fresh.Secret,
			Provider:     req.Fresh.Provider,
			PurchaseDate: purchaseDate,
			AssignedTime: req.Fresh.AssignedTime,
			TotalCost:    req.Fresh.TotalCost,
		}
	}

	account, err := h.replacement.Replace(c.Request.Context(), id, in, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, account)
}

// ============================================================
// Perfiles
// ============================================================

type sellProfileRequest struct {
	AccountID    int64           `json:"account_id" binding:"required"`
	ClientID     int64           `json:"client_id" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	AssignedTime string          `json:"assigned_time" binding:"required"`
	SaleDate     string          `json:"sale_date" binding:"required"`
}

// SellProfile vende un perfil de una cuenta a un cliente.
// POST /api/v1/perfiles
func (h *Handler) SellProfile(c *gin.Context) {
	var req sellProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	saleDate, err := time.Parse(dateLayout, req.SaleDate)
	if err != nil {
		response.ParamError(c, "sale_date inválida, se espera AAAA-MM-DD")
		return
	}

	profile, err := h.profiles.Sell(c.Request.Context(), service.SellProfileInput{
		AccountID:    req.AccountID,
		ClientID:     req.ClientID,
		Price:        req.Price,
		AssignedTime: req.AssignedTime,
		SaleDate:     saleDate,
	}, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profile)
}

type updateProfileRequest struct {
	ClientID     *int64           `json:"client_id"`
	Price        *decimal.Decimal `json:"price"`
	AssignedTime *string          `json:"assigned_time"`
	SaleDate     *string          `json:"sale_date"`
}

// UpdateProfile edita los términos comerciales de un perfil activo.
// PATCH /api/v1/perfiles/:id
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}

	in := service.UpdateProfileInput{
		ClientID:     req.ClientID,
		Price:        req.Price,
		AssignedTime: req.AssignedTime,
	}
	if req.SaleDate != nil {
		saleDate, err := time.Parse(dateLayout, *req.SaleDate)
		if err != nil {
			response.ParamError(c, "sale_date inválida, se espera AAAA-MM-DD")
			return
		}
		in.SaleDate = &saleDate
	}

	profile, err := h.profiles.Update(c.Request.Context(), id, in, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profile)
}

// DeactivateProfile desocupa un perfil y devuelve el cupo al inventario.
// POST /api/v1/perfiles/:id/desocupar
func (h *Handler) DeactivateProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.profiles.Deactivate(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profile)
}

// GetProfile devuelve un perfil del negocio.
// GET /api/v1/perfiles/:id
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profile)
}

// ListProfiles lista los perfiles del negocio.
// GET /api/v1/perfiles
func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.profiles.ListByBusiness(c.Request.Context(), identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profiles)
}

// ListAccountProfiles lista los perfiles activos de una cuenta.
// GET /api/v1/cuentas/:id/perfiles
func (h *Handler) ListAccountProfiles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profiles, err := h.profiles.ListByAccount(c.Request.Context(), id, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, profiles)
}

// ============================================================
// Inventario
// ============================================================

type inventoryEntryRequest struct {
	PlatformID  int64           `json:"platform_id" binding:"required"`
	Qty         int             `json:"qty" binding:"required,gt=0"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Description string          `json:"description"`
}

// RecordEntry registra una entrada manual de inventario.
// POST /api/v1/inventario/entradas
func (h *Handler) RecordEntry(c *gin.Context) {
	var req inventoryEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	ident := identityFrom(c)

	stock, err := h.inventory.RecordEntry(c.Request.Context(), service.EntryInput{
		PlatformID:  req.PlatformID,
		BusinessID:  ident.BusinessID,
		Qty:         req.Qty,
		TotalCost:   req.TotalCost,
		Description: req.Description,
	}, ident)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, stock)
}

type inventoryExitRequest struct {
	PlatformID  int64  `json:"platform_id" binding:"required"`
	Qty         int    `json:"qty" binding:"required,gt=0"`
	Description string `json:"description"`
}

// RecordExit registra una salida manual de inventario.
// POST /api/v1/inventario/salidas
func (h *Handler) RecordExit(c *gin.Context) {
	var req inventoryExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	ident := identityFrom(c)

	stock, err := h.inventory.RecordExit(c.Request.Context(), service.ExitInput{
		PlatformID:  req.PlatformID,
		BusinessID:  ident.BusinessID,
		Qty:         req.Qty,
		Description: req.Description,
	}, ident)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, stock)
}

// GetStock devuelve el agregado de inventario de una plataforma.
// GET /api/v1/inventario/:plataformaId
func (h *Handler) GetStock(c *gin.Context) {
	platformID, ok := pathID(c, "plataformaId")
	if !ok {
		return
	}
	stock, err := h.inventory.GetStock(c.Request.Context(), platformID, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	if stock == nil {
		response.Success(c, gin.H{"stock": 0})
		return
	}
	response.Success(c, stock)
}

// ListStock lista el inventario del negocio por plataforma.
// GET /api/v1/inventario
func (h *Handler) ListStock(c *gin.Context) {
	stocks, err := h.inventory.ListStock(c.Request.Context(), identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, stocks)
}

// ListMovements lista el historial de movimientos, opcionalmente por plataforma.
// GET /api/v1/movimientos?plataforma_id=xxx
func (h *Handler) ListMovements(c *gin.Context) {
	var platformID *int64
	if raw := c.Query("plataforma_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ParamError(c, "plataforma_id inválido")
			return
		}
		platformID = &id
	}

	movements, err := h.inventory.ListMovements(c.Request.Context(), platformID, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, movements)
}

// ============================================================
// Catálogo y ventas
// ============================================================

type createPlatformRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /api/v1/plataformas
func (h *Handler) CreatePlatform(c *gin.Context) {
	var req createPlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	platform, err := h.reference.CreatePlatform(c.Request.Context(), req.Name, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, platform)
}

// GET /api/v1/plataformas
func (h *Handler) ListPlatforms(c *gin.Context) {
	platforms, err := h.reference.ListPlatforms(c.Request.Context())
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, platforms)
}

type createClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// POST /api/v1/clientes
func (h *Handler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "parámetros inválidos: "+err.Error())
		return
	}
	client, err := h.reference.CreateClient(c.Request.Context(), req.Name, req.Phone, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, client)
}

// GET /api/v1/clientes
func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.reference.ListClients(c.Request.Context(), identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, clients)
}

// SalesReport resume las ventas del negocio con filtros opcionales.
// GET /api/v1/ventas?desde=AAAA-MM-DD&hasta=AAAA-MM-DD&vendedor_id=xxx&activo=true
func (h *Handler) SalesReport(c *gin.Context) {
	var filter service.SalesFilter
	if raw := c.Query("desde"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.ParamError(c, "desde inválida, se espera AAAA-MM-DD")
			return
		}
		filter.From = &from
	}
	if raw := c.Query("hasta"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.ParamError(c, "hasta inválida, se espera AAAA-MM-DD")
			return
		}
		filter.To = &to
	}
	if raw := c.Query("vendedor_id"); raw != "" {
		sellerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ParamError(c, "vendedor_id inválido")
			return
		}
		filter.SellerID = &sellerID
	}
	if raw := c.Query("activo"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.ParamError(c, "activo inválido")
			return
		}
		filter.Active = &active
	}

	report, err := h.sales.Report(c.Request.Context(), filter, identityFrom(c))
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}
	response.Success(c, report)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" inválido")
		return 0, false
	}
	return id, true
}
