package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/diewo77/go-quotes/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

type productReq struct {
	Code            string `json:"code" validate:"required,max=50"`
	Name            string `json:"name" validate:"required,max=255"`
	Description     string `json:"description"`
	UnitPrice       string `json:"unit_price" validate:"required"`
	Unit            string `json:"unit" validate:"max=50"`
	DefaultQuantity string `json:"default_quantity"`
	Category        string `json:"category" validate:"max=100"`
	IsActive        *bool  `json:"is_active"`
}

// decode reads and validates a product body into p, answering on failure.
func (req *productReq) decode(w http.ResponseWriter, r *http.Request, p *models.Product) bool {
	if err := httpx.DecodeJSON(r, req); err != nil {
		badJSON(w)
		return false
	}
	v := validation.Struct(*req)
	validation.Required("code", req.Code, v)
	validation.Required("name", req.Name, v)
	price := parseAmount("unit_price", req.UnitPrice, v)
	qty := decimal.NewFromInt(1)
	if req.DefaultQuantity != "" {
		q, err := quote.ParseQuantity(req.DefaultQuantity)
		if err != nil {
			v.Add("default_quantity", "invalid_quantity")
		}
		qty = q
	}
	if !v.Empty() {
		invalid(w, r, v)
		return false
	}

	p.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.UnitPrice = price
	p.Unit = req.Unit
	if p.Unit == "" {
		p.Unit = "unit"
	}
	p.DefaultQuantity = qty
	p.Category = req.Category
	p.IsActive = req.IsActive == nil || *req.IsActive
	return true
}

// List returns the caller's catalog. active=1 hides disabled entries.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUID(r)
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	pg, limit := paging(r)

	db := h.db.WithContext(r.Context()).Model(&models.Product{}).Where("user_id = ?", userID)
	if query != "" {
		like := models.Contains(query)
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\'`, like, like)
	}
	if r.URL.Query().Get("active") == "1" {
		db = db.Where("is_active = ?", true)
	}

	out := page[models.Product]{Page: pg, Limit: limit}
	if err := db.Count(&out.Total).Error; err != nil {
		fail(w, r, err)
		return
	}
	if err := db.Order("name").Limit(limit).Offset((pg - 1) * limit).Find(&out.Items).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ProductHandler) find(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return nil, false
	}
	var product models.Product
	err := h.db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, currentUID(r)).First(&product).Error
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return &product, true
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.find(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	product := models.Product{UserID: currentUID(r)}
	var req productReq
	if !req.decode(w, r, &product) {
		return
	}
	if !h.save(w, r, &product) {
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	product, ok := h.find(w, r)
	if !ok {
		return
	}
	var req productReq
	if !req.decode(w, r, product) {
		return
	}
	if !h.save(w, r, product) {
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// save stores p; a code taken by another entry is a validation failure.
func (h *ProductHandler) save(w http.ResponseWriter, r *http.Request, p *models.Product) bool {
	db := h.db.WithContext(r.Context())
	isNew, active := p.ID == 0, p.IsActive
	err := db.Save(p).Error
	if err == nil && isNew && !active {
		// gorm skips zero values that have a column default on insert
		err = db.Model(p).Update("is_active", false).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		v := make(validation.Violations)
		v.Add("code", "already_exists")
		invalid(w, r, v)
		return false
	}
	if err != nil {
		fail(w, r, err)
		return false
	}
	return true
}

// Delete removes the catalog entry. Quote rows filled from it keep their
// own copy of title and price.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(product).Error; err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
