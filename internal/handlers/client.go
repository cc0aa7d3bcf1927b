package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

type clientReq struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Phone      string `json:"phone" validate:"max=50"`
	Company    string `json:"company" validate:"max=255"`
	Address    string `json:"address" validate:"max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
	SIRET      string `json:"siret" validate:"max=14"`
	VATNumber  string `json:"vat_number" validate:"max=20"`
}

func (req clientReq) apply(c *models.Client) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = req.Phone
	c.Company = strings.TrimSpace(req.Company)
	c.Address = req.Address
	c.City = req.City
	c.PostalCode = req.PostalCode
	c.Country = req.Country
	c.SIRET = req.SIRET
	c.VATNumber = req.VATNumber
}

// decode reads and validates a client body, answering on failure.
func (req *clientReq) decode(w http.ResponseWriter, r *http.Request) bool {
	if err := httpx.DecodeJSON(r, req); err != nil {
		badJSON(w)
		return false
	}
	v := validation.Struct(*req)
	validation.Required("name", req.Name, v)
	if !v.Empty() {
		invalid(w, r, v)
		return false
	}
	return true
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := currentUID(r)
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	pg, limit := paging(r)

	db := h.db.WithContext(r.Context()).Model(&models.Client{}).Where("user_id = ?", userID)
	if query != "" {
		like := models.Contains(query)
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, like, like, like)
	}

	out := page[models.Client]{Page: pg, Limit: limit}
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

// find loads the caller's client named by the path, answering 404 otherwise.
func (h *ClientHandler) find(w http.ResponseWriter, r *http.Request) (*models.Client, bool) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return nil, false
	}
	var client models.Client
	err := h.db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, currentUID(r)).First(&client).Error
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return &client, true
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, ok := h.find(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientReq
	if !req.decode(w, r) {
		return
	}
	client := models.Client{UserID: currentUID(r)}
	req.apply(&client)
	if err := h.db.WithContext(r.Context()).Create(&client).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	client, ok := h.find(w, r)
	if !ok {
		return
	}
	var req clientReq
	if !req.decode(w, r) {
		return
	}
	req.apply(client)
	if err := h.db.WithContext(r.Context()).Save(client).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Delete refuses clients that quotes still point to.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	client, ok := h.find(w, r)
	if !ok {
		return
	}
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Quote{}).Where("client_id = ?", client.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errInUse
		}
		return tx.Delete(client).Error
	})
	if errors.Is(err, errInUse) {
		httpx.JSONError(w, http.StatusConflict, "client_in_use", nil)
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var errInUse = errors.New("still referenced")
