package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type itemReq struct {
	Title string `json:"title" validate:"required,max=10"`
}

type sampleReq struct {
	ClientID uint      `json:"client_id" validate:"required"`
	Email    string    `json:"email" validate:"omitempty,email"`
	Limit    int       `json:"limit" validate:"gte=0,lte=200"`
	Status   string    `json:"status" validate:"omitempty,oneof=DRAFT SENT"`
	Items    []itemReq `json:"items" validate:"dive"`
	Internal string    `json:"-"`
}

func TestStruct(t *testing.T) {
	v := Struct(sampleReq{
		Email:  "nope",
		Limit:  500,
		Status: "LOST",
		Items:  []itemReq{{Title: "ok"}, {Title: ""}, {Title: "far too long title"}},
	})
	assert.Equal(t, Violations{
		"client_id":      "required",
		"email":          "invalid_email",
		"limit":          "out_of_range",
		"status":         "invalid",
		"items[1].title": "required",
		"items[2].title": "too_long",
	}, v)

	assert.True(t, Struct(sampleReq{ClientID: 1, Items: []itemReq{{Title: "x"}}}).Empty())
}

func TestBasicValidators(t *testing.T) {
	v := make(Violations)
	Required("title", "  ", v)
	Required("title", "", v)
	RequiredID("client_id", 0, v)
	MaxLen("code", "ABCDEF", 5, v)
	NonNegativeDecimal("discount", decimal.NewFromInt(-1), v)
	RangeDecimal("vat_rate", decimal.NewFromInt(101), decimal.Zero, decimal.NewFromInt(100), v)
	RangeDecimal("ok", decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(100), v)

	assert.Equal(t, Violations{
		"title":     "required",
		"client_id": "required",
		"code":      "too_long",
		"discount":  "must_be_positive",
		"vat_rate":  "out_of_range",
	}, v)
}

func TestTranslate(t *testing.T) {
	v := Violations{"title": "required"}
	assert.Equal(t, map[string]string{"title": "Requis"}, v.Translate("fr"))
	assert.Equal(t, map[string]string{"title": "Required"}, v.Translate("en"))
}
