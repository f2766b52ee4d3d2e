package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
	"github.com/xenking/vat-catalog/internal/domain/product"
	"github.com/xenking/vat-catalog/pkg/httpmiddleware"
)

// errInvalidBody is returned when a request body is not the expected JSON object.
var errInvalidBody = errors.New("invalid request body")

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("basePrice")
	e.Float64(p.BasePrice.InexactFloat64())
	e.FieldStart("country")
	e.Str(string(p.Country))
	e.FieldStart("discounts")
	e.ArrStart()
	for _, d := range p.Discounts {
		e.ObjStart()
		e.FieldStart("discountId")
		e.Str(d.ID)
		e.FieldStart("percent")
		e.Float64(d.Percent.InexactFloat64())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("finalPrice")
	e.Float64(p.FinalPrice().InexactFloat64())
	e.ObjEnd()
}

func writeProduct(w http.ResponseWriter, status int, p product.Product) {
	var e jx.Encoder
	encodeProduct(&e, p)
	writeJSON(w, status, &e)
}

func writeProducts(w http.ResponseWriter, products []product.Product) {
	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		encodeProduct(&e, p)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	httpmiddleware.WriteError(w, r, status, message)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already sent; a failed write means the client went away.
	_, _ = w.Write(e.Bytes())
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return data, nil
}

// decodeDecimal reads a JSON number (or numeric string) without going
// through float64.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	num, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.ParseDecimal(strings.Trim(num.String(), `"`))
}

func decodeDiscount(data []byte) (product.Discount, error) {
	var out product.Discount
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "discountId":
			out.ID, err = d.Str()
		case "percent":
			out.Percent, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Discount{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return out, nil
}

func decodeNewProduct(data []byte) (product.NewProduct, error) {
	var out product.NewProduct
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			out.ID, err = d.Str()
		case "name":
			out.Name, err = d.Str()
		case "basePrice":
			out.BasePrice, err = decodeDecimal(d)
		case "country":
			out.Country, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return product.NewProduct{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return out, nil
}
