package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColors is returned when a colors payload is not a list of {name, stock} records.
var ErrInvalidColors = errors.New("invalid colors format")

// Color is one purchasable color variant of a product.
type Color struct {
	Name  string `json:"name" validate:"notblank"`
	Stock int    `json:"stock" validate:"gte=0"`

	// legacy marks entries stored as a bare name with no stock of their own.
	legacy bool
}

// Colors is stored as a JSON text column.
type Colors []Color

// Index returns the position of the color with the given name, or -1.
func (c Colors) Index(name string) int {
	for i := range c {
		if strings.EqualFold(c[i].Name, name) {
			return i
		}
	}
	return -1
}

// TotalStock sums the per-color stock.
func (c Colors) TotalStock() int {
	total := 0
	for _, color := range c {
		total += color.Stock
	}
	return total
}

// WithFallbackStock gives legacy entries the product-level stock.
func (c Colors) WithFallbackStock(stock int) Colors {
	for i := range c {
		if c[i].legacy {
			c[i].Stock = stock
			c[i].legacy = false
		}
	}
	return c
}

// Scan parses the column leniently: null, empty, double encoded and legacy
// bare-string entries are all accepted.
func (c *Colors) Scan(value interface{}) error {
	raw, err := columnBytes(value)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	parsed, err := parseStoredColors(raw)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	*c = parsed
	return nil
}

// Value encodes the list as a JSON array.
func (c Colors) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Color(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON renders a nil list as an empty array.
func (c Colors) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Color(c))
}

// UnmarshalJSON accepts an array of {name, stock} records, or a JSON string
// holding one, which is how multipart clients send it.
func (c *Colors) UnmarshalJSON(data []byte) error {
	parsed, err := ParseColors(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColors strictly decodes client input. Every entry must be an object.
func ParseColors(data []byte) (Colors, error) {
	data, err := unwrapJSONString(bytes.TrimSpace(data))
	if err != nil {
		return nil, ErrInvalidColors
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Colors{}, nil
	}
	var items []struct {
		Name  *string      `json:"name"`
		Stock *json.Number `json:"stock"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrInvalidColors
	}
	out := make(Colors, 0, len(items))
	for _, item := range items {
		if item.Name == nil || item.Stock == nil {
			return nil, ErrInvalidColors
		}
		// stock must be a whole, non-negative number that fits in 32 bits
		stock, err := strconv.ParseInt(item.Stock.String(), 10, 32)
		if err != nil || stock < 0 {
			return nil, ErrInvalidColors
		}
		out = append(out, Color{Name: *item.Name, Stock: int(stock)})
	}
	return out, nil
}

func parseStoredColors(raw []byte) (Colors, error) {
	raw, err := unwrapJSONString(bytes.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Colors{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make(Colors, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				return nil, err
			}
			out = append(out, Color{Name: name, legacy: true})
			continue
		}
		var entry struct {
			Name  string `json:"name"`
			Stock *int   `json:"stock"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, err
		}
		color := Color{Name: entry.Name}
		if entry.Stock == nil {
			color.legacy = true
		} else {
			color.Stock = *entry.Stock
		}
		out = append(out, color)
	}
	return out, nil
}

// Images is the list of public image paths of a product, stored as JSON text.
type Images []string

// Scan accepts null, empty and double encoded arrays.
func (im *Images) Scan(value interface{}) error {
	raw, err := columnBytes(value)
	if err != nil {
		return fmt.Errorf("images: %w", err)
	}
	raw, err = unwrapJSONString(bytes.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*im = Images{}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	*im = list
	return nil
}

// Value encodes the list as a JSON array.
func (im Images) Value() (driver.Value, error) {
	if im == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(im))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON renders a nil list as an empty array.
func (im Images) MarshalJSON() ([]byte, error) {
	if im == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(im))
}

func columnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}

// unwrapJSONString peels off layers of string encoding around a JSON document.
func unwrapJSONString(raw []byte) ([]byte, error) {
	for len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	return raw, nil
}
