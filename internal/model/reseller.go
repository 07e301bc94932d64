package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts both JSON strings and bare numbers. The reseller panel
// is not consistent about which one it sends for rates and counters.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Int parses the value, returning 0 when it is empty or not a number.
func (f FlexString) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		v, ferr := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
		if ferr != nil {
			return 0
		}
		return int(v)
	}
	return n
}

type ResellerService struct {
	Service  int64      `json:"service"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Rate     FlexString `json:"rate"`
	Min      FlexString `json:"min"`
	Max      FlexString `json:"max"`
	Category string     `json:"category"`
	Refill   bool       `json:"refill"`
	Cancel   bool       `json:"cancel"`
}

type ResellerAddOrderResult struct {
	Order int64 `json:"order"`
}

type ResellerOrderStatus struct {
	Charge     FlexString `json:"charge"`
	StartCount FlexString `json:"start_count"`
	Status     string     `json:"status"`
	Remains    FlexString `json:"remains"`
	Currency   string     `json:"currency"`
}

type ResellerBalance struct {
	Balance  FlexString `json:"balance"`
	Currency string     `json:"currency"`
}

// CatalogService is a reseller service re-shaped for the storefront.
type CatalogService struct {
	ID                string `json:"id"`
	Platform          string `json:"platform"`
	ServiceType       string `json:"service_type"`
	PackageName       string `json:"package_name"`
	Quantity          int    `json:"quantity"`
	Price             int64  `json:"price"` // per 1000 units, shop currency
	MinQuantity       int    `json:"min_quantity"`
	MaxQuantity       int    `json:"max_quantity"`
	Description       string `json:"description"`
	IsPopular         bool   `json:"is_popular"`
	IsActive          bool   `json:"is_active"`
	ResellerServiceID int64  `json:"jap_service_id"`
	Rate              string `json:"-"`
}

// CatalogGroups maps platform -> service type -> services.
type CatalogGroups map[string]map[string][]CatalogService
