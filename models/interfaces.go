package models

import "context"

type SalesClient interface {
	GetDailySales(ctx context.Context, days int) ([]SalesRecord, error)
	GetDailySalesForSKUs(ctx context.Context, skus []string, days int) ([]SalesRecord, error)
}
